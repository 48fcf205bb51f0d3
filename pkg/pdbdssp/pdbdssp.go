// Package pdbdssp reads a pdb file, gets its secondary structure from
// mkdssp, fills in missing SEQRES and writes the result as pdb and mmcif.
package pdbdssp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/andrew-torda/dsspconv/pdb"
	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	"github.com/andrew-torda/dsspconv/pdb/dssp"
	. "github.com/andrew-torda/dsspconv/pkg/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Usage is printed when the arguments make no sense
const Usage = "Usage: pdbdssp input.pdb"

const suffix = "-dssp"

// OutNames gives the two output files, next to the input.
// dir/4y5u.pdb gives dir/4y5u-dssp.pdb and dir/4y5u-dssp.cif
func OutNames(infile string) (pdbOut, cifOut string) {
	base := filepath.Join(filepath.Dir(infile), pdb.Stem(infile)+suffix)
	return base + ".pdb", base + ".cif"
}

func mkdssp(cfg *Config) *dssp.MkDSSP {
	m := dssp.NewMkDSSP()
	m.Path = cfg.MkDSSP.Path
	m.MinHelixLength = cfg.MkDSSP.MinHelixLength
	m.Accessibility = cfg.MkDSSP.Accessibility
	m.Timeout = cfg.MkDSSP.Timeout
	return m
}

// MyMain is the top level main. It parses args with the command's flags
// in fs and runs mkdssp as configured.
func MyMain(fs *pflag.FlagSet, args []string, stdout, stderr io.Writer) int {
	return MyMainWith(fs, args, stdout, stderr, nil)
}

// MyMainWith is MyMain with an annotator of our choosing. If a is nil,
// mkdssp is used.
func MyMainWith(fs *pflag.FlagSet, args []string, stdout, stderr io.Writer, a dssp.Annotator) int {
	SetupLogger(stderr)
	var cfg Config
	err := InitializeConfig(fs, args, DefaultConfigPath, DefaultConfig(), &cfg)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(stdout, err)
		return ExitFailure
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stdout, Usage)
		return ExitFailure
	}
	policy, err := dssp.ParsePolicy(cfg.Check)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return ExitFailure
	}
	if a == nil {
		a = mkdssp(&cfg)
	}
	infile := fs.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	pdbOut, cifOut, err := run(ctx, infile, &cfg, policy, a)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return ExitFailure
	}
	fmt.Fprintln(stdout, "Wrote", pdbOut)
	fmt.Fprintln(stdout, "Wrote", cifOut)
	return ExitSuccess
}

// seedMetadata sets the keywords and, if there is none, the title.
func seedMetadata(st *cmmn.Structure, cfg *Config) {
	if cfg.Metadata.Keywords != "" {
		st.SetInfo(cmmn.InfoKeywords, cfg.Metadata.Keywords)
	}
	if cfg.Metadata.Title != "" {
		st.SetInfoIfEmpty(cmmn.InfoTitle, cfg.Metadata.Title)
	}
}

// run is the pipeline: load, entities, metadata, secondary structure,
// SEQRES, write.
func run(ctx context.Context, infile string, cfg *Config, policy dssp.Policy,
	a dssp.Annotator) (string, string, error) {
	st, err := pdb.ReadStructure(infile)
	if err != nil {
		return "", "", err
	}
	cmmn.SetupEntities(st)
	seedMetadata(st, cfg)

	opts := dssp.DefaultOptions()
	opts.Policy = policy
	report, err := dssp.Apply(ctx, st, a, opts)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", infile, err)
	}
	if report != nil {
		log.Info().Int("helices", report.Helices).Int("sheets", report.Sheets).
			Int("residues", report.Residues).Float64("max_ca_shift", report.MaxShift).
			Msg("secondary structure")
	}
	if n := cmmn.ApplySeqres(st); n > 0 {
		log.Info().Int("entities", n).Msg("sequence filled in from residues")
	}

	pdbOut, cifOut := OutNames(infile)
	wcfg := pdb.DefaultWriteConfig()
	wcfg.Groups.AuthAll = true
	if err := pdb.WriteStructure(pdbOut, st, wcfg); err != nil {
		return "", "", err
	}
	if err := pdb.WriteStructure(cifOut, st, wcfg); err != nil {
		os.Remove(pdbOut)
		return "", "", err
	}
	return pdbOut, cifOut, nil
}
