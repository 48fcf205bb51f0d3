// Package convert reads a structure and writes it out again, as pdb
// or mmcif depending on the output file name.
package convert

import (
	"errors"
	"fmt"
	"io"

	"github.com/andrew-torda/dsspconv/pdb"
	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	. "github.com/andrew-torda/dsspconv/pkg/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Usage is printed when the arguments make no sense
const Usage = "Usage: pdbconvert [options] input.pdb output.[pdb|cif]"

// MyMain is the top level main. fs holds the command's flags. The config
// file, environment and fs are merged and args parsed. It returns the
// exit code.
func MyMain(fs *pflag.FlagSet, args []string, stdout, stderr io.Writer) int {
	SetupLogger(stderr)
	var cfg Config
	err := InitializeConfig(fs, args, DefaultConfigPath, DefaultConfig(), &cfg)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, Usage)
		return ExitFailure
	}
	infile, outfile := fs.Arg(0), fs.Arg(1)
	format := pdb.FormatOf(outfile)
	if format == pdb.FormatUnknown {
		fmt.Fprintln(stderr, "Unsupported output format. Use .pdb or .cif")
		return ExitFailure
	}

	st, err := pdb.ReadStructure(infile)
	if err != nil {
		log.Error().Err(err).Str("file", infile).Msg("reading structure")
		return ExitFailure
	}
	wcfg := pdb.DefaultWriteConfig()
	wcfg.PDB.MinimalFile = cfg.Minimal
	if format == pdb.FormatMmcif {
		cmmn.SetupEntities(st)
	}
	if err := pdb.WriteStructure(outfile, st, wcfg); err != nil {
		log.Error().Err(err).Str("file", outfile).Msg("writing structure")
		return ExitFailure
	}
	kind := "PDB"
	if format == pdb.FormatMmcif {
		kind = "mmCIF"
	}
	fmt.Fprintf(stdout, "Wrote %s → %s\n", kind, outfile)
	return ExitSuccess
}
