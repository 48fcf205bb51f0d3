package dssp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	"github.com/andrew-torda/dsspconv/pdb/mmcif"
	"github.com/andrew-torda/dsspconv/pdb/oldfmt"
	"github.com/rs/zerolog/log"
)

// Options for Apply
type Options struct {
	Policy    Policy
	Tolerance float64 // CA shift, zero means DefaultTolerance
}

// DefaultOptions warns about disagreements
func DefaultOptions() Options {
	return Options{Policy: PolicyWarn, Tolerance: DefaultTolerance}
}

// writeOptions leaves out the records mkdssp chokes on or does not need.
func writeOptions() oldfmt.WriteOptions {
	opts := oldfmt.DefaultWriteOptions()
	opts.SeqresRecords = false
	opts.SsbondRecords = false
	opts.LinkRecords = false
	opts.CispepRecords = false
	opts.EndRecord = false
	return opts
}

// toPDB writes the structure without its remarks. The remarks are put
// back before returning.
func toPDB(st *cmmn.Structure) ([]byte, error) {
	saved := st.RawRemarks
	st.RawRemarks = nil
	defer func() { st.RawRemarks = saved }()
	var buf bytes.Buffer
	if err := oldfmt.Write(&buf, st, writeOptions()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Apply sends the structure to the annotator and replaces its helices and
// sheets with the ones that come back. Nothing else in st is changed.
// On error st is not changed at all. The report is nil if the policy is
// PolicyOff.
func Apply(ctx context.Context, st *cmmn.Structure, a Annotator, opts Options) (*Report, error) {
	pdbBytes, err := toPDB(st)
	if err != nil {
		return nil, fmt.Errorf("writing pdb for annotation: %w", err)
	}
	cifBytes, err := a.Annotate(ctx, pdbBytes)
	if err != nil {
		return nil, fmt.Errorf("annotation: %w", err)
	}
	doc, err := mmcif.Read(bytes.NewReader(cifBytes))
	if err != nil {
		return nil, fmt.Errorf("reading annotation: %w", err)
	}
	annotated, err := mmcif.MakeStructure(doc)
	if err != nil {
		return nil, fmt.Errorf("reading annotation: %w", err)
	}

	var report *Report
	if opts.Policy != PolicyOff {
		tol := opts.Tolerance
		if tol <= 0 {
			tol = DefaultTolerance
		}
		report = Compare(st, annotated, tol)
		if !report.OK() {
			if opts.Policy == PolicyError {
				return report, report.Err()
			}
			log.Warn().Strs("problems", report.Problems).Str("structure", st.Name).
				Msg("annotated structure differs from input")
		}
		if report.NoSense > 0 {
			log.Info().Int("strands", report.NoSense).Str("structure", st.Name).
				Msg("strands without sense")
		}
	}

	st.Helices = annotated.Helices
	st.Sheets = annotated.Sheets
	log.Debug().Int("helices", len(st.Helices)).Int("sheets", len(st.Sheets)).
		Str("structure", st.Name).Msg("secondary structure replaced")
	return report, nil
}
