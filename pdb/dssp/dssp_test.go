package dssp_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	"github.com/andrew-torda/dsspconv/pdb/dssp"
	"github.com/andrew-torda/dsspconv/pdb/mmcif"
	"github.com/andrew-torda/dsspconv/pdb/oldfmt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallFile = "../oldfmt/testdata/small.pdb"

func readSmall(t *testing.T) *cmmn.Structure {
	t.Helper()
	fp, err := os.Open(smallFile)
	require.NoError(t, err)
	defer fp.Close()
	st, err := oldfmt.Read(fp)
	require.NoError(t, err)
	cmmn.SetupEntities(st)
	return st
}

func rid(num int, name string) cmmn.ResidueID {
	return cmmn.ResidueID{Chain: "A", SeqID: cmmn.SeqID{Num: num, ICode: ' '}, Name: name}
}

// fake behaves like mkdssp. It reads the pdb it is given, lets change
// set the secondary structure and answers in mmcif. What it was sent is
// kept in sent.
type fake struct {
	change func(*cmmn.Structure)
	sent   []byte
}

func (f *fake) Annotate(ctx context.Context, pdb []byte) ([]byte, error) {
	f.sent = pdb
	st, err := oldfmt.Read(bytes.NewReader(pdb))
	if err != nil {
		return nil, err
	}
	cmmn.SetupEntities(st)
	st.Helices = []cmmn.Helix{{Start: rid(2, "ALA"), End: rid(4, "GLY"), Class: cmmn.HelixRightAlpha, Length: 3}}
	st.Sheets = nil
	if f.change != nil {
		f.change(st)
	}
	var buf bytes.Buffer
	err = mmcif.WriteStructure(&buf, st, mmcif.NewOutputGroups(true))
	return buf.Bytes(), err
}

func TestApply(t *testing.T) {
	st := readSmall(t)
	remarks := append([]string(nil), st.RawRemarks...)
	f := &fake{}
	report, err := dssp.Apply(context.Background(), st, f, dssp.DefaultOptions())
	require.NoError(t, err)

	sent := string(f.sent)
	assert.Contains(t, sent, "HEADER")
	assert.Contains(t, sent, "ATOM      2  CA  MET A   1")
	for _, rec := range []string{"REMARK", "SEQRES", "SSBOND", "CISPEP", "\nEND "} {
		assert.NotContains(t, sent, rec)
	}
	assert.Equal(t, remarks, st.RawRemarks)

	require.Len(t, st.Helices, 1)
	assert.Equal(t, rid(2, "ALA"), st.Helices[0].Start)
	assert.Equal(t, rid(4, "GLY"), st.Helices[0].End)
	assert.Empty(t, st.Sheets, "old sheets must not survive")

	require.NotNil(t, report)
	assert.True(t, report.OK(), report.Problems)
	assert.NoError(t, report.Err())
	assert.Equal(t, 1, report.Chains)
	assert.Equal(t, 4, report.Residues)
	assert.Equal(t, 4, report.CA)
	assert.Equal(t, 1, report.Helices)
	assert.Less(t, report.MaxShift, dssp.DefaultTolerance)
}

func TestNoSense(t *testing.T) {
	st := readSmall(t)
	f := &fake{change: func(s *cmmn.Structure) {
		s.Sheets = []cmmn.Sheet{{Name: "A", Strands: []cmmn.Strand{
			{Start: rid(1, "MET"), End: rid(2, "ALA")},
			{Start: rid(3, "CYS"), End: rid(4, "GLY")},
		}}}
	}}
	report, err := dssp.Apply(context.Background(), st, f, dssp.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.NoSense)
	assert.Equal(t, 2, report.Strands)
	require.Len(t, st.Sheets, 1)
	assert.Equal(t, cmmn.SenseFirst, st.Sheets[0].Strands[1].Sense)
}

func moveCA(s *cmmn.Structure) {
	s.Models[0].Chains[0].Residues[1].Atoms[0].Pos.X += 1
}

func TestDisagreement(t *testing.T) {
	for _, tc := range []struct {
		policy  dssp.Policy
		wantErr bool
	}{
		{dssp.PolicyError, true},
		{dssp.PolicyWarn, false},
		{dssp.PolicyOff, false},
	} {
		st, want := readSmall(t), readSmall(t)
		opts := dssp.DefaultOptions()
		opts.Policy = tc.policy
		report, err := dssp.Apply(context.Background(), st, &fake{change: moveCA}, opts)
		if tc.wantErr {
			assert.ErrorIs(t, err, dssp.ErrDisagreement)
			if diff := cmp.Diff(want, st); diff != "" {
				t.Errorf("structure changed after failure:\n%s", diff)
			}
			continue
		}
		require.NoError(t, err, tc.policy)
		assert.Equal(t, 2, st.Helices[0].Start.SeqID.Num, tc.policy)
		if tc.policy == dssp.PolicyOff {
			assert.Nil(t, report)
			continue
		}
		require.NotNil(t, report)
		assert.False(t, report.OK())
		assert.InDelta(t, 1.0, report.MaxShift, 0.001)
	}
}

func TestCompare(t *testing.T) {
	st := readSmall(t)
	other := readSmall(t)
	assert.True(t, dssp.Compare(st, other, dssp.DefaultTolerance).OK())

	other.Models[0].Chains[0].Residues[2].Name = "SER"
	r := dssp.Compare(st, other, dssp.DefaultTolerance)
	assert.False(t, r.OK())
	assert.ErrorIs(t, r.Err(), dssp.ErrDisagreement)

	other = readSmall(t)
	other.Models[0].Chains[0].Name = "B"
	assert.False(t, dssp.Compare(st, other, dssp.DefaultTolerance).OK())

	other = readSmall(t)
	ch := &other.Models[0].Chains[0]
	ch.Residues = append(ch.Residues[:1:1], ch.Residues[2:]...)
	assert.False(t, dssp.Compare(st, other, dssp.DefaultTolerance).OK())

	assert.False(t, dssp.Compare(st, cmmn.New("x"), dssp.DefaultTolerance).OK())
}

func TestAnnotatorFails(t *testing.T) {
	for _, a := range []dssp.Annotator{
		dssp.AnnotatorFunc(func(ctx context.Context, b []byte) ([]byte, error) {
			return nil, errors.New("boom")
		}),
		dssp.AnnotatorFunc(func(ctx context.Context, b []byte) ([]byte, error) {
			return []byte("not mmcif at all\n"), nil
		}),
		dssp.AnnotatorFunc(func(ctx context.Context, b []byte) ([]byte, error) {
			return []byte("data_x\n_entry.id x\n"), nil
		}),
	} {
		st, want := readSmall(t), readSmall(t)
		_, err := dssp.Apply(context.Background(), st, a, dssp.DefaultOptions())
		assert.Error(t, err)
		if diff := cmp.Diff(want, st); diff != "" {
			t.Errorf("structure changed after failure:\n%s", diff)
		}
	}
}

// Long chain names cannot go to pdb, so we never get to the annotator.
func TestUnwritable(t *testing.T) {
	st := readSmall(t)
	st.Models[0].Chains[0].Name = "AB"
	f := &fake{}
	_, err := dssp.Apply(context.Background(), st, f, dssp.DefaultOptions())
	assert.ErrorIs(t, err, oldfmt.ErrLongChainName)
	assert.Nil(t, f.sent)
	assert.NotEmpty(t, st.RawRemarks)
}

func TestParsePolicy(t *testing.T) {
	for s, want := range map[string]dssp.Policy{
		"off": dssp.PolicyOff, "WARN": dssp.PolicyWarn, " error ": dssp.PolicyError,
	} {
		p, err := dssp.ParsePolicy(s)
		assert.NoError(t, err)
		assert.Equal(t, want, p)
	}
	_, err := dssp.ParsePolicy("sometimes")
	assert.ErrorIs(t, err, dssp.ErrBadPolicy)
	assert.Equal(t, "warn", dssp.PolicyWarn.String())
}

func TestArgs(t *testing.T) {
	m := dssp.NewMkDSSP()
	assert.Equal(t, []string{"--output-format", "mmcif", "--min-pp-helix-length", "3",
		"--calculate-accessibility", "in", "out"}, m.Args("in", "out"))
	m.Accessibility = false
	m.MinHelixLength = 0
	m.ExtraArgs = []string{"--verbose"}
	assert.Equal(t, []string{"--output-format", "mmcif", "--verbose", "in", "out"}, m.Args("in", "out"))
}

// script writes a shell script standing in for mkdssp
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	name := filepath.Join(t.TempDir(), "mkdssp")
	require.NoError(t, os.WriteFile(name, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return name
}

func TestMkDSSP(t *testing.T) {
	cif, err := filepath.Abs("../mmcif/testdata/small.cif")
	require.NoError(t, err)
	m := dssp.NewMkDSSP()
	m.Path = script(t, `for a; do out="$a"; done; cp "`+cif+`" "$out"`)
	got, err := m.Annotate(context.Background(), []byte("ATOM\n"))
	require.NoError(t, err)
	want, err := os.ReadFile(cif)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMkDSSPFails(t *testing.T) {
	m := dssp.NewMkDSSP()
	m.Path = script(t, "echo bad input file >&2; exit 3")
	_, err := m.Annotate(context.Background(), []byte("ATOM\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input file")

	m.Path = script(t, "exit 0")
	_, err = m.Annotate(context.Background(), nil)
	assert.Error(t, err)

	m.Path = script(t, "exec sleep 10")
	m.Timeout = 50 * time.Millisecond
	_, err = m.Annotate(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	m.Path = filepath.Join(t.TempDir(), "no_such_program")
	_, err = m.Annotate(context.Background(), nil)
	assert.Error(t, err)
}

// Shifts well below a thousandth of an Ångström far from the origin must
// still be seen.
func TestComparePrecision(t *testing.T) {
	st, other := readSmall(t), readSmall(t)
	st.Models[0].Chains[0].Residues[1].Atoms[0].Pos.X = 12345.6785
	other.Models[0].Chains[0].Residues[1].Atoms[0].Pos.X = 12345.6789
	r := dssp.Compare(st, other, 0.0001)
	assert.False(t, r.OK())
	assert.InDelta(t, 0.0004, r.MaxShift, 1e-9)
	assert.True(t, dssp.Compare(st, other, 0.001).OK())
}
