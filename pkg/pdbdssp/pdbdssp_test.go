package pdbdssp_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrew-torda/dsspconv/pdb"
	"github.com/andrew-torda/dsspconv/pdb/cmmn"
	"github.com/andrew-torda/dsspconv/pdb/dssp"
	"github.com/andrew-torda/dsspconv/pdb/mmcif"
	"github.com/andrew-torda/dsspconv/pdb/oldfmt"
	. "github.com/andrew-torda/dsspconv/pkg/common"
	"github.com/andrew-torda/dsspconv/pkg/pdbdssp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	smallPDB = "../../pdb/oldfmt/testdata/small.pdb"
	threePDB = "../../pdb/oldfmt/testdata/three.pdb"
)

// annotator acts like mkdssp, finding one helix from the second to the
// last residue of each chain. shift moves the first CA of chain one so
// the check has something to complain about.
func annotator(shift float64) dssp.Annotator {
	return dssp.AnnotatorFunc(func(ctx context.Context, b []byte) ([]byte, error) {
		st, err := oldfmt.Read(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		cmmn.SetupEntities(st)
		st.Models[0].Chains[0].Residues[1].Atoms[0].Pos.X += shift
		st.Helices = nil
		for i := range st.Models[0].Chains {
			ch := &st.Models[0].Chains[i]
			p := ch.Polymer()
			if len(p) < 3 {
				continue
			}
			first, last := p[1], p[len(p)-1]
			st.Helices = append(st.Helices, cmmn.Helix{
				Start:  cmmn.ResidueID{Chain: ch.Name, SeqID: first.SeqID, Name: first.Name},
				End:    cmmn.ResidueID{Chain: ch.Name, SeqID: last.SeqID, Name: last.Name},
				Class:  cmmn.HelixRightAlpha,
				Length: len(p) - 1,
			})
		}
		st.Sheets = nil
		var buf bytes.Buffer
		err = mmcif.WriteStructure(&buf, st, mmcif.NewOutputGroups(true))
		return buf.Bytes(), err
	})
}

var failing = dssp.AnnotatorFunc(func(ctx context.Context, b []byte) ([]byte, error) {
	return nil, errors.New("mkdssp exploded")
})

// input copies the test structure to a temporary directory, leaving out
// records that start with any of drop.
func input(t *testing.T, name string, drop ...string) string {
	t.Helper()
	return inputFrom(t, smallPDB, name, drop...)
}

func inputFrom(t *testing.T, src, name string, drop ...string) string {
	t.Helper()
	b, err := os.ReadFile(src)
	require.NoError(t, err)
	var keep []string
lines:
	for _, l := range strings.SplitAfter(string(b), "\n") {
		for _, d := range drop {
			if strings.HasPrefix(l, d) {
				continue lines
			}
		}
		keep = append(keep, l)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(keep, "")), 0644))
	return path
}

// flags are the ones the command sets up
func flags(stdout io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pdbdssp", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.String("check", "warn", "")
	fs.String("mkdssp", "mkdssp", "")
	fs.String("keywords", "", "")
	fs.String("title", "", "")
	return fs
}

func run(a dssp.Annotator, args ...string) (int, string) {
	var stdout, stderr bytes.Buffer
	code := pdbdssp.MyMainWith(flags(&stdout), args, &stdout, &stderr, a)
	return code, stdout.String()
}

func assertOnlyInput(t *testing.T, in string) {
	t.Helper()
	entries, err := os.ReadDir(filepath.Dir(in))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(in), entries[0].Name())
}

func TestUsage(t *testing.T) {
	in := input(t, "4y5u.pdb")
	for _, args := range [][]string{nil, {in, in}} {
		code, stdout := run(annotator(0), args...)
		assert.Equal(t, ExitFailure, code)
		assert.Equal(t, "Usage: pdbdssp input.pdb\n", stdout)
	}
	assertOnlyInput(t, in)
}

func TestOutNames(t *testing.T) {
	p, c := pdbdssp.OutNames("dir/4y5u.pdb")
	assert.Equal(t, filepath.Join("dir", "4y5u-dssp.pdb"), p)
	assert.Equal(t, filepath.Join("dir", "4y5u-dssp.cif"), c)
	p, _ = pdbdssp.OutNames("1abc.ent.gz")
	assert.Equal(t, "1abc-dssp.pdb", p)
}

func TestPipeline(t *testing.T) {
	in := input(t, "4y5u.pdb")
	code, stdout := run(annotator(0), in)
	require.Equal(t, ExitSuccess, code, stdout)
	pdbOut, cifOut := pdbdssp.OutNames(in)
	assert.Equal(t, "Wrote "+pdbOut+"\nWrote "+cifOut+"\n", stdout)

	b, err := os.ReadFile(pdbOut)
	require.NoError(t, err)
	assert.Contains(t, string(b), "REMARK   2 RESOLUTION.")
	assert.Contains(t, string(b), "SEQRES   1 A    4  MET ALA CYS GLY")
	assert.NotContains(t, string(b), "SHEET")
	c, err := os.ReadFile(cifOut)
	require.NoError(t, err)
	assert.Contains(t, string(c), "_atom_site.auth_atom_id")

	for _, out := range []string{pdbOut, cifOut} {
		st, err := pdb.ReadStructure(out)
		require.NoError(t, err, out)
		assert.Equal(t, "PROTEIN", st.GetInfo(cmmn.InfoKeywords), out)
		assert.True(t, strings.HasPrefix(st.GetInfo(cmmn.InfoTitle), "A SMALL TEST PROTEIN"), out)
		require.Len(t, st.Helices, 1, out)
		assert.Equal(t, 2, st.Helices[0].Start.SeqID.Num, out)
		assert.Empty(t, st.Sheets, out)
	}
}

// No title and no SEQRES in the input
func TestFillIn(t *testing.T) {
	in := input(t, "bare.pdb", "TITLE", "SEQRES")
	code, stdout := run(annotator(0), in)
	require.Equal(t, ExitSuccess, code, stdout)
	pdbOut, _ := pdbdssp.OutNames(in)
	st, err := pdb.ReadStructure(pdbOut)
	require.NoError(t, err)
	assert.Equal(t, "QM/MM Refinement using DivCon Suite vXXX", st.GetInfo(cmmn.InfoTitle))
	require.NotEmpty(t, st.Entities)
	assert.Equal(t, []string{"MET", "ALA", "CYS", "GLY"}, st.Entities[0].FullSequence)
}

func TestFlags(t *testing.T) {
	in := input(t, "x.pdb", "TITLE")
	code, _ := run(annotator(0), "--title", "my title", "--keywords", "DNA", in)
	require.Equal(t, ExitSuccess, code)
	_, cifOut := pdbdssp.OutNames(in)
	st, err := pdb.ReadStructure(cifOut)
	require.NoError(t, err)
	assert.Equal(t, "my title", st.GetInfo(cmmn.InfoTitle))
	assert.Equal(t, "DNA", st.GetInfo(cmmn.InfoKeywords))
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name string
		a    dssp.Annotator
		args []string
	}{
		{"annotator fails", failing, nil},
		{"check error", annotator(2), []string{"--check", "error"}},
		{"bad check", annotator(0), []string{"--check", "maybe"}},
	}
	for _, tc := range tests {
		in := input(t, "in.pdb")
		code, stdout := run(tc.a, append(tc.args, in)...)
		assert.Equal(t, ExitFailure, code, tc.name)
		assert.NotEmpty(t, stdout, tc.name)
		assertOnlyInput(t, in)
	}
	code, _ := run(annotator(0), "/does/not/exist.pdb")
	assert.Equal(t, ExitFailure, code)

	in := input(t, "in.pdb")
	code, _ = run(annotator(2), "--check", "warn", in)
	assert.Equal(t, ExitSuccess, code)
}

// Chains A and B have the same SEQRES, C has none.
func TestThreeChains(t *testing.T) {
	in := inputFrom(t, threePDB, "3chn.pdb")
	code, stdout := run(annotator(0), "--check", "error", in)
	require.Equal(t, ExitSuccess, code, stdout)
	pdbOut, cifOut := pdbdssp.OutNames(in)

	b, err := os.ReadFile(pdbOut)
	require.NoError(t, err)
	for _, s := range []string{
		"SEQRES   1 A    4  MET ALA CYS GLY",
		"SEQRES   1 B    4  MET ALA CYS GLY",
		"SEQRES   1 C    3  GLY SER LYS",
	} {
		assert.Contains(t, string(b), s)
	}

	want := map[string][]string{
		"A": {"MET", "ALA", "CYS", "GLY"},
		"B": {"MET", "ALA", "CYS", "GLY"},
		"C": {"GLY", "SER", "LYS"},
	}
	var counts []cmmn.Counts
	for _, out := range []string{pdbOut, cifOut} {
		st, err := pdb.ReadStructure(out)
		require.NoError(t, err, out)
		cmmn.SetupEntities(st)
		counts = append(counts, st.Count())
		assert.Len(t, st.Entities, 3, out)
		npoly := 0
		for _, e := range st.Entities {
			if e.EntityType == cmmn.EntityPolymer {
				npoly++
			}
		}
		assert.Equal(t, 2, npoly, out)
		mdl := st.FirstModel()
		require.Len(t, mdl.Chains, 3, out)
		for i := range mdl.Chains {
			ch := &mdl.Chains[i]
			e := st.EntityOf(ch.Polymer())
			require.NotNil(t, e, "%s chain %s", out, ch.Name)
			assert.Equal(t, want[ch.Name], e.FullSequence, "%s chain %s", out, ch.Name)
		}
		assert.Same(t, st.EntityOf(mdl.Chains[0].Polymer()), st.EntityOf(mdl.Chains[1].Polymer()), out)
		require.Len(t, st.Helices, 3, out)
		for i, h := range st.Helices {
			assert.Equal(t, mdl.Chains[i].Name, h.Start.Chain, out)
		}
	}
	assert.Equal(t, counts[0], counts[1])
	assert.Equal(t, cmmn.Counts{Models: 1, Chains: 3, Residues: 12, Atoms: 12}, counts[0])
}

// A chain with a blank name has to come back blank from both outputs.
func TestBlankChain(t *testing.T) {
	fp, err := os.Open(smallPDB)
	require.NoError(t, err)
	st, err := oldfmt.Read(fp)
	fp.Close()
	require.NoError(t, err)
	blank := func(r *cmmn.ResidueID) { r.Chain = "" }
	st.Models[0].Chains[0].Name = ""
	for i := range st.Helices {
		blank(&st.Helices[i].Start)
		blank(&st.Helices[i].End)
	}
	st.Sheets, st.Connections, st.CisPeps = nil, nil, nil
	for i := range st.Entities {
		st.Entities[i].Name = ""
	}
	cmmn.SetupEntities(st)
	in := filepath.Join(t.TempDir(), "blank.pdb")
	var buf bytes.Buffer
	require.NoError(t, oldfmt.Write(&buf, st, oldfmt.DefaultWriteOptions()))
	require.Contains(t, buf.String(), "SEQRES   1      4  MET")
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0644))

	code, stdout := run(annotator(0), "--check", "error", in)
	require.Equal(t, ExitSuccess, code, stdout)
	pdbOut, cifOut := pdbdssp.OutNames(in)
	c, err := os.ReadFile(cifOut)
	require.NoError(t, err)
	assert.Contains(t, string(c), "''")
	for _, out := range []string{pdbOut, cifOut} {
		st2, err := pdb.ReadStructure(out)
		require.NoError(t, err, out)
		require.Len(t, st2.Models[0].Chains, 1, out)
		assert.Equal(t, "", st2.Models[0].Chains[0].Name, out)
		require.Len(t, st2.Helices, 1, out)
		assert.Equal(t, "", st2.Helices[0].Start.Chain, out)
		assert.Equal(t, 2, st2.Helices[0].Start.SeqID.Num, out)
	}
}
