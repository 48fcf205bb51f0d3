package convert_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrew-torda/dsspconv/pdb"
	. "github.com/andrew-torda/dsspconv/pkg/common"
	"github.com/andrew-torda/dsspconv/pkg/convert"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallPDB = "../../pdb/oldfmt/testdata/small.pdb"

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	fs := pflag.NewFlagSet("pdbconvert", pflag.ContinueOnError)
	fs.SetOutput(&stderr)
	fs.Bool("minimal", false, "")
	code := convert.MyMain(fs, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"a.pdb"}, {"a.pdb", "b.pdb", "c.pdb"}} {
		code, stdout, stderr := run(args...)
		assert.Equal(t, ExitFailure, code, args)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "Usage: pdbconvert")
	}
	code, _, _ := run("--bad-flag", "a.pdb", "b.pdb")
	assert.Equal(t, ExitFailure, code)
}

func TestUnsupported(t *testing.T) {
	dir := t.TempDir()
	for _, out := range []string{"out.txt", "out", "out.pdb.bak"} {
		code, stdout, stderr := run(smallPDB, filepath.Join(dir, out))
		assert.Equal(t, ExitFailure, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "Unsupported output format. Use .pdb or .cif")
	}
	assertEmptyDir(t, dir)
}

func TestBadInput(t *testing.T) {
	dir := t.TempDir()
	code, stdout, _ := run("/does/not/exist.pdb", filepath.Join(dir, "out.pdb"))
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)

	junk, err := WrtTemp("this is not\na structure\n", ".pdb")
	require.NoError(t, err)
	defer os.Remove(junk)
	code, _, _ = run(junk, filepath.Join(dir, "out.cif"))
	assert.Equal(t, ExitFailure, code)
	assertEmptyDir(t, dir)
}

func TestConvert(t *testing.T) {
	in, err := pdb.ReadStructure(smallPDB)
	require.NoError(t, err)
	dir := t.TempDir()
	for _, tc := range []struct{ name, kind string }{
		{"out.pdb", "PDB"}, {"out.cif", "mmCIF"}, {"out.cif.gz", "mmCIF"},
	} {
		out := filepath.Join(dir, tc.name)
		code, stdout, stderr := run(smallPDB, out)
		require.Equal(t, ExitSuccess, code, stderr)
		assert.Equal(t, "Wrote "+tc.kind+" → "+out+"\n", stdout)
		st, err := pdb.ReadStructure(out)
		require.NoError(t, err, tc.name)
		assert.Equal(t, in.Count(), st.Count(), tc.name)
		assert.Equal(t, len(in.Helices), len(st.Helices), tc.name)
	}
}

func TestMinimal(t *testing.T) {
	dir := t.TempDir()
	full, minimal := filepath.Join(dir, "full.pdb"), filepath.Join(dir, "min.pdb")
	code, _, _ := run(smallPDB, full)
	require.Equal(t, ExitSuccess, code)
	code, _, _ = run("--minimal", smallPDB, minimal)
	require.Equal(t, ExitSuccess, code)

	b, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "HEADER"))
	b, err = os.ReadFile(minimal)
	require.NoError(t, err)
	for _, rec := range []string{"HEADER", "TITLE", "REMARK"} {
		assert.NotContains(t, string(b), rec)
	}
	assert.Contains(t, string(b), "SEQRES")
}
