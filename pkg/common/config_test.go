package common_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/andrew-torda/dsspconv/pkg/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("check", "warn", "")
	fs.String("mkdssp", "mkdssp", "")
	fs.Duration("timeout", 0, "")
	fs.Bool("minimal", false, "")
	return fs
}

func writeYaml(t *testing.T, m map[string]interface{}) string {
	t.Helper()
	b, err := yaml.Marshal(m)
	require.NoError(t, err)
	name := filepath.Join(t.TempDir(), "conf.yml")
	require.NoError(t, os.WriteFile(name, b, 0644))
	return name
}

func TestDefaults(t *testing.T) {
	var c Config
	fs := newFlags()
	err := InitializeConfig(fs, []string{"a.pdb"}, "", DefaultConfig(), &c)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Check)
	assert.Equal(t, "mkdssp", c.MkDSSP.Path)
	assert.Equal(t, 3, c.MkDSSP.MinHelixLength)
	assert.True(t, c.MkDSSP.Accessibility)
	assert.Equal(t, 5*time.Minute, c.MkDSSP.Timeout)
	assert.Equal(t, "PROTEIN", c.Metadata.Keywords)
	assert.False(t, c.Minimal)
	assert.Equal(t, []string{"a.pdb"}, fs.Args())
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

// File, then environment, then flags
func TestPrecedence(t *testing.T) {
	conf := writeYaml(t, map[string]interface{}{
		"check":     "error",
		"log_level": "debug",
		"mkdssp": map[string]interface{}{
			"path":    "/opt/dssp/bin/mkdssp",
			"timeout": "30s",
		},
		"metadata": map[string]interface{}{"title": "from the file"},
	})
	var c Config
	require.NoError(t, InitializeConfig(newFlags(), []string{"--config", conf}, "", DefaultConfig(), &c))
	assert.Equal(t, "error", c.Check)
	assert.Equal(t, "/opt/dssp/bin/mkdssp", c.MkDSSP.Path)
	assert.Equal(t, 30*time.Second, c.MkDSSP.Timeout)
	assert.Equal(t, "from the file", c.Metadata.Title)
	assert.Equal(t, "PROTEIN", c.Metadata.Keywords)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	t.Setenv("DSSPCONV_CHECK", "off")
	t.Setenv("DSSPCONV_MKDSSP_PATH", "/env/mkdssp")
	c = Config{}
	require.NoError(t, InitializeConfig(newFlags(), []string{"--config=" + conf}, "", DefaultConfig(), &c))
	assert.Equal(t, "off", c.Check)
	assert.Equal(t, "/env/mkdssp", c.MkDSSP.Path)

	c = Config{}
	args := []string{"--config", conf, "--check", "warn", "--timeout", "1s", "--minimal", "x.pdb", "y.cif"}
	fs := newFlags()
	require.NoError(t, InitializeConfig(fs, args, "", DefaultConfig(), &c))
	assert.Equal(t, "warn", c.Check)
	assert.Equal(t, time.Second, c.MkDSSP.Timeout)
	assert.True(t, c.Minimal)
	assert.Equal(t, "/env/mkdssp", c.MkDSSP.Path)
	assert.Equal(t, []string{"x.pdb", "y.cif"}, fs.Args())
}

func TestConfigErrors(t *testing.T) {
	var c Config
	err := InitializeConfig(newFlags(), []string{"--config", "/does/not/exist.yml"}, "", DefaultConfig(), &c)
	assert.Error(t, err, "explicit config file must exist")

	err = InitializeConfig(newFlags(), nil, "/does/not/exist.yml", DefaultConfig(), &c)
	assert.NoError(t, err, "missing default config file is fine")

	err = InitializeConfig(newFlags(), []string{"--no-such-flag"}, "", DefaultConfig(), &c)
	assert.Error(t, err)

	bad := writeYaml(t, map[string]interface{}{"log_level": "loud"})
	err = InitializeConfig(newFlags(), []string{"--config", bad}, "", DefaultConfig(), &c)
	assert.Error(t, err)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	saved := log.Logger
	defer func() { log.Logger = saved }()
	SetupLogger(&buf)
	log.Warn().Str("file", "x.pdb").Msg("hello")
	s := buf.String()
	assert.Contains(t, s, "hello")
	assert.Contains(t, s, "file=x.pdb")
	assert.False(t, strings.HasPrefix(s, "{"), "want console format, not json")
}

func TestWrtTemp(t *testing.T) {
	name, err := WrtTemp("some text", ".pdb")
	require.NoError(t, err)
	defer os.Remove(name)
	assert.True(t, strings.HasSuffix(name, ".pdb"))
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "some text", string(b))
}
