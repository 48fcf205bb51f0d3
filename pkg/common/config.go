package common

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFlag = "config"
	envPrefix  = "DSSPCONV"
)

// DefaultConfigPath is looked at if there is no --config flag. It is
// fine for it not to exist.
const DefaultConfigPath = "./dsspconv.yml"

// Config is everything the programs can be told. Keys in the yaml file
// and environment follow the mapstructure names, so mkdssp.path can be
// set with DSSPCONV_MKDSSP_PATH.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Check    string `mapstructure:"check"`
	Minimal  bool   `mapstructure:"minimal"`
	MkDSSP   struct {
		Path           string        `mapstructure:"path"`
		MinHelixLength int           `mapstructure:"min_helix_length"`
		Accessibility  bool          `mapstructure:"accessibility"`
		Timeout        time.Duration `mapstructure:"timeout"`
	} `mapstructure:"mkdssp"`
	Metadata struct {
		Keywords string `mapstructure:"keywords"`
		Title    string `mapstructure:"title"`
	} `mapstructure:"metadata"`
}

// DefaultConfig is the starting point before the config file,
// environment and flags are looked at.
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"log_level":               "info",
		"check":                   "warn",
		"minimal":                 false,
		"mkdssp.path":             "mkdssp",
		"mkdssp.min_helix_length": 3,
		"mkdssp.accessibility":    true,
		"mkdssp.timeout":          "5m",
		"metadata.keywords":       "PROTEIN",
		"metadata.title":          "QM/MM Refinement using DivCon Suite vXXX",
	}
}

// flagKeys maps flag names to config keys where they differ
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"mkdssp":        "mkdssp.path",
	"min-helix":     "mkdssp.min_helix_length",
	"accessibility": "mkdssp.accessibility",
	"timeout":       "mkdssp.timeout",
	"keywords":      "metadata.keywords",
	"title":         "metadata.title",
}

// InitializeConfig parses args with fs and fills target.
// Precedence, lowest first: defaults, the yaml config file, environment
// variables (DSSPCONV_...), flags that were set. If --config is given,
// the file must exist. Otherwise defaultPath is tried quietly.
// The log level is set from log_level. Positional arguments are left in
// fs.Args().
func InitializeConfig(fs *pflag.FlagSet, args []string, defaultPath string,
	defaults map[string]interface{}, target interface{}) error {
	if fs.Lookup(configFlag) == nil {
		fs.String(configFlag, defaultPath, "The config file path.")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == configFlag || err != nil {
			return
		}
		key := f.Name
		if k, ok := flagKeys[key]; ok {
			key = k
		}
		err = v.BindPFlag(key, f)
	})
	if err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile, _ := fs.GetString(configFlag)
	if err := readConfigFile(v, configFile, fs.Changed(configFlag)); err != nil {
		return err
	}

	if err := v.Unmarshal(target); err != nil {
		return err
	}
	lvl, err := zerolog.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func readConfigFile(v *viper.Viper, configFile string, must bool) error {
	if configFile == "" {
		return nil
	}
	if must {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		return nil
	}
	if !filepath.IsAbs(configFile) {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return err
		}
		configFile = abs
	}
	v.SetConfigName(strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile)))
	v.AddConfigPath(filepath.Dir(configFile))
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Debug().Err(err).Msg("default settings applied")
		return nil
	}
	return err
}

// SetupLogger sends log messages to w in human readable form.
func SetupLogger(w io.Writer) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}
