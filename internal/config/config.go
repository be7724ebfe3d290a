package config

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/hooktrace/gen"
)

const (
	// FileName is the configuration file name looked up next to the hook
	// source, without extension.
	FileName = "hookgen"
	// EnvPrefix prefixes the environment overrides, e.g. HOOKGEN_DEBUG.
	EnvPrefix = "HOOKGEN"
)

// ErrInvalidConfig reports a configuration value hookgen cannot use.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the effective hookgen configuration.
type Config struct {
	Debug            bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
	Force            bool   `json:"force" yaml:"force" mapstructure:"force"`
	Header           string `json:"header" yaml:"header" mapstructure:"header"`
	TrampolinePrefix string `json:"trampolinePrefix" yaml:"trampolinePrefix" mapstructure:"trampolinePrefix"`
	RuntimeImport    string `json:"runtimeImport" yaml:"runtimeImport" mapstructure:"runtimeImport"`
	OutSuffix        string `json:"outSuffix" yaml:"outSuffix" mapstructure:"outSuffix"`
}

// Options locate the configuration sources.
type Options struct {
	// Flags are bound by name; only flags set on the command line win over
	// the file and the environment.
	Flags *pflag.FlagSet
	// File is an explicit configuration file. It must exist.
	File string
	// Dir is searched for hookgen.yaml when File is empty. A missing file is
	// not an error.
	Dir string
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(defaultConfig), cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode the default config")
	}
	return cfg, nil
}

// Load resolves the configuration from defaults, file, environment and flags,
// in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	defaults := map[string]any{}
	if err := yaml.Unmarshal([]byte(defaultConfig), &defaults); err != nil {
		return nil, errors.Wrap(err, "failed to decode the default config")
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, errors.Wrap(err, "failed to bind flags to config")
		}
	}

	switch {
	case opts.File != "":
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", opts.File)
		}
	case opts.Dir != "":
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(opts.Dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrapf(err, "failed to read %s.yaml in %s", FileName, opts.Dir)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal the config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var cIdentPrefix = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate rejects values the generator cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Header == "":
		return errors.Wrap(ErrInvalidConfig, "header must not be empty")
	case !cIdentPrefix.MatchString(c.TrampolinePrefix):
		return errors.Wrapf(ErrInvalidConfig, "trampolinePrefix %q is not a C identifier", c.TrampolinePrefix)
	case c.RuntimeImport == "":
		return errors.Wrap(ErrInvalidConfig, "runtimeImport must not be empty")
	case c.OutSuffix == "" || strings.ContainsAny(c.OutSuffix, `/\`):
		return errors.Wrapf(ErrInvalidConfig, "outSuffix %q must be a non-empty file name suffix", c.OutSuffix)
	}
	return nil
}

// EmitOptions maps the configuration onto the emitter options.
func (c *Config) EmitOptions() gen.EmitOptions {
	return gen.EmitOptions{
		Tool:             c.Header,
		TrampolinePrefix: c.TrampolinePrefix,
		RuntimeImport:    c.RuntimeImport,
	}
}

// Write renders c as a hookgen.yaml document.
func (c *Config) Write(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "failed to write config")
}
