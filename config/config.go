// Package config loads the optional handlekit.yaml configuration.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/handlekit/disposal"
	"github.com/wippyai/handlekit/engine"
	"github.com/wippyai/handlekit/errors"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "handlekit.yaml"

// DefaultGuestName is the guest instance name used outside a Go module.
const DefaultGuestName = "handlekit-guest"

// Config represents the optional handlekit.yaml configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Engine   EngineConfig   `yaml:"engine"`
	Disposal DisposalConfig `yaml:"disposal"`
}

// LogConfig selects the zap logger built for the CLI.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Encoding    string `yaml:"encoding,omitempty"`
	Development bool   `yaml:"development,omitempty"`
}

// EngineConfig contains guest library settings.
type EngineConfig struct {
	Name             string `yaml:"name,omitempty"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages,omitempty"`
}

// DisposalConfig contains scheduler settings.
type DisposalConfig struct {
	// DrainOnInstall binds the scheduler to the lifecycle. Defaults to true.
	DrainOnInstall *bool `yaml:"drain_on_install,omitempty"`
	MaxBatch       int   `yaml:"max_batch,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Encoding: "console"},
	}
}

// Load reads the configuration at path. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Detail("read %s", path).Cause(err).Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ParseFailed(FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional reads handlekit.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Resolve loads handlekit.yaml from dir if present and fills in defaults.
// An unset engine name is derived from the enclosing Go module's path.
func Resolve(dir string) (*Config, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults(dir)
	return cfg, nil
}

// ApplyDefaults fills fields that depend on the working directory.
func (c *Config) ApplyDefaults(dir string) {
	c.Engine.Name = strings.TrimSpace(c.Engine.Name)
	if c.Engine.Name == "" {
		c.Engine.Name = defaultGuestName(dir)
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Log.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
			return errors.InvalidInput(errors.PhaseConfig, "log.level: "+err.Error())
		}
	}
	switch c.Log.Encoding {
	case "", "console", "json":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "log.encoding must be console or json")
	}
	if c.Disposal.MaxBatch < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "disposal.max_batch must not be negative")
	}
	return nil
}

// Build creates the logger described by the configuration.
func (l LogConfig) Build() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if l.Level != "" {
		level, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, errors.InvalidInput(errors.PhaseConfig, "log.level: "+err.Error())
		}
		zc.Level = level
	}
	if l.Encoding != "" {
		zc.Encoding = l.Encoding
	}
	return zc.Build()
}

// Library returns the engine configuration.
func (e EngineConfig) Library() *engine.Config {
	return &engine.Config{
		Name:             e.Name,
		MemoryLimitPages: e.MemoryLimitPages,
	}
}

// BindOnInstall reports whether the scheduler should drain on install.
func (d DisposalConfig) BindOnInstall() bool {
	return d.DrainOnInstall == nil || *d.DrainOnInstall
}

// Options returns scheduler options.
func (d DisposalConfig) Options() []disposal.Option {
	var opts []disposal.Option
	if d.MaxBatch > 0 {
		opts = append(opts, disposal.WithMaxBatch(d.MaxBatch))
	}
	return opts
}

func defaultGuestName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return DefaultGuestName
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return DefaultGuestName
	}
	prefix, _, ok := module.SplitPathVersion(path)
	if !ok {
		prefix = path
	}
	parts := strings.Split(prefix, "/")
	if last := parts[len(parts)-1]; last != "" {
		return last + "-guest"
	}
	return DefaultGuestName
}
