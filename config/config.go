package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const ErrCodeInvalidConfig = "CONFIG_INVALID"

// Config holds everything the nodegraph command needs to talk to the
// engine. Durations are strings such as "5s" so YAML and TOML files read
// the same.
type Config struct {
	Engine  EngineConfig  `yaml:"engine" toml:"engine"`
	Catalog CatalogConfig `yaml:"catalog" toml:"catalog"`
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Refresh RefreshConfig `yaml:"refresh" toml:"refresh"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

type EngineConfig struct {
	// Dir holds the engine binaries.
	Dir            string `yaml:"dir" toml:"dir"`
	Executable     string `yaml:"executable" toml:"executable"`
	Args           string `yaml:"args" toml:"args"`
	Address        string `yaml:"address" toml:"address"`
	// Launch starts the engine from Dir before watch and export run.
	Launch         bool   `yaml:"launch" toml:"launch"`
	FixPermissions bool   `yaml:"fix_permissions" toml:"fix_permissions"`
}

type CatalogConfig struct {
	Path              string `yaml:"path" toml:"path"`
	VersionConstraint string `yaml:"version_constraint" toml:"version_constraint"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
	// Connect asks a running engine to load each export over TCP.
	Connect bool   `yaml:"connect" toml:"connect"`
	Retries int    `yaml:"retries" toml:"retries"`
	Timeout string `yaml:"timeout" toml:"timeout"`
	Backoff string `yaml:"backoff" toml:"backoff"`
}

type RefreshConfig struct {
	// Schedule is a cron expression; empty disables periodic refresh.
	Schedule string `yaml:"schedule" toml:"schedule"`
	Watch    bool   `yaml:"watch" toml:"watch"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			Executable: "nrg_launcher",
			Args:       `"-plugin nrg_connector" "-plugin nrg_viewer"`,
			Address:    "127.0.0.1:1983",
		},
		Catalog: CatalogConfig{
			Path: "~/.nodegraph/nodes.json",
		},
		Export: ExportConfig{
			Dir:     "~/.nodegraph/exports",
			Retries: 3,
			Timeout: "5s",
			Backoff: "200ms",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml is TOML, anything else YAML. Paths are expanded and the result is
// validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, errors.CategoryBadInput, "cannot read config").
			WithTextCode(ErrCodeInvalidConfig).
			WithMetadata(map[string]any{"path": path})
	}
	if err := Decode(data, formatOf(path), &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Expand(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode unmarshals data in format ("yaml" or "toml") into cfg.
func Decode(data []byte, format string, cfg *Config) error {
	var err error
	switch format {
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "cannot decode "+format+" config").
			WithTextCode(ErrCodeInvalidConfig)
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	}
	return "yaml"
}

// ExportTimeout is the per attempt submit timeout; zero when unset.
func (c Config) ExportTimeout() time.Duration {
	d, _ := parseDuration(c.Export.Timeout)
	return d
}

// ExportBackoff is the base retry delay; zero when unset.
func (c Config) ExportBackoff() time.Duration {
	d, _ := parseDuration(c.Export.Backoff)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
