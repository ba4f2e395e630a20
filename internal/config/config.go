// Package config loads runtime settings from defaults, an optional YAML
// file and ATOMDB_* environment variables. Command-line flags are applied
// on top by the caller.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/leengari/atomdb/internal/logging"
	"github.com/leengari/atomdb/internal/storage"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "ATOMDB"

const (
	ModeCLI    = "cli"
	ModeServer = "server"
	ModeBoth   = "both"
)

type Config struct {
	Mode        string        `yaml:"mode"`
	Storage     StorageConfig `yaml:"storage"`
	Server      ServerConfig  `yaml:"server"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Log         LogConfig     `yaml:"log"`
	SeedDemo    bool          `yaml:"seed_demo" split_words:"true"`
	HistoryFile string        `yaml:"history_file" split_words:"true"`
}

type StorageConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`      // binary or json
	Compression string `yaml:"compression"` // none or zstd
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	Advertise bool   `yaml:"advertise"` // announce over mDNS
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

type LogConfig struct {
	Level  string `yaml:"level"`
	SeqURL string `yaml:"seq_url" split_words:"true"` // empty disables Seq
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Mode: ModeCLI,
		Storage: StorageConfig{
			Path:        "database.bin",
			Format:      storage.FormatBinary,
			Compression: storage.CompressionNone,
		},
		Server: ServerConfig{
			Addr: "0.0.0.0:6969",
		},
		Log: LogConfig{
			Level: "info",
		},
		SeedDemo: true,
	}
}

// Load applies the YAML file at path (skipped when path is empty) and
// then the environment to the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := readConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := readConfigEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening config file %v: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("error decoding config file %v: %w", path, err)
	}
	return nil
}

// readConfigEnv maps ATOMDB_<SECTION>_<FIELD> onto the struct.
// Fields must not carry envconfig tags: a tagged name is also looked up
// without the prefix, where names like PATH collide.
func readConfigEnv(cfg *Config) error {
	return envconfig.Process(EnvPrefix, cfg)
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeCLI, ModeServer, ModeBoth:
	default:
		errs = append(errs, fmt.Errorf("mode must be cli, server or both, got %q", c.Mode))
	}

	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path must not be empty"))
	}
	if _, err := storage.NewCodec(c.Storage.Format, c.Storage.Compression); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if c.Mode != ModeCLI {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.addr: %w", err))
		}
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.addr: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ServesTCP reports whether the TCP front end should run
func (c *Config) ServesTCP() bool {
	return c.Mode == ModeServer || c.Mode == ModeBoth
}

// RunsShell reports whether the interactive shell should run
func (c *Config) RunsShell() bool {
	return c.Mode == ModeCLI || c.Mode == ModeBoth
}
