package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Report rendering: markdown|json|yaml|xlsx
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// HTTP server
	ListenAddr      string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Drop-folder watcher; empty writes reports next to the dropped file
	WatchOutputDir string `mapstructure:"watch_output_dir" yaml:"watch_output_dir"`
}

const (
	DefaultMaxUploadBytes = 10 << 20
	envPrefix             = "SAMPLESCOPE"
	dirName               = ".samplescope"
)

var (
	outputFormats = []string{"markdown", "json", "yaml", "xlsx"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"console", "json"}
)

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		OutputFormat:    "markdown",
		ListenAddr:      ":8080",
		MaxUploadBytes:  DefaultMaxUploadBytes,
		ReadTimeoutSec:  30,
		WriteTimeoutSec: 60,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Validate rejects unknown formats and non-positive limits.
func (c *Global) Validate() error {
	if !oneOf(c.OutputFormat, outputFormats) {
		return fmt.Errorf("invalid output_format: %s (use %s)", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	if !oneOf(c.LogLevel, logLevels) {
		return fmt.Errorf("invalid log_level: %s (use %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !oneOf(c.LogFormat, logFormats) {
		return fmt.Errorf("invalid log_format: %s (use %s)", c.LogFormat, strings.Join(logFormats, ", "))
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ReadTimeoutSec <= 0 || c.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	return nil
}

// Set assigns a single key from its string form, as used by `config set`.
func (c *Global) Set(key, val string) error {
	switch key {
	case "output_format":
		c.OutputFormat = strings.ToLower(val)
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_bytes":
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for max_upload_bytes: %w", err)
		}
		c.MaxUploadBytes = n
	case "read_timeout_sec":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for read_timeout_sec: %w", err)
		}
		c.ReadTimeoutSec = n
	case "write_timeout_sec":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for write_timeout_sec: %w", err)
		}
		c.WriteTimeoutSec = n
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	case "watch_output_dir":
		c.WatchOutputDir = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.samplescope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("read_timeout_sec", d.ReadTimeoutSec)
	v.SetDefault("write_timeout_sec", d.WriteTimeoutSec)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("watch_output_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
