package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/platform"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/security"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Scan            ScanConfig `yaml:"scan" mapstructure:"scan"`
	Strategy        string     `yaml:"strategy" mapstructure:"strategy"` // newest, oldest, keep-all, keep-none
	DryRun          bool       `yaml:"dry_run" mapstructure:"dry_run"`
	ExcludePatterns []string   `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
	ProtectedPaths  []string   `yaml:"protected_paths" mapstructure:"protected_paths"`
	Log             LogConfig  `yaml:"log" mapstructure:"log"`
}

// ScanConfig holds the engine settings
type ScanConfig struct {
	BufferSize    int    `yaml:"buffer_size" mapstructure:"buffer_size"` // bytes per read
	IncludeHidden bool   `yaml:"include_hidden" mapstructure:"include_hidden"`
	MinFileSize   string `yaml:"min_file_size" mapstructure:"min_file_size"` // e.g. "1B", "4KiB"
	MaxThreads    int    `yaml:"max_threads" mapstructure:"max_threads"`     // 0 uses every CPU
}

// LogConfig holds rotating log file settings
type LogConfig struct {
	Filename   string `yaml:"filename" mapstructure:"filename"`
	Level      string `yaml:"level" mapstructure:"level"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unset keys keep their defaults
	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scan.BufferSize <= 0 {
		return fmt.Errorf("scan buffer size must be > 0")
	}
	if c.Scan.MaxThreads < 0 {
		return fmt.Errorf("scan max threads must be >= 0")
	}
	if _, err := c.MinFileSizeBytes(); err != nil {
		return err
	}

	if _, err := scanner.ParseStrategy(c.Strategy); err != nil {
		return err
	}

	for _, pattern := range c.ExcludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return fmt.Errorf("log rotation limits must be >= 0")
	}

	return nil
}

// MinFileSizeBytes parses the human-readable minimum file size
func (c *Config) MinFileSizeBytes() (int64, error) {
	if c.Scan.MinFileSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Scan.MinFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid min file size '%s': %w", c.Scan.MinFileSize, err)
	}
	return int64(n), nil
}

// ToScanOptions converts the configuration into engine options
func (c *Config) ToScanOptions() (scanner.Options, error) {
	minSize, err := c.MinFileSizeBytes()
	if err != nil {
		return scanner.Options{}, err
	}

	opts := scanner.Options{
		BufferSize:    c.Scan.BufferSize,
		IncludeHidden: c.Scan.IncludeHidden,
		MinFileSize:   minSize,
		MaxThreads:    c.Scan.MaxThreads,
		Exclude:       append([]string(nil), c.ExcludePatterns...),
	}
	return opts, opts.Validate()
}

// SelectedStrategy returns the configured selection strategy
func (c *Config) SelectedStrategy() (scanner.Strategy, error) {
	return scanner.ParseStrategy(c.Strategy)
}

// EffectiveThreads reports how many hashing workers a scan will use
func (c *Config) EffectiveThreads() int {
	if c.Scan.MaxThreads > 0 {
		return c.Scan.MaxThreads
	}
	return runtime.NumCPU()
}

// GetConfigDir returns the directory holding config, sessions and logs
func GetConfigDir() (string, error) {
	return platform.AppDir()
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
