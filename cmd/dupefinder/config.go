package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fenilsonani/dupefinder/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	envPrefix = "DUPEFINDER"

	defaultLogFilename = "dupefinder.log"

	configFlagName     = "config"
	verboseFlagName    = "verbose"
	hiddenFlagName     = "hidden"
	minSizeFlagName    = "min-size"
	bufferSizeFlagName = "buffer-size"
	threadsFlagName    = "threads"
	excludeFlagName    = "exclude"
	strategyFlagName   = "strategy"
	dryRunFlagName     = "dry-run"
	logFileFlagName    = "log-file"
)

// flagKeys maps root flags to the configuration keys they override
var flagKeys = []struct {
	flag string
	key  string
}{
	{hiddenFlagName, "scan.include_hidden"},
	{minSizeFlagName, "scan.min_file_size"},
	{bufferSizeFlagName, "scan.buffer_size"},
	{threadsFlagName, "scan.max_threads"},
	{excludeFlagName, "exclude_patterns"},
	{strategyFlagName, "strategy"},
	{dryRunFlagName, "dry_run"},
	{logFileFlagName, "log.filename"},
}

// loadSettings reads the config file, then layers DUPEFINDER_* environment
// variables and explicitly set flags on top of it
func loadSettings(cmd *cobra.Command, configPath string) (*config.Config, error) {
	if configPath == "" {
		var err error
		if configPath, err = config.GetConfigPath(); err != nil {
			return nil, err
		}
	}

	fileCfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v, fileCfg)

	for _, fk := range flagKeys {
		if err := bindFlagToConfig(v, cmd.Flags().Lookup(fk.flag), fk.key); err != nil {
			return nil, err
		}
	}

	cfg := &config.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key of cfg so file values act as the fallback
// for environment and flags
func setDefaults(v *viper.Viper, cfg *config.Config) {
	v.SetDefault("scan.buffer_size", cfg.Scan.BufferSize)
	v.SetDefault("scan.include_hidden", cfg.Scan.IncludeHidden)
	v.SetDefault("scan.min_file_size", cfg.Scan.MinFileSize)
	v.SetDefault("scan.max_threads", cfg.Scan.MaxThreads)
	v.SetDefault("strategy", cfg.Strategy)
	v.SetDefault("dry_run", cfg.DryRun)
	v.SetDefault("exclude_patterns", cfg.ExcludePatterns)
	v.SetDefault("protected_paths", cfg.ProtectedPaths)
	v.SetDefault("log.filename", cfg.Log.Filename)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.max_size", cfg.Log.MaxSize)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.max_age", cfg.Log.MaxAge)
	v.SetDefault("log.compress", cfg.Log.Compress)
}

// bindFlagToConfig wires a Cobra flag to a Viper key; only a flag the user
// actually set beats the environment and the config file
func bindFlagToConfig(v *viper.Viper, flag *pflag.Flag, key string) error {
	if flag == nil {
		return fmt.Errorf("flag for config key %q not found", key)
	}
	return v.BindPFlag(key, flag)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger builds the rotating file logger. Verbose forces debug.
func configureLogger(cfg config.LogConfig, verbose bool) *slog.Logger {
	logPath := strings.TrimSpace(cfg.Filename)
	if logPath == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return slog.New(slog.DiscardHandler)
		}
		logPath = filepath.Join(dir, defaultLogFilename)
	}

	logLevel := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: verbose,
		Level:     logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// AbsPath returns the absolute, NFC-normalized form of a user-supplied path
// so roots typed on macOS compare equal to names read back from disk
func AbsPath(path string) (string, error) {
	abs, err := filepath.Abs(norm.NFC.String(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}
