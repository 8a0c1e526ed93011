package config

import "github.com/fenilsonani/dupefinder/internal/scanner"

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		Scan: ScanConfig{
			BufferSize:    scanner.DefaultBufferSize,
			IncludeHidden: false,
			MinFileSize:   "1B", // empty files are all identical, skip them
			MaxThreads:    0,
		},
		Strategy: "newest",
		DryRun:   false,
		ExcludePatterns: []string{
			".git",
			"node_modules",
			"__pycache__",
		},
		ProtectedPaths: []string{
			// System directories are always protected; add your own here
		},
		Log: LogConfig{
			Filename:   "",
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   false,
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# dupefinder configuration file
# Location: ~/.config/dupefinder/config.yaml

scan:
  buffer_size: 65536     # bytes read per chunk while hashing
  include_hidden: false  # descend into dot-files and dot-directories
  min_file_size: "1B"    # files smaller than this are ignored (e.g. "4KiB", "1MB")
  max_threads: 0         # hashing workers, 0 uses every CPU

# Which copy to keep in each duplicate group: newest, oldest, keep-all, keep-none
strategy: newest

# Preview deletions without removing anything
dry_run: false

# Directory or file names skipped during discovery (glob syntax)
exclude_patterns:
  - ".git"
  - "node_modules"
  - "__pycache__"

# Absolute paths that are never deleted, in addition to system directories
protected_paths: []

log:
  filename: ""       # empty logs to ~/.config/dupefinder/dupefinder.log
  level: info        # debug, info, warn, error
  max_size: 10       # megabytes before rotation
  max_backups: 3
  max_age: 28        # days
  compress: false
`
}
