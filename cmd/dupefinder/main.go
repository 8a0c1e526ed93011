package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fenilsonani/dupefinder/internal/config"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// app carries state shared by every subcommand once the root pre-run has
// resolved configuration and logging
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "dupefinder",
		Short: "Find and remove duplicate files",
		Long: `dupefinder walks a directory tree, groups files with identical content,
and lets you decide which copies to keep before deleting the rest.

Scans are saved as sessions so they can be reviewed, reported on, and
cleaned later without hashing again.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd, a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = configureLogger(cfg.Log, a.verbose)
			a.logger.Debug("settings loaded", "command", cmd.Name(), "strategy", cfg.Strategy, "dry_run", cfg.DryRun)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, configFlagName, "c", "", "config file (default ~/.config/dupefinder/config.yaml)")
	flags.BoolVarP(&a.verbose, verboseFlagName, "v", false, "debug logging")
	flags.Bool(hiddenFlagName, false, "include hidden files and directories")
	flags.String(minSizeFlagName, "", "ignore files smaller than this (e.g. 4KiB)")
	flags.Int(bufferSizeFlagName, 0, "read buffer size in bytes when hashing")
	flags.IntP(threadsFlagName, "t", 0, "hashing workers (0 uses every CPU)")
	flags.StringSliceP(excludeFlagName, "x", nil, "skip entries whose name matches this glob (repeatable)")
	flags.StringP(strategyFlagName, "s", "", "keep strategy: newest, oldest, keep-all, keep-none")
	flags.BoolP(dryRunFlagName, "n", false, "show what would be deleted without deleting")
	flags.String(logFileFlagName, "", "log file (default ~/.config/dupefinder/dupefinder.log)")

	rootCmd.AddCommand(
		newScanCmd(a),
		newCleanCmd(a),
		newReportCmd(a),
		newSessionsCmd(a),
		newUICmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

// sessions opens the session directory
func (a *app) sessions() (*session.Manager, error) {
	dir, err := session.DefaultDir()
	if err != nil {
		return nil, err
	}
	return session.NewManager(dir)
}
