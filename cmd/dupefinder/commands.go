package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/cleaner"
	"github.com/fenilsonani/dupefinder/internal/config"
	"github.com/fenilsonani/dupefinder/internal/reporter"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/store"
	"github.com/fenilsonani/dupefinder/internal/ui"
	"github.com/fenilsonani/dupefinder/internal/ui/models"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		outputFmt  string
		outputFile string
		exportPath string
		dbPath     string
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory tree for duplicate files",
		Long: `Scans the directory (default: current directory), groups files with
identical content, marks copies according to the keep strategy, and saves the
result as a session. Nothing is deleted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := reporter.ParseFormat(outputFmt)
			if err != nil {
				return err
			}

			sess, err := a.runScan(rootArg(args))
			if err != nil {
				return err
			}

			if err := reporter.New(cmd.OutOrStdout(), format).Report(sess); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
			if outputFile != "" {
				if err := reporter.SaveToFile(sess, outputFile, format); err != nil {
					return err
				}
			}

			if !noSave {
				if err := a.saveSession(sess); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\nSession saved: %s\n", sess.ID)
			}
			if exportPath != "" {
				if err := sess.Save(exportPath); err != nil {
					return err
				}
			}
			if dbPath != "" {
				if err := saveToStore(cmd.Context(), dbPath, sess); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFmt, "output", "o", string(reporter.FormatSummary), "output format: summary, table, json, yaml")
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "also write the report to this file")
	cmd.Flags().StringVar(&exportPath, "save", "", "also export the session as JSON to this file")
	cmd.Flags().StringVar(&dbPath, "db", "", "also store the session in this DuckDB database")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the session")

	return cmd
}

func newCleanCmd(a *app) *cobra.Command {
	var (
		sessionRef   string
		force        bool
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the files a saved session marks for deletion",
		Long: `Deletes every file the session does not keep. With --strategy the marks
are recomputed first; otherwise the session's saved marks are used as-is.
Deleted files are pruned from the session and the session is saved again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.sessions()
			if err != nil {
				return err
			}
			sess, err := mgr.Resolve(sessionRef)
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}

			if cmd.Flags().Changed(strategyFlagName) {
				strategy, err := a.cfg.SelectedStrategy()
				if err != nil {
					return err
				}
				sess.ApplyStrategy(strategy)
			}

			out := cmd.OutOrStdout()
			if sess.MarkedCount() == 0 {
				fmt.Fprintln(out, "✨ Nothing is marked for deletion.")
				return nil
			}

			if err := reporter.New(out, reporter.FormatSummary).Report(sess); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
			printMarkedCritical(out, sess)

			if !force && !a.cfg.DryRun {
				ok, err := confirm(cmd.InOrStdin(), out,
					fmt.Sprintf("\nDelete %d files (%s)? (y/N): ",
						sess.MarkedCount(), humanize.IBytes(uint64(sess.Reclaimable()))))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cleanup cancelled")
					return nil
				}
			}

			c := cleaner.New(a.cfg.DryRun)
			c.SetLogger(a.logger)
			for _, p := range a.cfg.ProtectedPaths {
				c.AddProtectedPath(p)
			}

			if c.DryRun() {
				fmt.Fprintln(out, "\n[DRY RUN MODE] No files will be deleted.")
			} else {
				fmt.Fprintln(out, "\nDeleting...")
			}

			lp := ui.NewLiveProgress()
			c.SetProgress(lp.Func())
			result := c.CleanSession(sess)
			lp.Finish()

			printCleanResult(out, result)

			if !result.DryRun {
				if err := mgr.Save(sess); err != nil {
					return err
				}
				fmt.Fprintf(out, "Session %s updated: %d groups remain\n", sess.ID, len(sess.Groups))
			}

			if manifestPath != "" && len(result.DeletedFiles) > 0 {
				if err := c.Manifest().Save(manifestPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Manifest written to %s\n", manifestPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&sessionRef, "session", "", "session ID or file (default: latest)")
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "write a list of deleted files to this path")

	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var (
		sessionRef string
		dbPath     string
		outputFmt  string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report for a saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := reporter.ParseFormat(outputFmt)
			if err != nil {
				return err
			}

			var sess *session.Session
			if dbPath != "" {
				sess, err = loadFromStore(cmd.Context(), dbPath, sessionRef)
			} else {
				var mgr *session.Manager
				if mgr, err = a.sessions(); err == nil {
					sess, err = mgr.Resolve(sessionRef)
				}
			}
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}

			if outputFile != "" {
				return reporter.SaveToFile(sess, outputFile, format)
			}
			return reporter.New(cmd.OutOrStdout(), format).Report(sess)
		},
	}

	cmd.Flags().StringVar(&sessionRef, "session", "", "session ID or file (default: latest)")
	cmd.Flags().StringVar(&dbPath, "db", "", "read the session from this DuckDB database")
	cmd.Flags().StringVarP(&outputFmt, "output", "o", string(reporter.FormatTable), "output format: summary, table, json, yaml")
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "write the report to this file instead of stdout")

	return cmd
}

func newSessionsCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath != "" {
				return listStoreSessions(cmd.Context(), cmd.OutOrStdout(), dbPath)
			}

			mgr, err := a.sessions()
			if err != nil {
				return err
			}
			sessions, err := mgr.List()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No sessions in %s\n", mgr.Dir())
				return nil
			}

			table := newSessionTable(cmd.OutOrStdout())
			for _, s := range sessions {
				table.Append([]string{
					s.ID,
					s.Timestamp.Format("2006-01-02 15:04"),
					s.Root,
					fmt.Sprintf("%d", len(s.Groups)),
					humanize.IBytes(uint64(s.Reclaimable())),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "list sessions stored in this DuckDB database")

	rmCmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete saved sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath != "" {
				st, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				for _, id := range args {
					if err := st.DeleteSession(cmd.Context(), id); err != nil {
						return err
					}
				}
				return nil
			}

			mgr, err := a.sessions()
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := mgr.Delete(id); err != nil {
					return err
				}
				a.logger.Info("session deleted", "id", id)
			}
			return nil
		},
	}
	rmCmd.Flags().StringVar(&dbPath, "db", "", "delete from this DuckDB database")
	cmd.AddCommand(rmCmd)

	return cmd
}

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [directory]",
		Short: "Scan and review duplicates interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := AbsPath(rootArg(args))
			if err != nil {
				return err
			}
			opts, err := a.cfg.ToScanOptions()
			if err != nil {
				return err
			}
			strategy, err := a.cfg.SelectedStrategy()
			if err != nil {
				return err
			}
			mgr, err := a.sessions()
			if err != nil {
				return err
			}

			sess, err := ui.RunInteractive(models.Settings{
				Root:           root,
				Options:        opts,
				Strategy:       strategy,
				DryRun:         a.cfg.DryRun,
				ProtectedPaths: a.cfg.ProtectedPaths,
				Sessions:       mgr,
				Logger:         a.logger,
			})
			if err != nil {
				return err
			}
			if sess == nil {
				return nil
			}

			if err := mgr.Save(sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session saved: %s (%d groups)\n", sess.ID, len(sess.Groups))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				var err error
				if path, err = config.GetConfigPath(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", path)
			fmt.Fprintf(out, "Strategy: %s\n", a.cfg.Strategy)
			fmt.Fprintf(out, "Dry run: %t\n", a.cfg.DryRun)
			fmt.Fprintf(out, "Include hidden: %t\n", a.cfg.Scan.IncludeHidden)
			fmt.Fprintf(out, "Min file size: %s\n", a.cfg.Scan.MinFileSize)
			fmt.Fprintf(out, "Buffer size: %s\n", humanize.IBytes(uint64(a.cfg.Scan.BufferSize)))
			fmt.Fprintf(out, "Hash workers: %d\n", a.cfg.EffectiveThreads())
			fmt.Fprintf(out, "Exclude: %s\n", strings.Join(a.cfg.ExcludePatterns, ", "))
			fmt.Fprintf(out, "Protected: %s\n", strings.Join(a.cfg.ProtectedPaths, ", "))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write an example config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.EnsureConfigExists()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", path)
			return nil
		},
	})

	return cmd
}

// runScan scans root with the resolved settings and applies the keep strategy
func (a *app) runScan(root string) (*session.Session, error) {
	root, err := AbsPath(root)
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.ToScanOptions()
	if err != nil {
		return nil, err
	}
	strategy, err := a.cfg.SelectedStrategy()
	if err != nil {
		return nil, err
	}

	s := scanner.New(opts)
	s.SetLogger(a.logger)

	lp := ui.NewLiveProgress()
	result, err := s.Scan(root, lp.Func())
	lp.Finish()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	a.logger.Info("scan complete",
		"root", root,
		"discovered", result.Discovered,
		"groups", len(result.Groups),
		"errors", len(result.Errors))

	sess := session.New(root, opts, result)
	sess.ApplyStrategy(strategy)
	return sess, nil
}

func (a *app) saveSession(sess *session.Session) error {
	mgr, err := a.sessions()
	if err != nil {
		return err
	}
	return mgr.Save(sess)
}

func saveToStore(ctx context.Context, dbPath string, sess *session.Session) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveSession(ctx, sess)
}

// loadFromStore loads id from the database, or its latest session when id
// is empty
func loadFromStore(ctx context.Context, dbPath, id string) (*session.Session, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if id == "" {
		sess, err := st.LatestSession(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no sessions in %s", dbPath)
		}
		return sess, err
	}
	return st.LoadSession(ctx, id)
}

func listStoreSessions(ctx context.Context, out io.Writer, dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintf(out, "No sessions in %s\n", dbPath)
		return nil
	}

	table := newSessionTable(out)
	for _, s := range summaries {
		table.Append([]string{
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.Root,
			fmt.Sprintf("%d", s.Groups),
			humanize.IBytes(uint64(s.Reclaimable)),
		})
	}
	table.Render()
	return nil
}

func newSessionTable(out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Created", "Root", "Groups", "Reclaimable"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	return table
}

// printMarkedCritical lists critical files that are about to be deleted
func printMarkedCritical(out io.Writer, sess *session.Session) {
	var critical []string
	for _, g := range sess.Groups {
		for _, f := range g.Marked() {
			if f.IsCritical {
				critical = append(critical, f.Path)
			}
		}
	}
	if len(critical) == 0 {
		return
	}

	fmt.Fprintf(out, "\n⚠️  %d critical configuration files are marked for deletion:\n", len(critical))
	fmt.Fprint(out, ui.Indent(strings.Join(critical, "\n"), "   "))
}

func printCleanResult(out io.Writer, result *cleaner.CleanResult) {
	verb := "deleted"
	if result.DryRun {
		verb = "would be deleted"
	}

	fmt.Fprintf(out, "\n📊 Cleanup Complete!\n")
	fmt.Fprintf(out, "✅ %d files %s (%s)\n",
		len(result.DeletedFiles), verb, humanize.IBytes(uint64(result.DeletedSize)))
	if len(result.CriticalFiles) > 0 {
		fmt.Fprintf(out, "⚠️  %d critical configuration files among them\n", len(result.CriticalFiles))
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "❌ %d files skipped\n", len(result.Errors))
		fmt.Fprint(out, cleaner.FormatErrorSummary(result.Errors))
	}
}

// confirm asks a yes/no question; anything but y or yes is no
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
