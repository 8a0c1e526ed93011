package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want summary, table, json or yaml)", name)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report renders the session's duplicate groups
func (r *Reporter) Report(s *session.Session) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(s)
	case FormatJSON:
		return r.reportJSON(s)
	case FormatYAML:
		return r.reportYAML(s)
	case FormatSummary:
		return r.reportSummary(s)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(s *session.Session) error {
	criticalGroups := 0
	for _, g := range s.Groups {
		if g.HasCritical() {
			criticalGroups++
		}
	}

	fmt.Fprintf(r.writer, "=== Duplicate Summary ===\n")
	fmt.Fprintf(r.writer, "Root: %s\n", s.Root)
	fmt.Fprintf(r.writer, "Duplicate Groups: %s\n", humanize.Comma(int64(len(s.Groups))))
	fmt.Fprintf(r.writer, "Duplicate Files: %s\n", humanize.Comma(int64(s.FileCount())))
	fmt.Fprintf(r.writer, "Wasted Space: %s\n", humanize.IBytes(uint64(s.TotalWasted())))
	fmt.Fprintf(r.writer, "Marked for Deletion: %d files, %s\n", s.MarkedCount(), humanize.IBytes(uint64(s.Reclaimable())))

	if criticalGroups > 0 {
		fmt.Fprintf(r.writer, "\nWARNING: %d group(s) contain critical configuration files\n", criticalGroups)
	}

	if len(s.Groups) > 0 {
		fmt.Fprintf(r.writer, "\nLargest Groups:\n")
		for _, g := range largest(s.Groups, 5) {
			fmt.Fprintf(r.writer, "  %s x%d (%s wasted) %s\n",
				humanize.IBytes(uint64(g.Size)), len(g.Files), humanize.IBytes(uint64(g.Wasted())), g.Files[0].Path)
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(r.writer, "\nErrors: %d\n", len(s.Errors))
	}

	return nil
}

// reportTable generates a table report
func (r *Reporter) reportTable(s *session.Session) error {
	table := tablewriter.NewWriter(r.writer)
	table.SetHeader([]string{"Group", "Path", "Size", "Modified", "Action"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	for gi, g := range s.Groups {
		for fi, f := range g.Files {
			modified := "-"
			if f.ModTime != nil {
				modified = f.ModTime.Format("2006-01-02 15:04:05")
			}

			action := "keep"
			if !g.Keep[fi] {
				action = "delete"
			}
			if f.IsCritical {
				action += " (critical)"
			}

			table.Append([]string{
				fmt.Sprintf("%d", gi+1),
				truncatePath(f.Path, 60),
				humanize.IBytes(uint64(f.Size)),
				modified,
				action,
			})
		}
	}

	table.SetFooter([]string{
		"",
		fmt.Sprintf("%d groups, %d files", len(s.Groups), s.FileCount()),
		humanize.IBytes(uint64(s.TotalWasted())),
		"reclaimable",
		humanize.IBytes(uint64(s.Reclaimable())),
	})

	table.Render()
	return nil
}

// report is the machine-readable report layout
type report struct {
	Timestamp            string          `json:"timestamp" yaml:"timestamp"`
	Root                 string          `json:"root" yaml:"root"`
	TotalGroups          int             `json:"total_groups" yaml:"total_groups"`
	TotalFiles           int             `json:"total_files" yaml:"total_files"`
	WastedSize           int64           `json:"wasted_size" yaml:"wasted_size"`
	WastedSizeFormatted  string          `json:"wasted_size_formatted" yaml:"wasted_size_formatted"`
	ReclaimableSize      int64           `json:"reclaimable_size" yaml:"reclaimable_size"`
	ReclaimableFormatted string          `json:"reclaimable_size_formatted" yaml:"reclaimable_size_formatted"`
	Groups               []session.Group `json:"groups" yaml:"groups"`
	Errors               []string        `json:"errors" yaml:"errors"`
}

func newReport(s *session.Session) report {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	return report{
		Timestamp:            s.Timestamp.Format(time.RFC3339),
		Root:                 s.Root,
		TotalGroups:          len(s.Groups),
		TotalFiles:           s.FileCount(),
		WastedSize:           s.TotalWasted(),
		WastedSizeFormatted:  humanize.IBytes(uint64(s.TotalWasted())),
		ReclaimableSize:      s.Reclaimable(),
		ReclaimableFormatted: humanize.IBytes(uint64(s.Reclaimable())),
		Groups:               s.Groups,
		Errors:               errs,
	}
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(s *session.Session) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newReport(s))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(s *session.Session) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(newReport(s))
}

// SaveToFile saves the report to a file
func SaveToFile(s *session.Session, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := New(file, format).Report(s); err != nil {
		return err
	}
	return file.Close()
}

// largest returns up to n groups ordered by wasted bytes, largest first
func largest(groups []session.Group, n int) []session.Group {
	sorted := make([]session.Group, len(groups))
	copy(sorted, groups)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Wasted() > sorted[j-1].Wasted(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-(max-3):]
}
