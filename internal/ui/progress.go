package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
	"golang.org/x/term"
)

// LiveProgress redraws a single status line for scan and delete progress
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	latest     *progress.Event
	startTime  time.Time
	lastUpdate time.Time
	interval   time.Duration
	termWidth  int
	enabled    bool
	drawn      bool
}

// NewLiveProgress creates a live progress line on stderr. It is disabled
// when stderr is not a terminal.
func NewLiveProgress() *LiveProgress {
	fd := int(os.Stderr.Fd())
	lp := NewLiveProgressTo(os.Stderr, 80)
	lp.enabled = term.IsTerminal(fd)
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		lp.termWidth = w
	}
	return lp
}

// NewLiveProgressTo writes progress to out with a fixed width
func NewLiveProgressTo(out io.Writer, width int) *LiveProgress {
	return &LiveProgress{
		out:       out,
		startTime: time.Now(),
		interval:  100 * time.Millisecond,
		termWidth: width,
		enabled:   true,
	}
}

// Func adapts the display to the engine's callback type
func (lp *LiveProgress) Func() progress.Func {
	return lp.Update
}

// Update records an event and redraws at most ten times per second. Phase
// changes and the final event of a phase always redraw.
func (lp *LiveProgress) Update(e progress.Event) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled {
		return
	}

	phaseChanged := lp.latest == nil || lp.latest.Phase != e.Phase
	lp.latest = &e

	now := time.Now()
	if !phaseChanged && e.Current < e.Total && now.Sub(lp.lastUpdate) < lp.interval {
		return
	}
	lp.lastUpdate = now

	lp.render()
}

// render draws the status line in place
func (lp *LiveProgress) render() {
	width := lp.termWidth - 1

	elapsed := progress.FormatDuration(time.Since(lp.startTime))
	line := fmt.Sprintf("%s [%s]", progress.Format(lp.latest), elapsed)

	if lp.latest.Phase != progress.PhaseDiscovery && lp.latest.Total > 0 {
		barWidth := 20
		if width-barWidth-1 > 20 {
			line = styles.ProgressBar(lp.latest.Current, lp.latest.Total, barWidth) + " " + truncate(line, width-barWidth-1)
		} else {
			line = truncate(line, width)
		}
	} else {
		line = truncate(line, width)
	}

	fmt.Fprintf(lp.out, "\r\033[K%s", line)
	lp.drawn = true
}

// Finish clears the status line
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled || !lp.drawn {
		return
	}
	fmt.Fprint(lp.out, "\r\033[K")
	lp.drawn = false
}

// SetEnabled enables or disables live progress
func (lp *LiveProgress) SetEnabled(enabled bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.enabled = enabled
}

// truncate truncates a string to fit width, keeping the end where file
// names live
func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return "..." + s[len(s)-(width-3):]
}

// Indent prefixes every line of s, used for multi-line summaries under a heading
func Indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n") + "\n"
}
