package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase represents the current phase of a scan
type Phase string

const (
	PhaseDiscovery Phase = "discovery"
	PhaseHashing   Phase = "hashing"
	PhaseCleaning  Phase = "cleaning"
)

// Event is a single progress notification emitted by the scan engine
type Event struct {
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	CurrentFile string `json:"current_file"`
	Phase       Phase  `json:"phase"`
}

// Percent returns completion in the range [0, 100]
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	p := float64(e.Current) * 100 / float64(e.Total)
	if p > 100 {
		return 100
	}
	return p
}

// Func receives progress events. It may be called from several hashing
// goroutines and must not block for long.
type Func func(Event)

// Tracker counts hashing completions for a whole scan. The counter increment
// and the sink call happen under one lock, so sinks observe Current as a
// strictly increasing sequence and no tick is lost.
type Tracker struct {
	mu      sync.Mutex
	current int
	total   int
	phase   Phase
	sink    Func
}

// NewTracker creates a tracker with a fixed total. A nil sink is allowed.
func NewTracker(phase Phase, total int, sink Func) *Tracker {
	return &Tracker{
		phase: phase,
		total: total,
		sink:  sink,
	}
}

// Tick records one processed item and reports it
func (t *Tracker) Tick(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current++
	if t.sink == nil {
		return
	}
	t.sink(Event{
		Current:     t.current,
		Total:       t.total,
		CurrentFile: label,
		Phase:       t.phase,
	})
}

// Current returns the number of ticks recorded so far
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Reporter keeps the latest event and fans it out to subscribers
type Reporter struct {
	latest    *Event
	startTime time.Time
	mu        sync.RWMutex
	listeners []chan Event
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		startTime: time.Now(),
		listeners: make([]chan Event, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, 64)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Update stores the event and notifies listeners. Listeners that are not
// keeping up miss intermediate events; Latest always has the newest one.
func (r *Reporter) Update(e Event) {
	r.mu.Lock()
	r.latest = &e
	listeners := make([]chan Event, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, listener := range listeners {
		select {
		case listener <- e:
		default:
		}
	}
}

// Func adapts the reporter to the engine's callback type
func (r *Reporter) Func() Func {
	return r.Update
}

// Latest returns the most recent event, or nil before the first update
func (r *Reporter) Latest() *Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil
	}
	e := *r.latest
	return &e
}

// Elapsed returns the time since the reporter was created
func (r *Reporter) Elapsed() time.Duration {
	return time.Since(r.startTime)
}

// Format returns a human-readable progress line
func Format(e *Event) string {
	if e == nil {
		return "Initializing..."
	}

	switch e.Phase {
	case PhaseDiscovery:
		return fmt.Sprintf("Discovery complete: %s candidate files",
			humanize.Comma(int64(e.Total)))
	case PhaseHashing:
		return fmt.Sprintf("Hashing %d/%d (%.0f%%) %s",
			e.Current, e.Total, e.Percent(), e.CurrentFile)
	case PhaseCleaning:
		return fmt.Sprintf("Deleting %d/%d %s", e.Current, e.Total, e.CurrentFile)
	default:
		return "Scanning..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
