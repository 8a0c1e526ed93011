package scanner

import (
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// DiscoveryCompleteLabel is the CurrentFile of the event that ends discovery
const DiscoveryCompleteLabel = "Discovery complete"

// Scanner finds duplicate files by size and then by content digest.
// Scan is synchronous; callers that need responsiveness run it on their own
// goroutine.
type Scanner struct {
	opts   Options
	fs     afero.Fs
	logger *slog.Logger
	state  atomic.Int32
}

// New creates a Scanner over the OS filesystem
func New(opts Options) *Scanner {
	return &Scanner{
		opts:   opts,
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
	}
}

// SetFs replaces the filesystem used for walking and hashing
func (s *Scanner) SetFs(fs afero.Fs) {
	s.fs = fs
}

// SetLogger sets a custom logger
func (s *Scanner) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Options returns the scanner's options
func (s *Scanner) Options() Options {
	return s.opts
}

// State returns the lifecycle state of the most recent scan
func (s *Scanner) State() State {
	return State(s.state.Load())
}

func (s *Scanner) setState(st State) {
	s.state.Store(int32(st))
}

// workers returns the hashing parallelism
func (s *Scanner) workers() int {
	if s.opts.MaxThreads > 0 {
		return s.opts.MaxThreads
	}
	return runtime.NumCPU()
}

// Scan walks root and returns every group of files with identical content.
// fn may be nil; during hashing it is called from several goroutines, one
// call at a time. Only an inaccessible root or invalid options fail the scan.
func (s *Scanner) Scan(root string, fn progress.Func) (*Result, error) {
	if err := s.opts.Validate(); err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	s.setState(StateDiscovering)
	index := newSizeIndex()
	walker := NewWalker(s.fs, s.opts, s.logger)
	if err := walker.Walk(root, index.Add); err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	candidates := index.Candidates()
	result := &Result{
		Discovered: index.Len(),
	}
	for _, bucket := range candidates {
		result.Candidates += len(bucket)
	}

	s.logger.Debug("discovery finished",
		"root", root,
		"files", result.Discovered,
		"candidates", result.Candidates,
		"buckets", len(candidates))

	if fn != nil {
		fn(progress.Event{
			Current:     result.Candidates,
			Total:       result.Candidates,
			CurrentFile: DiscoveryCompleteLabel,
			Phase:       progress.PhaseDiscovery,
		})
	}

	s.setState(StateHashing)
	hasher := NewHasher(s.fs, s.opts.BufferSize)
	tracker := progress.NewTracker(progress.PhaseHashing, result.Candidates, fn)

	for _, bucket := range candidates {
		outcomes := s.hashBucket(hasher, bucket, tracker)

		for i, out := range outcomes {
			if out.err == nil {
				continue
			}
			var scanErr *ScanError
			if !errors.As(out.err, &scanErr) {
				scanErr = &ScanError{Kind: KindHash, Path: bucket[i].Path, Err: out.err}
			}
			s.logger.Warn("failed to hash file", "path", scanErr.Path, "error", scanErr.Err)
			result.Errors = append(result.Errors, scanErr)
		}

		result.Groups = append(result.Groups, groupByDigest(bucket, outcomes)...)
	}

	s.setState(StateDone)
	return result, nil
}

// hashBucket hashes every member of a size bucket on a bounded pool. The
// returned slice is index-aligned with bucket regardless of completion order.
func (s *Scanner) hashBucket(hasher *Hasher, bucket []FileRecord, tracker *progress.Tracker) []hashOutcome {
	outcomes := make([]hashOutcome, len(bucket))

	var group errgroup.Group
	group.SetLimit(s.workers())

	for i := range bucket {
		group.Go(func() error {
			digest, err := hasher.Hash(bucket[i].Path)
			outcomes[i] = hashOutcome{digest: digest, err: err}

			tracker.Tick(bucket[i].Path)
			// Per-file failures are recorded in outcomes, never returned.
			return nil
		})
	}
	_ = group.Wait()

	return outcomes
}
