package scanner

import "fmt"

// ErrorKind classifies scan failures
type ErrorKind int

const (
	// KindIO is a filesystem failure that aborts the scan
	KindIO ErrorKind = iota
	// KindTraversal is a failure of the directory walk itself
	KindTraversal
	// KindHash is a per-file hashing failure; it never aborts the scan
	KindHash
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindTraversal:
		return "traversal error"
	case KindHash:
		return "hash error"
	default:
		return "unknown error"
	}
}

// ScanError is returned for fatal scan failures and recorded for per-file ones
type ScanError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error aborts a scan
func (e *ScanError) Fatal() bool {
	return e.Kind != KindHash
}
