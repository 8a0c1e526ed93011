package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorProtectedPath
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorProtectedPath:
		return "Protected path"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError describes one file that could not be deleted
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
	NeedsSudo bool // deletion would need elevated permissions
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		if e.NeedsSudo {
			return fmt.Sprintf("Permission denied: %s (needs elevated permissions)", e.Path)
		}
		return fmt.Sprintf("Permission denied: %s (read-only filesystem)", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("Already deleted: %s", e.Path)
	case ErrorIsDirectory:
		return fmt.Sprintf("Not a regular file: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("Invalid or unsafe path: %s (%v)", e.Path, e.Original)
	case ErrorProtectedPath:
		return fmt.Sprintf("Refusing to delete protected path: %s", e.Path)
	default:
		return fmt.Sprintf("Error deleting %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	// Check syscall errors first; they carry the most detail
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM, syscall.EROFS:
			delErr.Reason = ErrorPermissionDenied
			delErr.NeedsSudo = errno != syscall.EROFS
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EISDIR, syscall.ENOTEMPTY:
			delErr.Reason = ErrorIsDirectory
		}
		return delErr
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		delErr.Reason = ErrorFileNotFound
	case errors.Is(err, os.ErrPermission):
		delErr.Reason = ErrorPermissionDenied
		delErr.NeedsSudo = true
	}

	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*DeletionError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	var b strings.Builder
	b.WriteString("\nIssues encountered:\n")

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		fmt.Fprintf(&b, "   ├─ Permission denied: %d files\n", len(perms))
		b.WriteString("   │  └─ Tip: check ownership of the containing directories\n")
	}

	if busy, ok := grouped[ErrorFileInUse]; ok {
		fmt.Fprintf(&b, "   ├─ File in use: %d files\n", len(busy))
		b.WriteString("   │  └─ Tip: Close applications and retry\n")
	}

	if notFound, ok := grouped[ErrorFileNotFound]; ok {
		fmt.Fprintf(&b, "   ├─ Already deleted: %d files\n", len(notFound))
	}

	if dirs, ok := grouped[ErrorIsDirectory]; ok {
		fmt.Fprintf(&b, "   ├─ Not regular files: %d items\n", len(dirs))
		b.WriteString("   │  └─ Tip: rescan, the tree changed since the session was saved\n")
	}

	if unsafe, ok := grouped[ErrorInvalidPath]; ok {
		fmt.Fprintf(&b, "   ├─ Unsafe paths: %d files\n", len(unsafe))
	}

	if protected, ok := grouped[ErrorProtectedPath]; ok {
		fmt.Fprintf(&b, "   ├─ Protected paths: %d files\n", len(protected))
	}

	if unknown, ok := grouped[ErrorUnknown]; ok {
		fmt.Fprintf(&b, "   └─ Other errors: %d files\n", len(unknown))
	}

	return b.String()
}
