package warehouse

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for storage failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrPermissionDenied indicates a permission/access failure (EACCES, 403).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the target path/resource does not exist (ENOENT, 404).
	ErrNotFound = errors.New("not found")

	// ErrDiskFull indicates storage is out of space (ENOSPC).
	ErrDiskFull = errors.New("no space left on device")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrThrottled indicates rate limiting (429, SlowDown).
	ErrThrottled = errors.New("rate limited")

	// ErrAuth indicates authentication failure (no credentials, expired token).
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork indicates a network-level failure (connection refused, DNS).
	ErrNetwork = errors.New("network error")
)

// StorageError wraps an underlying error with storage classification.
// The original error stays in the chain for errors.As inspection.
type StorageError struct {
	// Kind is the sentinel error for classification (e.g. ErrThrottled).
	Kind error
	// Op is the operation that failed ("write", "read", "reset", "init").
	Op string
	// Stream is the destination stream or dataset involved, if any.
	Stream string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	if e.Stream != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Stream, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newStorageError(op, stream string, err error) *StorageError {
	return &StorageError{Kind: classifyError(err), Op: op, Stream: stream, Err: err}
}

// WrapWriteError classifies and wraps a write operation error.
// Returns nil if err is nil.
func WrapWriteError(err error, stream string) error {
	if err == nil {
		return nil
	}
	return newStorageError("write", stream, err)
}

// WrapReadError classifies and wraps a read operation error.
func WrapReadError(err error, stream string) error {
	if err == nil {
		return nil
	}
	return newStorageError("read", stream, err)
}

// WrapResetError classifies and wraps a state reset error.
func WrapResetError(err error, dataset string) error {
	if err == nil {
		return nil
	}
	return newStorageError("reset", dataset, err)
}

// WrapInitError classifies and wraps a warehouse initialization error.
func WrapInitError(err error, dataset string) error {
	if err == nil {
		return nil
	}
	return newStorageError("init", dataset, err)
}

// classifyError maps an error onto a sentinel by type and message patterns.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "permission denied", "eacces", "access denied", "forbidden", "403"):
		return ErrPermissionDenied

	case containsAny(msg, "no such file", "does not exist", "not found", "enoent", "404", "nosuchkey"):
		return ErrNotFound

	case containsAny(msg, "no space left", "disk full", "enospc", "quota exceeded"):
		return ErrDiskFull

	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return ErrTimeout

	case containsAny(msg, "slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"):
		return ErrThrottled

	case containsAny(msg, "nocredentialproviders", "credentials", "invalidaccesskeyid",
		"signaturedoesnotmatch", "expiredtoken", "401", "unauthorized"):
		return ErrAuth

	case containsAny(msg, "connection refused", "no route to host", "network unreachable",
		"dns", "dial tcp", "i/o timeout"):
		return ErrNetwork

	default:
		return errors.New("storage error")
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
