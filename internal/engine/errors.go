package engine

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures for the batch retry policy.
type Kind int

const (
	// KindProcessingFailed is a per-file failure; the batch may continue.
	KindProcessingFailed Kind = iota
	// KindResourceExhausted means disk or memory ran out; retry after cleanup.
	KindResourceExhausted
	// KindFatal means no further file can succeed.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindFatal:
		return "fatal"
	default:
		return "processing_failed"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err; errors that did not come from the engine
// count as processing failures.
func KindOf(err error) Kind {
	var eErr *Error
	if errors.As(err, &eErr) {
		return eErr.Kind
	}
	return KindProcessingFailed
}

func IsResourceExhausted(err error) bool {
	return err != nil && KindOf(err) == KindResourceExhausted
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// classifyIO maps an OS-level error to a Kind. Reads that fail for reasons
// other than exhaustion only affect the one file.
func classifyIO(op, path string, err error, writing bool) *Error {
	switch {
	case resourceExhausted(err):
		return newError(KindResourceExhausted, op, path, err)
	case writing && destinationUnusable(err):
		return newError(KindFatal, op, path, err)
	default:
		return newError(KindProcessingFailed, op, path, err)
	}
}
