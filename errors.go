package pagetl

import (
	"errors"
	"fmt"
)

var (
	// ErrDetached is returned by Node writes once the node has left its document.
	ErrDetached = errors.New("node detached from document")

	// ErrClosed is returned by Session operations after Close.
	ErrClosed = errors.New("session closed")

	// ErrObserving is returned by Observe while another stream is consumed.
	ErrObserving = errors.New("session already observing")
)

// ProviderError indicates a translation backend failure (API error, rate limit, etc.).
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // HTTP status when known
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a translation memory failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (parse error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the backend returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// BatchError records why one batch was left untranslated.
type BatchError struct {
	Index int // position of the batch in its dispatch
	Size  int
	Cause error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d items): %v", e.Index, e.Size, e.Cause)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}
