package core

import "fmt"

// MalformedMessageError indicates a raw message whose headers or body could
// not be decoded; the message is skipped and processing continues
type MalformedMessageError struct {
	Reason string
	Err    error
}

func (e *MalformedMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed message: %s", e.Reason)
}

func (e *MalformedMessageError) Unwrap() error { return e.Err }

// FetchError indicates a transport failure for a single message index
type FetchError struct {
	Index int
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for message %d: %v", e.Index, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError indicates the ledger or statistics could not be written.
// The in-memory state is kept intact so the write can be retried.
type PersistenceError struct {
	Target string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Target, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ClassificationError indicates an external classifier was unavailable;
// callers fall back to the keyword heuristic rather than aborting
type ClassificationError struct {
	Provider string
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifier %q unavailable: %v", e.Provider, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
