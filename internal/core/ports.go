package core

import (
	"context"
	"time"
)

// Classifier decides whether a piece of message text is promotional.
// Implementations must be pure and side-effect-free; the keyword heuristic
// is the default, with external model-backed implementations substitutable
// behind the same contract.
type Classifier interface {
	// Classify scores the combined subject and body text
	Classify(ctx context.Context, text string) (*ClassificationResult, error)
}

// Transport provides raw message bytes from a remote mailbox. Indices are
// 1-based and stable for the duration of a session.
type Transport interface {
	// Count returns the number of messages in the mailbox
	Count(ctx context.Context) (int, error)

	// Fetch retrieves the raw bytes of the message at the given index
	Fetch(ctx context.Context, index int) ([]byte, error)

	// Delete removes the message at the given index
	Delete(ctx context.Context, index int) error

	// Close releases the session
	Close() error
}

// LedgerStore persists the full set of contact records
type LedgerStore interface {
	// Load reads all contact records, returning an empty slice if no
	// ledger has been persisted yet
	Load(ctx context.Context) ([]ContactRecord, error)

	// Save writes a consistent snapshot of all contact records
	Save(ctx context.Context, records []ContactRecord) error
}

// StatsStore persists the global statistics singleton
type StatsStore interface {
	// Load reads the statistics, returning zero-valued stats if absent
	// or unreadable
	Load(ctx context.Context) (GlobalStats, error)

	// Save writes the statistics snapshot
	Save(ctx context.Context, stats GlobalStats) error
}

// SpamArchive stores a durable local copy of a promotional message before
// it is deleted from the server
type SpamArchive interface {
	// Store writes one archived message, named deterministically from
	// its timestamp and original index, and returns the file path
	Store(raw []byte, timestamp time.Time, index int) (string, error)
}

// ProgressFunc is an optional per-delta observer callback. At most one
// observer is active per run; invocation order matches delta arrival order.
type ProgressFunc func(delta UpdateDelta)
