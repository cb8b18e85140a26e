package core

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Aggregator owns the durable contact ledger and global statistics. It has
// exactly one writer: deltas must be applied strictly serially from a single
// goroutine, which is why no lock is taken here.
type Aggregator struct {
	ledgerStore LedgerStore
	statsStore  StatsStore
	logger      *zap.Logger
	maxRetries  int

	contacts     map[string]*ContactRecord
	stats        GlobalStats
	pendingFlush bool
}

// NewAggregator creates an aggregator backed by the given stores
func NewAggregator(ledgerStore LedgerStore, statsStore StatsStore, logger *zap.Logger, maxRetries int) *Aggregator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Aggregator{
		ledgerStore: ledgerStore,
		statsStore:  statsStore,
		logger:      logger,
		maxRetries:  maxRetries,
		contacts:    make(map[string]*ContactRecord),
	}
}

// Load reads the persisted ledger and statistics, default-initializing
// whichever is absent
func (a *Aggregator) Load(ctx context.Context) error {
	records, err := a.ledgerStore.Load(ctx)
	if err != nil {
		return &PersistenceError{Target: "ledger", Err: err}
	}
	a.contacts = make(map[string]*ContactRecord, len(records))
	for i := range records {
		rec := records[i]
		a.contacts[NormalizeAddress(rec.Email)] = &rec
	}

	stats, err := a.statsStore.Load(ctx)
	if err != nil {
		// Defensive: a missing or corrupt stats file starts from zero
		// rather than failing the run
		a.logger.Warn("Failed to load statistics, starting fresh", zap.Error(err))
		stats = GlobalStats{}
	}
	a.stats = stats
	a.recompute()
	return nil
}

// Apply merges one delta into the ledger and statistics. It must never be
// called concurrently. If a previous flush failed, persistence is retried
// before the new delta is accepted so in-memory and persisted state cannot
// diverge permanently.
func (a *Aggregator) Apply(ctx context.Context, delta UpdateDelta) error {
	if a.pendingFlush {
		if err := a.Flush(ctx); err != nil {
			return err
		}
	}

	key := NormalizeAddress(delta.SenderEmail)
	rec, ok := a.contacts[key]
	if !ok {
		rec = &ContactRecord{
			Email:           delta.SenderEmail,
			LastContact:     delta.Timestamp,
			IsAdvertisement: delta.IsAdvertisement,
			UnsubscribeURL:  delta.UnsubscribeURL,
			TotalMessages:   1,
		}
		if delta.IsAdvertisement {
			rec.AdMessages = 1
		}
		a.contacts[key] = rec
	} else {
		rec.TotalMessages++
		if delta.IsAdvertisement {
			rec.AdMessages++
		}
		rec.LastContact = delta.Timestamp
		rec.IsAdvertisement = delta.IsAdvertisement
		if delta.UnsubscribeURL != "" {
			rec.UnsubscribeURL = delta.UnsubscribeURL
		}
	}

	a.stats.TotalProcessed++
	if delta.IsAdvertisement {
		a.stats.TotalAdvertisements++
	}
	now := time.Now()
	a.stats.LastProcessedAt = &now
	a.recompute()
	return nil
}

// recompute refreshes the derived statistics fields
func (a *Aggregator) recompute() {
	a.stats.UniqueSenders = len(a.contacts)
	if a.stats.TotalProcessed > 0 {
		a.stats.AdvertisementRate = float64(a.stats.TotalAdvertisements) / float64(a.stats.TotalProcessed) * 100
	} else {
		a.stats.AdvertisementRate = 0
	}
}

// Flush persists the ledger and statistics, retrying on failure. On
// unrecoverable failure the in-memory state is kept intact and further
// deltas are refused until a flush succeeds.
func (a *Aggregator) Flush(ctx context.Context) error {
	records := a.Contacts()

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if err := a.ledgerStore.Save(ctx, records); err != nil {
			lastErr = &PersistenceError{Target: "ledger", Err: err}
		} else if err := a.statsStore.Save(ctx, a.stats); err != nil {
			lastErr = &PersistenceError{Target: "statistics", Err: err}
		} else {
			a.pendingFlush = false
			return nil
		}
		a.logger.Warn("Persistence attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", a.maxRetries),
			zap.Error(lastErr))
	}
	a.pendingFlush = true
	return lastErr
}

// Contacts returns a snapshot of all contact records sorted by address
func (a *Aggregator) Contacts() []ContactRecord {
	records := make([]ContactRecord, 0, len(a.contacts))
	for _, rec := range a.contacts {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return NormalizeAddress(records[i].Email) < NormalizeAddress(records[j].Email)
	})
	return records
}

// Contact returns the record for a sender address, if any
func (a *Aggregator) Contact(email string) (ContactRecord, bool) {
	rec, ok := a.contacts[NormalizeAddress(email)]
	if !ok {
		return ContactRecord{}, false
	}
	return *rec, true
}

// Stats returns a copy of the current global statistics
func (a *Aggregator) Stats() GlobalStats {
	return a.stats
}

// ResetStats zeroes the global counters and persists them
func (a *Aggregator) ResetStats(ctx context.Context) error {
	a.stats = GlobalStats{}
	a.recompute()
	if err := a.statsStore.Save(ctx, a.stats); err != nil {
		return &PersistenceError{Target: "statistics", Err: err}
	}
	return nil
}
