package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/parser"
	"github.com/mikey/mail-ledger/internal/whitelist"
)

// Orchestrator drives one processing run: it fetches messages, partitions
// them across workers, collects the deltas each worker produces, and merges
// them into the aggregator from a single goroutine. Workers never touch the
// ledger; they are pure functions from raw messages to deltas.
type Orchestrator struct {
	transport  core.Transport
	normalizer *parser.Normalizer
	classifier core.Classifier
	aggregator *core.Aggregator
	archive    core.SpamArchive
	whitelist  *whitelist.Checker
	logger     *zap.Logger

	workers    int
	deleteSpam bool
	progress   core.ProgressFunc
}

// Config holds the orchestrator dependencies and knobs
type Config struct {
	Transport  core.Transport
	Normalizer *parser.Normalizer
	Classifier core.Classifier
	Aggregator *core.Aggregator
	Archive    core.SpamArchive
	Whitelist  *whitelist.Checker
	Logger     *zap.Logger
	Workers    int
	DeleteSpam bool
}

// NewOrchestrator creates a batch orchestrator
func NewOrchestrator(cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		transport:  cfg.Transport,
		normalizer: cfg.Normalizer,
		classifier: cfg.Classifier,
		aggregator: cfg.Aggregator,
		archive:    cfg.Archive,
		whitelist:  cfg.Whitelist,
		logger:     cfg.Logger,
		workers:    workers,
		deleteSpam: cfg.DeleteSpam,
	}
}

// SetProgressFunc registers the optional per-delta observer. At most one
// observer is active per run.
func (o *Orchestrator) SetProgressFunc(fn core.ProgressFunc) {
	o.progress = fn
}

// RunSummary describes a completed processing run
type RunSummary struct {
	Fetched        int
	Processed      int
	Skipped        int
	Advertisements int
	Archived       int
	Deleted        int
	Elapsed        time.Duration
}

// fetchedMessage pairs raw bytes with the 1-based mailbox index they came
// from, which stays valid for deletion for the whole session
type fetchedMessage struct {
	index int
	raw   []byte
}

// workerItem is one successfully processed message: the delta to merge plus
// what spam handling needs
type workerItem struct {
	delta core.UpdateDelta
	index int
	raw   []byte
}

// batchResult is everything one worker produced from its batch
type batchResult struct {
	items   []workerItem
	skipped int
}

// Run processes up to limit messages (all of them when limit <= 0) and
// persists the ledger and statistics once at the end. Individual message
// failures are skipped, never fatal to the run.
func (o *Orchestrator) Run(ctx context.Context, limit int) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{}

	count, err := o.transport.Count(ctx)
	if err != nil {
		return summary, err
	}
	end := count
	if limit > 0 && limit < count {
		end = limit
	}

	messages := o.fetchAll(ctx, end, summary)
	o.logger.Info("Fetched messages",
		zap.Int("available", count),
		zap.Int("fetched", len(messages)))

	// One observer goroutine consumes every delta in arrival order and
	// terminates when the channel is closed after all batches complete
	progressCh := make(chan core.UpdateDelta, 64)
	var observerWG sync.WaitGroup
	observerWG.Add(1)
	go func() {
		defer observerWG.Done()
		for delta := range progressCh {
			o.notify(delta)
		}
	}()

	resultCh := make(chan batchResult)
	var workerWG sync.WaitGroup
	for _, batch := range partition(messages, o.workers) {
		workerWG.Add(1)
		go func(batch []fetchedMessage) {
			defer workerWG.Done()
			resultCh <- o.processBatch(ctx, batch, progressCh)
		}(batch)
	}
	go func() {
		workerWG.Wait()
		close(resultCh)
	}()

	// Single-writer merge: only this goroutine mutates the aggregator,
	// in the order batches complete
	for result := range resultCh {
		summary.Skipped += result.skipped
		for _, item := range result.items {
			if err := o.aggregator.Apply(ctx, item.delta); err != nil {
				o.logger.Error("Failed to apply delta",
					zap.String("sender", item.delta.SenderEmail),
					zap.Error(err))
				continue
			}
			summary.Processed++
			if item.delta.IsAdvertisement {
				summary.Advertisements++
				o.handleSpam(ctx, item, summary)
			}
		}
	}

	close(progressCh)
	observerWG.Wait()

	flushErr := o.aggregator.Flush(ctx)
	if err := o.transport.Close(); err != nil {
		o.logger.Error("Failed to close transport", zap.Error(err))
	}

	summary.Elapsed = time.Since(start)
	o.logSummary(summary)
	return summary, flushErr
}

// fetchAll retrieves messages 1..end, skipping individual fetch failures
func (o *Orchestrator) fetchAll(ctx context.Context, end int, summary *RunSummary) []fetchedMessage {
	messages := make([]fetchedMessage, 0, end)
	for i := 1; i <= end; i++ {
		raw, err := o.transport.Fetch(ctx, i)
		if err != nil {
			o.logger.Warn("Skipping unfetchable message", zap.Int("index", i), zap.Error(err))
			summary.Skipped++
			continue
		}
		messages = append(messages, fetchedMessage{index: i, raw: raw})
	}
	summary.Fetched = len(messages)
	return messages
}

// processBatch normalizes and classifies every message in one contiguous
// batch. It mutates no shared state; deltas flow out through the return
// value (for the merge) and the progress channel (for the observer).
func (o *Orchestrator) processBatch(ctx context.Context, batch []fetchedMessage, progressCh chan<- core.UpdateDelta) batchResult {
	result := batchResult{}
	for _, msg := range batch {
		normalized, err := o.normalizer.Normalize(msg.raw)
		if err != nil {
			o.logger.Warn("Skipping malformed message",
				zap.Int("index", msg.index),
				zap.Error(err))
			result.skipped++
			continue
		}

		isAd := false
		if o.whitelist == nil || !o.whitelist.IsWhitelisted(normalized.SenderEmail) {
			classification, err := o.classifier.Classify(ctx, normalized.Subject+" "+normalized.BodyText)
			if err != nil {
				o.logger.Warn("Skipping unclassifiable message",
					zap.Int("index", msg.index),
					zap.Error(err))
				result.skipped++
				continue
			}
			isAd = classification.IsAdvertisement
		}

		delta := core.UpdateDelta{
			SenderEmail:     normalized.SenderEmail,
			Timestamp:       normalized.Date,
			IsAdvertisement: isAd,
			UnsubscribeURL:  normalized.UnsubscribeURL,
		}
		result.items = append(result.items, workerItem{delta: delta, index: msg.index, raw: msg.raw})
		progressCh <- delta
	}
	return result
}

// handleSpam archives a promotional message locally and, only if archival
// succeeded, deletes it from the server. A message is never deleted without
// a durable local copy.
func (o *Orchestrator) handleSpam(ctx context.Context, item workerItem, summary *RunSummary) {
	if !o.deleteSpam || o.archive == nil {
		return
	}

	if _, err := o.archive.Store(item.raw, item.delta.Timestamp, item.index); err != nil {
		o.logger.Error("Archival failed, keeping message on server",
			zap.Int("index", item.index),
			zap.Error(err))
		return
	}
	summary.Archived++

	if err := o.transport.Delete(ctx, item.index); err != nil {
		var fetchErr *core.FetchError
		if errors.As(err, &fetchErr) {
			o.logger.Warn("Failed to delete archived message",
				zap.Int("index", item.index),
				zap.Error(err))
		} else {
			o.logger.Error("Failed to delete archived message",
				zap.Int("index", item.index),
				zap.Error(err))
		}
		return
	}
	summary.Deleted++
}

// notify invokes the progress callback, isolating the run from callback
// failures
func (o *Orchestrator) notify(delta core.UpdateDelta) {
	if o.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Progress callback panicked", zap.Any("panic", r))
		}
	}()
	o.progress(delta)
}

func (o *Orchestrator) logSummary(summary *RunSummary) {
	stats := o.aggregator.Stats()
	o.logger.Info("Processing complete",
		zap.Int("fetched", summary.Fetched),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("advertisements", summary.Advertisements),
		zap.Int("unique_senders", stats.UniqueSenders),
		zap.Float64("advertisement_rate", stats.AdvertisementRate),
		zap.Duration("elapsed", summary.Elapsed))
}

// partition splits messages into at most n roughly-equal contiguous batches
func partition(messages []fetchedMessage, n int) [][]fetchedMessage {
	if len(messages) == 0 {
		return nil
	}
	if n > len(messages) {
		n = len(messages)
	}

	batches := make([][]fetchedMessage, 0, n)
	base := len(messages) / n
	extra := len(messages) % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		batches = append(batches, messages[start:start+size])
		start += size
	}
	return batches
}
