package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreLedgerRoundTrip(t *testing.T) {
	s := testSQLiteStore(t)
	ctx := context.Background()

	records := []core.ContactRecord{
		{
			Email:           "a@x.example",
			LastContact:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			IsAdvertisement: true,
			UnsubscribeURL:  "https://x.example/unsub",
			TotalMessages:   3,
			AdMessages:      2,
		},
		{
			Email:         "b@y.example",
			LastContact:   time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC),
			TotalMessages: 1,
		},
	}
	if err := s.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records", len(loaded))
	}
	if loaded[0].Email != "a@x.example" || loaded[0].AdMessages != 2 {
		t.Errorf("loaded[0] = %+v", loaded[0])
	}

	// Save replaces the whole snapshot
	if err := s.Save(ctx, records[:1]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, _ = s.Load(ctx)
	if len(loaded) != 1 {
		t.Errorf("loaded %d records after snapshot replace", len(loaded))
	}
}

func TestSQLiteStoreStatsRoundTrip(t *testing.T) {
	s := testSQLiteStore(t)
	ctx := context.Background()

	stats, err := s.LoadStats(ctx)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats != (core.GlobalStats{}) {
		t.Errorf("fresh stats = %+v", stats)
	}

	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := core.GlobalStats{
		TotalProcessed:      10,
		TotalAdvertisements: 4,
		UniqueSenders:       7,
		AdvertisementRate:   40.0,
		LastProcessedAt:     &last,
	}
	if err := s.SaveStats(ctx, want); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}

	got, err := s.StatsStore().Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TotalProcessed != 10 || got.TotalAdvertisements != 4 || got.AdvertisementRate != 40.0 {
		t.Errorf("got = %+v", got)
	}
	if got.LastProcessedAt == nil || !got.LastProcessedAt.Equal(last) {
		t.Errorf("LastProcessedAt = %v", got.LastProcessedAt)
	}
}
