package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

func TestJSONStatsStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	s := NewJSONStatsStore(path, zap.NewNop())
	ctx := context.Background()

	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := core.GlobalStats{
		TotalProcessed:      10,
		TotalAdvertisements: 4,
		UniqueSenders:       7,
		AdvertisementRate:   40.0,
		LastProcessedAt:     &last,
	}
	if err := s.Save(ctx, stats); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.TotalProcessed != 10 || loaded.TotalAdvertisements != 4 ||
		loaded.UniqueSenders != 7 || loaded.AdvertisementRate != 40.0 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.LastProcessedAt == nil || !loaded.LastProcessedAt.Equal(last) {
		t.Errorf("LastProcessedAt = %v", loaded.LastProcessedAt)
	}
}

func TestJSONStatsStoreFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	s := NewJSONStatsStore(path, zap.NewNop())

	if err := s.Save(context.Background(), core.GlobalStats{TotalProcessed: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{
		"total_messages_processed",
		"total_advertisements",
		"unique_senders",
		"advertisement_rate",
		"last_processed",
	} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}
}

func TestJSONStatsStoreMissingFile(t *testing.T) {
	s := NewJSONStatsStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())

	stats, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats != (core.GlobalStats{}) {
		t.Errorf("stats = %+v; want zero values", stats)
	}
}

func TestJSONStatsStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewJSONStatsStore(path, zap.NewNop())

	stats, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats != (core.GlobalStats{}) {
		t.Errorf("stats = %+v; want zero values", stats)
	}
}
