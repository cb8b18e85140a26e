package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

// JSONStatsStore persists the global statistics as a structured record file
type JSONStatsStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStatsStore creates a JSON-backed statistics store
func NewJSONStatsStore(path string, logger *zap.Logger) *JSONStatsStore {
	return &JSONStatsStore{path: path, logger: logger}
}

// Load reads the statistics. A missing or corrupt file yields zero-valued
// statistics rather than an error, so a damaged file never blocks a run.
func (s *JSONStatsStore) Load(_ context.Context) (core.GlobalStats, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.GlobalStats{}, nil
		}
		return core.GlobalStats{}, fmt.Errorf("failed to read stats file: %w", err)
	}

	var stats core.GlobalStats
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warn("Corrupt stats file, starting from zero",
			zap.String("path", s.path), zap.Error(err))
		return core.GlobalStats{}, nil
	}
	return stats, nil
}

// Save writes the statistics snapshot atomically via rename
func (s *JSONStatsStore) Save(_ context.Context, stats core.GlobalStats) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".stats-*")
	if err != nil {
		return fmt.Errorf("failed to create temp stats file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp stats file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace stats file: %w", err)
	}
	return nil
}
