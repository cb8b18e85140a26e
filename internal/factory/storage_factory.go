package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/adapters/store"
	"github.com/mikey/mail-ledger/internal/config"
	"github.com/mikey/mail-ledger/internal/core"
)

// StorageFactory creates ledger and statistics stores based on
// configuration
type StorageFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config, logger *zap.Logger) *StorageFactory {
	return &StorageFactory{cfg: cfg, logger: logger}
}

// CreateStores creates the ledger store and statistics store pair
func (f *StorageFactory) CreateStores() (core.LedgerStore, core.StatsStore, error) {
	storageCfg := f.cfg.GetStorage()

	switch storageCfg.Type {
	case "csv":
		ledger := store.NewCSVLedgerStore(storageCfg.LedgerPath, f.logger)
		stats := store.NewJSONStatsStore(storageCfg.StatsPath, f.logger)
		return ledger, stats, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(storageCfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		s, err := store.NewSQLiteStore(storageCfg.SQLitePath, f.logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.StatsStore(), nil
	case "mysql":
		s, err := store.NewMySQLStore(storageCfg.MySQLDSN, f.logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.StatsStore(), nil
	case "memory":
		s := store.NewMemoryStore()
		return s, s.StatsStore(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", storageCfg.Type)
	}
}
