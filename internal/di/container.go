package di

import (
	"runtime"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/archive"
	"github.com/mikey/mail-ledger/internal/config"
	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/factory"
	"github.com/mikey/mail-ledger/internal/logging"
	"github.com/mikey/mail-ledger/internal/parser"
	"github.com/mikey/mail-ledger/internal/pipeline"
	"github.com/mikey/mail-ledger/internal/utils"
	"github.com/mikey/mail-ledger/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	return registerComponents(container)
}

// registerComponents registers everything downstream of config and logger.
// Shared between the daemon-style container and the CLI container.
func registerComponents(container *dig.Container) (*dig.Container, error) {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStorageFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTransportFactory); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register stores
	type stores struct {
		dig.Out
		Ledger core.LedgerStore
		Stats  core.StatsStore
	}
	if err := container.Provide(func(f *factory.StorageFactory) (stores, error) {
		ledger, stats, err := f.CreateStores()
		return stores{Ledger: ledger, Stats: stats}, err
	}); err != nil {
		return nil, err
	}

	// Register aggregator
	if err := container.Provide(func(
		ledger core.LedgerStore,
		stats core.StatsStore,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.Aggregator {
		return core.NewAggregator(ledger, stats, logger, cfg.GetStorage().MaxRetries)
	}); err != nil {
		return nil, err
	}

	// Register whitelist checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		domains := cfg.GetSpam().WhitelistedDomains
		if len(domains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", domains))
		}
		return whitelist.NewChecker(domains, logger)
	}); err != nil {
		return nil, err
	}

	// Register spam archive
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.SpamArchive, error) {
		dir := cfg.GetSpam().ArchiveDir
		if dir == "" {
			dir = archive.DefaultDir()
		}
		return archive.NewFileArchive(dir, logger)
	}); err != nil {
		return nil, err
	}

	// Register message normalizer
	if err := container.Provide(parser.NewNormalizer); err != nil {
		return nil, err
	}

	// Register transport
	if err := container.Provide(func(f *factory.TransportFactory) (core.Transport, error) {
		return f.CreateTransport()
	}); err != nil {
		return nil, err
	}

	// Register orchestrator
	if err := container.Provide(func(
		transport core.Transport,
		normalizer *parser.Normalizer,
		classifier core.Classifier,
		aggregator *core.Aggregator,
		spamArchive core.SpamArchive,
		checker *whitelist.Checker,
		cfg *config.Config,
		logger *zap.Logger,
	) *pipeline.Orchestrator {
		workers := cfg.GetProcessing().Workers
		if workers <= 0 {
			workers = runtime.NumCPU() - 1
		}
		return pipeline.NewOrchestrator(pipeline.Config{
			Transport:  transport,
			Normalizer: normalizer,
			Classifier: classifier,
			Aggregator: aggregator,
			Archive:    spamArchive,
			Whitelist:  checker,
			Logger:     logger,
			Workers:    workers,
			DeleteSpam: cfg.GetSpam().DeleteRemote,
		})
	}); err != nil {
		return nil, err
	}

	return container, nil
}
