package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/config"
	"github.com/mikey/mail-ledger/internal/core"
	"github.com/mikey/mail-ledger/internal/di"
	"github.com/mikey/mail-ledger/internal/pipeline"
)

func main() {
	flags := di.ParseFlags()

	// With -config the whole setup (including the logger) comes from the
	// config file; otherwise the flags synthesize the configuration
	var container *dig.Container
	var err error
	if flags.ConfigFile != "" {
		container, err = di.BuildContainer()
	} else {
		container, err = di.BuildCLIContainer(flags)
	}
	if err != nil {
		fmt.Printf("Failed to build application container: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if err := container.Invoke(func(l *zap.Logger) { logger = l }); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.ShowStats {
		if err := container.Invoke(func(aggregator *core.Aggregator) error {
			if err := aggregator.Load(ctx); err != nil {
				return err
			}
			printStats(aggregator.Stats())
			return nil
		}); err != nil {
			logger.Fatal("Failed to load statistics", zap.Error(err))
		}
		return
	}

	err = container.Invoke(func(
		orchestrator *pipeline.Orchestrator,
		aggregator *core.Aggregator,
		cfg *config.Config,
	) error {
		if err := aggregator.Load(ctx); err != nil {
			return err
		}

		if flags.ResetStats {
			if err := aggregator.ResetStats(ctx); err != nil {
				return err
			}
			logger.Info("Statistics reset")
		}

		if flags.Verbose {
			orchestrator.SetProgressFunc(func(delta core.UpdateDelta) {
				marker := " "
				if delta.IsAdvertisement {
					marker = "*"
				}
				fmt.Printf("%s %s (%s)\n", marker, delta.SenderEmail, delta.Timestamp.Format("2006-01-02 15:04"))
			})
		}

		summary, err := orchestrator.Run(ctx, cfg.GetProcessing().Limit)
		if err != nil {
			return err
		}

		printSummary(summary)
		printStats(aggregator.Stats())
		return nil
	})
	if err != nil {
		logger.Fatal("Processing run failed", zap.Error(err))
	}
}

func printSummary(summary *pipeline.RunSummary) {
	fmt.Printf("\n=== Run Summary ===\n")
	fmt.Printf("Fetched: %d\n", summary.Fetched)
	fmt.Printf("Processed: %d\n", summary.Processed)
	fmt.Printf("Skipped: %d\n", summary.Skipped)
	fmt.Printf("Advertisements: %d\n", summary.Advertisements)
	fmt.Printf("Archived: %d\n", summary.Archived)
	fmt.Printf("Deleted: %d\n", summary.Deleted)
	fmt.Printf("Elapsed: %v\n", summary.Elapsed)
}

func printStats(stats core.GlobalStats) {
	fmt.Printf("\n=== Statistics ===\n")
	fmt.Printf("Total messages processed: %d\n", stats.TotalProcessed)
	fmt.Printf("Total advertisements: %d\n", stats.TotalAdvertisements)
	fmt.Printf("Unique senders: %d\n", stats.UniqueSenders)
	fmt.Printf("Advertisement rate: %.1f%%\n", stats.AdvertisementRate)
	if stats.LastProcessedAt != nil {
		fmt.Printf("Last processed: %s\n", stats.LastProcessedAt.Format("2006-01-02 15:04:05"))
	}
}
