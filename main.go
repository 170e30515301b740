package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"renov-scraper/config"
	"renov-scraper/models"
	"renov-scraper/scraper/leboncoin"
	"renov-scraper/services"
	"renov-scraper/storage"
	"renov-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("=== Renovation listing acquisition starting ===")
	logger.Info("Config — base: %s | detail concurrency: %d | rate: %dms | score floor: %d | DOM cap: %d | sink: %s",
		cfg.BaseURL, cfg.DetailConcurrency, cfg.RateLimitMs, cfg.MinRenovationScore, cfg.MaxDOMCandidates, cfg.Sink)

	searches, err := cfg.Searches()
	if err != nil {
		logger.Error("Invalid searches: %v", err)
		os.Exit(1)
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	ctx := context.Background()
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	store, err := openStore(ctx, cfg, retry)
	if err != nil {
		logger.Error("Failed to open %s sink: %v", cfg.Sink, err)
		os.Exit(1)
	}
	if store != nil {
		defer store.Close()
	}

	lbc := leboncoin.New(cfg, logger)
	var collected []*models.Listing
	for i, req := range searches {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		listings := lbc.Run(runCtx, req)
		cancel()

		logger.Info("Search %d/%d (%s): %d listings", i+1, len(searches), req, len(listings))
		collected = append(collected, listings...)
	}

	cleaner := services.NewCleaner(logger)
	cleanListings := cleaner.Clean(collected)
	if len(cleanListings) == 0 {
		logger.Warn("No listings collected this run.")
		return
	}

	if err := csvWriter.Write(ctx, cleanListings); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Listings exported to %s", cfg.CSVOutputPath)
	}

	reportSet := cleanListings
	if store != nil {
		reportSet = persist(ctx, store, cleanListings, logger)
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(reportSet)
	insightSvc.Print(report)

	fmt.Printf("  Done. CSV → %s | Sink → %s\n\n", cfg.CSVOutputPath, cfg.Sink)
}

// openStore returns the configured sink, or nil when Sink is "none".
func openStore(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig) (storage.ListingStore, error) {
	switch cfg.Sink {
	case "postgres":
		return storage.NewPostgresWriter(cfg.DSN(), retry)
	case "mongo":
		return storage.NewMongoWriter(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoCollection, retry)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sink %q (want postgres, mongo or none)", cfg.Sink)
	}
}

// persist drops re-listed properties, upserts the rest and returns the stored
// dataset for reporting. On read failure the freshly written listings are
// returned instead.
func persist(ctx context.Context, store storage.ListingStore, listings []*models.Listing, logger *utils.Logger) []*models.Listing {
	owners, err := store.FingerprintOwners(ctx, storage.Fingerprints(listings))
	if err != nil {
		logger.Warn("Fingerprint lookup failed, writing without re-listing check: %v", err)
	} else {
		var dropped int
		listings, dropped = storage.DropRelisted(listings, owners)
		if dropped > 0 {
			logger.Info("Skipped %d re-listed properties already stored under another id", dropped)
		}
	}

	if err := store.Write(ctx, listings); err != nil {
		logger.Error("Sink write failed: %v", err)
		return listings
	}
	logger.Info("%d listings upserted", len(listings))

	stored, err := store.FetchAll(ctx)
	if err != nil {
		logger.Error("Failed to fetch listings for insights: %v", err)
		return listings
	}
	return stored
}
