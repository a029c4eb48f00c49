package main

import (
	"fmt"
	"os"

	"product-consolidator/config"
	"product-consolidator/ingest"
	"product-consolidator/services"
	"product-consolidator/storage"
	"product-consolidator/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Product Consolidation System starting ===")
	logger.Info("Config — input: %s | reference month: %s | MSV window: %d–%d | backend: %s",
		cfg.SnapshotZIPPath, cfg.ReferenceMonth,
		cfg.Years()[0], cfg.Years()[len(cfg.Years())-1], cfg.StorageBackend)

	months := cfg.Months()
	years := cfg.Years()

	// Phase 1: load monthly snapshots.
	loader := ingest.NewLoader(logger, months, cfg.ReferenceMonth)
	snapshots, warnings, err := loader.LoadZIP(cfg.SnapshotZIPPath)
	for _, w := range warnings {
		logger.Warn("[ingest] %s", w)
	}
	if err != nil {
		logger.Error("Snapshot load failed: %v", err)
		os.Exit(1)
	}
	if err := loader.Validate(snapshots); err != nil {
		logger.Error("Snapshot validation failed: %v", err)
		os.Exit(1)
	}

	// Phase 2: consolidate into one row per product key.
	builder := services.NewBuilder(logger, months)
	master := builder.BuildMaster(snapshots)
	if len(master) == 0 {
		logger.Error("No products after consolidation. Exiting.")
		os.Exit(1)
	}

	merger := services.NewMerger(logger, months, cfg.ReferenceMonth)
	master = merger.MergeAttributes(master, snapshots)

	peaks := services.NewPeakService(logger, months, years)
	master = peaks.PopularityPeaks(master)

	// Phase 3: keyword/category enrichment.
	if enricher := newEnricher(); enricher != nil {
		enrichment := services.NewEnrichmentService(logger, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)
		master = enrichment.Apply(master, enricher)
	} else {
		logger.Info("No enrichment service configured — skipping keyword/category enrichment")
	}

	// Phase 4: merge MSV data and derive seasonality + true peaks.
	if cfg.MSVFilePath != "" {
		msvLoader := ingest.NewMSVLoader(logger, months, years)
		records, err := msvLoader.Load(cfg.MSVFilePath)
		if err != nil {
			logger.Error("MSV load failed: %v", err)
			os.Exit(1)
		}

		msvMerger := services.NewMSVMerger(logger, months, years)
		master, err = msvMerger.Merge(master, records)
		if err != nil {
			logger.Error("MSV merge failed: %v", err)
			os.Exit(1)
		}

		master = peaks.TruePeaks(master)
	} else {
		logger.Info("No MSV file configured — skipping seasonality and true-peak analysis")
	}

	// Phase 5: export.
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath, months, years)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(master); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Consolidated table saved to %s", cfg.CSVOutputPath)
	}

	store := openStore(cfg, logger)
	dbProducts := master
	if store != nil {
		defer store.Close()
		if err := store.Write(master); err != nil {
			logger.Error("%s write failed: %v", cfg.StorageBackend, err)
		} else {
			logger.Info("Consolidated table stored in %s (table: products)", cfg.StorageBackend)
		}
		if fetched, err := store.FetchAll(); err != nil {
			logger.Error("Failed to fetch products from store for insights: %v", err)
		} else if len(fetched) > 0 {
			dbProducts = fetched
		}
	}

	// Phase 6: insights.
	insightSvc := services.NewInsightService(logger, months, years)
	report := insightSvc.Generate(dbProducts)
	insightSvc.Print(report)

	fmt.Printf("  Done. Consolidated CSV → %s | %d products\n\n",
		cfg.CSVOutputPath, len(master))
}

// newEnricher returns the external keyword/category enrichment client.
// The production implementation is a remote LLM-backed API; no client ships
// with this repository, so consolidation runs unenriched and MSV joins fall
// back to product key or title.
func newEnricher() services.Enricher {
	return nil
}

// openStore picks the configured database backend; "none" disables
// persistence beyond the CSV export.
func openStore(cfg *config.Config, logger *utils.Logger) storage.ProductStore {
	switch cfg.StorageBackend {
	case "postgres":
		store, err := storage.NewPostgresWriter(cfg.DSN(), cfg.Months(), cfg.Years())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure the database is running, or set STORAGE_BACKEND=sqlite")
			os.Exit(1)
		}
		return store
	case "sqlite":
		store, err := storage.NewSQLiteWriter(cfg.SQLitePath, cfg.Months(), cfg.Years())
		if err != nil {
			logger.Error("Failed to open SQLite database: %v", err)
			os.Exit(1)
		}
		return store
	case "none":
		return nil
	default:
		logger.Error("Unknown STORAGE_BACKEND %q (expected postgres, sqlite or none)", cfg.StorageBackend)
		os.Exit(1)
		return nil
	}
}
