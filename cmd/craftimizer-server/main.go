// Craftimizer craft cost server
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rsned/craftimizer-server/internal/craftimizer/catalog"
	"github.com/rsned/craftimizer-server/internal/craftimizer/config"
	"github.com/rsned/craftimizer-server/internal/craftimizer/engine"
	"github.com/rsned/craftimizer-server/internal/craftimizer/server"
	"github.com/rsned/craftimizer-server/internal/craftimizer/sync"
)

func main() {
	// Parse flags
	dbPath := flag.String("db", "", "Path to SQLite database (overrides DB_PATH)")
	importResources := flag.String("import-resources", "", "Import resources from JSON file")
	importEquipment := flag.String("import-equipment", "", "Import equipment from JSON file")
	importConsumables := flag.String("import-consumables", "", "Import consumables from JSON file")
	fetch := flag.Bool("fetch", false, "Fetch the full catalog and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose || strings.EqualFold(cfg.LogLevel, "debug") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	// Open database
	database, err := catalog.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	syncer := sync.NewSyncer(database, logger)
	if cfg.SyncBaseURL != "" {
		syncer.SetBaseURL(cfg.SyncBaseURL)
	}

	// Handle import commands
	imports := map[string]string{
		"resources":   *importResources,
		"equipment":   *importEquipment,
		"consumables": *importConsumables,
	}
	imported := false
	for source, path := range imports {
		if path == "" {
			continue
		}
		logger.Info("importing catalog source", "source", source, "file", path)
		if err := syncer.ImportItemsFromFile(ctx, path, source); err != nil {
			logger.Error("failed to import", "source", source, "error", err)
			os.Exit(1)
		}
		imported = true
	}

	if *fetch {
		logger.Info("fetching catalog")
		if err := syncer.SyncAll(ctx); err != nil {
			logger.Error("failed to fetch catalog", "error", err)
			os.Exit(1)
		}
		logger.Info("catalog fetched successfully")
		return
	}

	// If only doing imports, exit
	if imported && flag.NArg() == 0 {
		return
	}

	// Create engine and server
	store := catalog.NewItemStore(database)
	cached := catalog.NewCachedCatalog(store, 4096, time.Hour)
	calc := engine.New(cached, logger)

	// The first recompute is gated on the initial sync: readiness flips
	// only once the catalog is populated.
	var ready atomic.Bool
	go func() {
		count, err := store.CountItems(ctx)
		if err != nil {
			logger.Error("failed to count items", "error", err)
			return
		}
		if count == 0 && cfg.SyncOnStart {
			logger.Info("catalog empty, running initial sync")
			if err := syncer.SyncAll(ctx); err != nil {
				logger.Error("initial sync failed", "error", err)
				return
			}
			cached.Purge()
		}
		ready.Store(true)
		logger.Info("catalog ready")
	}()

	srv := server.NewServer(cfg.Port, calc, cached, ready.Load, logger)

	logger.Info("starting craftimizer server", "db", cfg.DBPath, "port", cfg.Port)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
}
