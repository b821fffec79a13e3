// Package main provides a standalone REST API server for E2E testing.
// It serves the wishlist library without the CLI, so frontend tests can run
// against a real backend with a throwaway database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ramonehamilton/wishlist-companion/internal/api"
	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/config"
	"github.com/ramonehamilton/wishlist-companion/internal/events"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
	"github.com/ramonehamilton/wishlist-companion/internal/logging"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	dbPath      = flag.String("db-path", "", "Database path (default: ~/.wishlist-companion/wishlists.db, \":memory:\" for a throwaway database)")
	catalogPath = flag.String("catalog", "", "Definition catalog file to sync before serving")
)

func main() {
	flag.Parse()

	fmt.Println("Wishlist Companion - REST API Server")
	fmt.Println("====================================")
	fmt.Println()
	fmt.Printf("Starting API server on port %d...\n", *port)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.API.Port = *port
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	logger := logging.New(os.Stderr, cfg.Log)

	finalDBPath, err := cfg.DatabasePath()
	if err != nil {
		log.Fatalf("Failed to resolve database path: %v", err)
	}
	if finalDBPath != storage.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(finalDBPath), 0o755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
	}

	fmt.Printf("Database: %s\n", finalDBPath)

	dbCfg := storage.DefaultConfig(finalDBPath)
	dbCfg.AutoMigrate = true
	db, err := storage.Open(dbCfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	ctx := context.Background()

	defs := repository.NewDefinitionRepository(db.Conn())
	var mem *catalog.Memory
	if cfg.Catalog.Path != "" {
		mem, err = library.SyncCatalog(ctx, defs, cfg.Catalog.Path)
	} else {
		mem, err = library.LoadCatalog(ctx, defs)
	}
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	fmt.Printf("Catalog: %d definitions\n", mem.Len())

	opts := []library.Option{library.WithLogger(logger)}
	if mem.Len() > 0 {
		opts = append(opts, library.WithCatalog(mem))
	}
	svc := library.NewService(repository.NewWishlistRepository(db.Conn()), opts...)
	svc.Dispatcher().Register(events.NewLoggingObserver(logger))

	apiConfig, err := api.ConfigFrom(cfg)
	if err != nil {
		log.Fatalf("Invalid API config: %v", err)
	}
	server := api.NewServer(apiConfig, svc, logger)

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Println()
	fmt.Printf("API server running at http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	fmt.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	fmt.Println("API server stopped.")
}
