// Command wishlist parses, normalizes, stores and serves dimwishlist files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/config"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
	"github.com/ramonehamilton/wishlist-companion/internal/logging"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
	"github.com/ramonehamilton/wishlist-companion/internal/version"
)

// app holds state shared by every subcommand of one invocation.
type app struct {
	configPath  string
	dbPath      string
	catalogPath string
	logLevel    string
	logFormat   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wishlist",
		Short: "Work with dimwishlist files",
		Long: `wishlist reads and writes the community dimwishlist text format.

Stateless commands (parse, normalize, consolidate, digest) work on files or
stdin. Library commands (import, list, export, stats, serve, watch) keep
wishlists in a local SQLite database.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.wishlist-companion/config.toml)")
	flags.StringVar(&a.dbPath, "db", "", "database path (overrides config)")
	flags.StringVar(&a.catalogPath, "catalog", "", "definition catalog file, JSON or YAML (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		a.parseCmd(),
		a.normalizeCmd(),
		a.consolidateCmd(),
		a.digestCmd(),
		a.importCmd(),
		a.listCmd(),
		a.deleteCmd(),
		a.exportCmd(),
		a.statsCmd(),
		a.serveCmd(),
		a.watchCmd(),
		a.migrateCmd(),
		a.littleLightCmd(),
		a.catalogCmd(),
		a.backupCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.dbPath != "" {
		cfg.Storage.Path = a.dbPath
	}
	if a.catalogPath != "" {
		cfg.Catalog.Path = a.catalogPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

// fileCatalog loads the configured catalog file, or returns nil when none
// is configured.
func (a *app) fileCatalog() (catalog.Source, error) {
	if a.cfg.Catalog.Path == "" {
		return nil, nil
	}
	mem, err := catalog.LoadFile(a.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// openLibrary opens the database and builds a library service. A
// configured catalog file is synced into the database first; otherwise
// previously synced definitions are used.
func (a *app) openLibrary(ctx context.Context) (*library.Service, func(), error) {
	path, err := a.cfg.DatabasePath()
	if err != nil {
		return nil, nil, err
	}
	if path != storage.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dbCfg := storage.DefaultConfig(path)
	dbCfg.AutoMigrate = a.cfg.Storage.AutoMigrate
	db, err := storage.Open(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("error closing database", "error", err)
		}
	}

	defs := repository.NewDefinitionRepository(db.Conn())
	var mem *catalog.Memory
	if a.cfg.Catalog.Path != "" {
		mem, err = library.SyncCatalog(ctx, defs, a.cfg.Catalog.Path)
	} else {
		mem, err = library.LoadCatalog(ctx, defs)
	}
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	opts := []library.Option{library.WithLogger(a.logger)}
	if mem.Len() > 0 {
		opts = append(opts, library.WithCatalog(mem))
	}
	svc := library.NewService(repository.NewWishlistRepository(db.Conn()), opts...)
	return svc, closeDB, nil
}

// readInput reads path, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutput writes text to path, or stdout when path is empty.
func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

var errNoCatalog = errors.New("a definition catalog is required (use --catalog or [catalog] path)")

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return strings.TrimSpace(path)
}
