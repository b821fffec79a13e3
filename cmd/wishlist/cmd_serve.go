package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/wishlist-companion/internal/api"
	"github.com/ramonehamilton/wishlist-companion/internal/events"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) newWatcher(svc *library.Service, dir string) (*watcher.Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	interval, err := a.cfg.GetPollInterval()
	if err != nil {
		return nil, err
	}
	return watcher.New(watcher.Config{
		Dir:         abs,
		Interval:    interval,
		UseFsnotify: a.cfg.Watch.UseFsnotify,
		Logger:      a.logger,
	}, svc)
}

// backupScheduler returns nil when periodic backups are not configured.
func (a *app) backupScheduler() (*storage.BackupScheduler, error) {
	if a.cfg.Storage.BackupInterval == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(a.cfg.Storage.BackupInterval)
	if err != nil {
		return nil, err
	}
	path, err := a.cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	if path == storage.MemoryPath {
		a.logger.Warn("periodic backups disabled for an in-memory database")
		return nil, nil
	}

	bm := storage.NewBackupManager(path, a.cfg.Storage.BackupDir)
	return storage.NewBackupScheduler(bm, storage.SchedulerConfig{
		Interval: interval,
		Keep:     a.cfg.Storage.BackupKeep,
		OnBackup: func(info *storage.BackupInfo, err error) {
			if err != nil {
				a.logger.Error("scheduled backup failed", "error", err)
				return
			}
			a.logger.Info("scheduled backup written", "path", info.Path, "wishlists", info.Wishlists)
		},
	}), nil
}

func (a *app) serveCmd() *cobra.Command {
	var (
		port     int
		watchDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the wishlist library over HTTP under /api/v1, with a WebSocket event
stream at /ws. With --watch (or [watch] dir), wishlist files in a directory
are imported as they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.API.Port = port
			}
			if watchDir == "" {
				watchDir = a.cfg.Watch.Dir
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, closeDB, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer closeDB()
			svc.Dispatcher().Register(events.NewLoggingObserver(a.logger))

			apiCfg, err := api.ConfigFrom(a.cfg)
			if err != nil {
				return err
			}
			server := api.NewServer(apiCfg, svc, a.logger)
			if err := server.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API server running at http://%s\n", server.Addr())

			if watchDir != "" {
				w, err := a.newWatcher(svc, watchDir)
				if err != nil {
					return errors.Join(err, server.Shutdown(context.Background()))
				}
				if err := w.Start(ctx); err != nil {
					return errors.Join(err, server.Shutdown(context.Background()))
				}
				defer w.Stop()
			}

			if sched, err := a.backupScheduler(); err != nil {
				return errors.Join(err, server.Shutdown(context.Background()))
			} else if sched != nil {
				if err := sched.Start(ctx); err != nil {
					return errors.Join(err, server.Shutdown(context.Background()))
				}
				defer sched.Stop()
			}

			<-ctx.Done()
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "API server port (overrides config)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory of wishlist files to import as they change")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Import wishlist files from a directory as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Watch.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return errors.New("no directory to watch (pass one or set [watch] dir)")
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, closeDB, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer closeDB()
			svc.Dispatcher().Register(events.NewLoggingObserver(a.logger))

			w, err := a.newWatcher(svc, dir)
			if err != nil {
				return err
			}

			if once {
				if err := w.Scan(ctx); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), w.Stats())
			}

			if err := w.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			w.Stop()
			return writeJSON(cmd.OutOrStdout(), w.Stats())
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "scan the directory once and exit")
	return cmd
}
