package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// autoPrefix names the backups written without an explicit name; only
// those are pruned.
const autoPrefix = "wishlists_"

// Prune removes the oldest automatic backups so that at most keep remain.
// Named backups are never removed. keep <= 0 disables pruning.
func (bm *BackupManager) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	backups, err := bm.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	seen := 0
	for _, b := range backups {
		if !strings.HasPrefix(b.Name, autoPrefix) {
			continue
		}
		seen++
		if seen <= keep {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", b.Name, err)
		}
		removed++
	}
	return removed, nil
}

// SchedulerConfig configures a BackupScheduler.
type SchedulerConfig struct {
	Interval time.Duration
	// Keep is the number of automatic backups retained; 0 keeps all.
	Keep int
	// OnBackup is called after every attempt.
	OnBackup func(info *BackupInfo, err error)
}

// BackupScheduler writes a backup every interval until stopped.
type BackupScheduler struct {
	manager *BackupManager
	cfg     SchedulerConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	count   int
	failed  int
	lastErr error
}

// NewBackupScheduler returns a stopped scheduler.
func NewBackupScheduler(manager *BackupManager, cfg SchedulerConfig) *BackupScheduler {
	return &BackupScheduler{manager: manager, cfg: cfg}
}

// Start runs the schedule until ctx is cancelled or Stop is called.
func (s *BackupScheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("backup interval must be positive: %v", s.cfg.Interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	return nil
}

func (s *BackupScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce writes one backup and prunes old ones.
func (s *BackupScheduler) RunOnce() {
	info, err := s.manager.Backup("")
	if err == nil {
		_, err = s.manager.Prune(s.cfg.Keep)
	}

	s.mu.Lock()
	if err != nil {
		s.failed++
	} else {
		s.count++
	}
	s.lastErr = err
	s.mu.Unlock()

	if s.cfg.OnBackup != nil {
		s.cfg.OnBackup(info, err)
	}
}

// Stop stops the schedule and waits for a running backup to finish.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Stats returns the number of successful and failed backups and the last
// error.
func (s *BackupScheduler) Stats() (count, failed int, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, s.failed, s.lastErr
}
