package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupExt = ".db"

// ErrNotLibrary is returned when a file is a SQLite database without the
// wishlist schema.
var ErrNotLibrary = errors.New("storage: not a wishlist library")

// BackupManager snapshots and restores a library database file.
type BackupManager struct {
	dbPath string
	dir    string
}

// NewBackupManager returns a manager for the database at dbPath. Backups go
// to dir, or to a "backups" directory next to the database when dir is
// empty.
func NewBackupManager(dbPath, dir string) *BackupManager {
	if dir == "" {
		dir = filepath.Join(filepath.Dir(dbPath), "backups")
	}
	return &BackupManager{dbPath: dbPath, dir: dir}
}

// Dir returns the backup directory.
func (bm *BackupManager) Dir() string {
	return bm.dir
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Checksum  string    `json:"checksum"`
	Wishlists int       `json:"wishlists"`
}

// Backup writes a consistent snapshot of the library with VACUUM INTO and
// verifies it. An empty name yields a timestamped one.
func (bm *BackupManager) Backup(name string) (*BackupInfo, error) {
	if err := os.MkdirAll(bm.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if name == "" {
		name = autoPrefix + time.Now().Format("20060102_150405.000")
	}
	path := filepath.Join(bm.dir, strings.TrimSuffix(name, backupExt)+backupExt)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("backup already exists: %s", path)
	}

	src, err := sql.Open("sqlite", bm.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := src.Exec("VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	info, err := describe(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("backup verification failed: %w", err)
	}
	return info, nil
}

// Restore replaces the library with the backup at path. The current file is
// kept next to it with a ".old.<timestamp>" suffix. Callers must close
// their connections first.
func (bm *BackupManager) Restore(path string) error {
	if _, err := Verify(path); err != nil {
		return err
	}

	tmp := bm.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to copy backup: %w", err)
	}

	if _, err := os.Stat(bm.dbPath); err == nil {
		old := bm.dbPath + ".old." + time.Now().Format("20060102_150405")
		if err := os.Rename(bm.dbPath, old); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("failed to move current database aside: %w", err)
		}
	}
	// A leftover WAL would be replayed into the restored file.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(bm.dbPath + suffix)
	}
	if err := os.Rename(tmp, bm.dbPath); err != nil {
		return fmt.Errorf("failed to replace database: %w", err)
	}
	return nil
}

// List returns the backups in the backup directory, newest first.
func (bm *BackupManager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != backupExt {
			continue
		}
		info, err := describe(filepath.Join(bm.dir, entry.Name()))
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].ModTime.After(backups[j].ModTime)
		}
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// Verify checks that path is a SQLite database holding the wishlist schema
// and returns the number of stored wishlists.
func Verify(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = db.Close() }()

	var tables int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('wishlists', 'wishlist_items')`,
	).Scan(&tables); err != nil {
		return 0, fmt.Errorf("failed to read backup schema: %w", err)
	}
	if tables != 2 {
		return 0, ErrNotLibrary
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM wishlists`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count wishlists: %w", err)
	}
	return n, nil
}

func describe(path string) (*BackupInfo, error) {
	n, err := Verify(path)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	sum, err := fileChecksum(path)
	if err != nil {
		return nil, err
	}
	return &BackupInfo{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      st.Size(),
		ModTime:   st.ModTime(),
		Checksum:  sum,
		Wishlists: n,
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
