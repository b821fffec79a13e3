package storage

import (
	"database/sql"
)

// NewTestDB wraps an existing connection, typically an in-memory database
// opened by a test in another package.
func NewTestDB(sqlDB *sql.DB) *DB {
	return &DB{conn: sqlDB}
}

// OpenMemory opens an in-memory database with the schema applied.
func OpenMemory() (*DB, error) {
	cfg := DefaultConfig(MemoryPath)
	cfg.AutoMigrate = true
	return Open(cfg)
}
