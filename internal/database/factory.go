package database

import (
	"fmt"
	"os"
	"path/filepath"

	"merovingian/internal/config"
)

// NewDatabaseFromConfig creates a SQLite-backed store based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = config.DefaultDBName
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, name))
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
