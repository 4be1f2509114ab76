package repository

import (
	"context"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ksugimori/docscan/internal/entity"
)

type Config struct {
	// Path is the SQLite database file; ":memory:" is accepted for tests.
	Path string
}

// Open connects to the SQLite database, enables foreign-key enforcement,
// and migrates the schema.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("db.open", "path", cfg.Path)

	dsn := cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Error("db.open.failed", "path", cfg.Path, "error", err)
		return nil, err
	}

	// Single-user tool: one writer avoids SQLITE_BUSY under gorm's pool.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("db.ping.failed", "error", err)
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&entity.Condition{},
		&entity.DataItem{},
		&entity.DocumentList{},
		&entity.Document{},
		&entity.ExtractionResult{},
	); err != nil {
		log.Error("db.migrate.failed", "error", err)
		return nil, err
	}

	log.Info("db.open.ok")
	return db, nil
}

// Close closes the underlying connection gracefully.
func Close(db *gorm.DB, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("db.close.failed", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("db.close.failed", "error", err)
		return
	}
	log.Info("db.close.ok")
}
