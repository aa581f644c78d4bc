// Package postgres records the journal into PostgreSQL through the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/database"
	"github.com/moonfall/colonysim/internal/logging"
	gormstorage "github.com/moonfall/colonysim/internal/storage/gorm"
)

// Dependencies holds everything the postgres backend needs. DB may be
// injected; otherwise Init connects with Config.
type Dependencies struct {
	DB     *gorm.DB
	Config config.DBConfig
	Logger *slog.Logger
}

// Backend is the GORM backend bound to a Postgres connection. Init must run
// before any other method.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Backend{deps: deps}
}

// Init connects, validates the connection and starts the GORM writer.
func (b *Backend) Init() error {
	db := b.deps.DB
	if db == nil {
		var err error
		if db, err = database.OpenPostgres(b.deps.Config); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	b.deps.DB = db
	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.deps.Logger})
	if err := b.Backend.Init(); err != nil {
		return err
	}
	b.deps.Logger.Info("postgres journal ready", "host", b.deps.Config.Host, "database", b.deps.Config.Database)
	return nil
}

// Close stops the writer and closes the connection pool.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
