// Package postgres implements the storage.Backend interface on a PostgreSQL
// server with PostGIS, using the GORM backend's queues and writer goroutine.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/beamcore/internal/database"
	gormstorage "github.com/OCAP2/beamcore/internal/storage/gorm"
	"gorm.io/gorm"
)

// Backend embeds the GORM backend bound to a Postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New connects to the server. gorm pings on open, so an unreachable server
// fails here rather than on the first write.
func New(cfg database.PostgresConfig, logger *slog.Logger) (*Backend, error) {
	db, err := database.OpenPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewWithDB(db, logger)
}

// NewWithDB wraps an existing connection.
func NewWithDB(db *gorm.DB, logger *slog.Logger) (*Backend, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		sqlDB.SetMaxOpenConns(10)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
	}, nil
}

// Init migrates the schema, enabling PostGIS first, and starts the writer.
func (b *Backend) Init() error {
	if err := database.Migrate(b.DB()); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return b.Backend.Init()
}
