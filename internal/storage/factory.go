// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/OCAP2/beamcore/internal/config"
	"github.com/OCAP2/beamcore/internal/database"
	"github.com/OCAP2/beamcore/internal/storage/memory"
	"github.com/OCAP2/beamcore/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/beamcore/internal/storage/sqlite"
	"github.com/OCAP2/beamcore/internal/storage/websocket"
	"github.com/OCAP2/beamcore/pkg/streaming"
	"gorm.io/gorm"
)

// Storage types accepted in storage.type.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeWebSocket = "websocket"
)

// Options carries what backends need beyond StorageConfig.
type Options struct {
	Logger   *slog.Logger
	Postgres database.PostgresConfig
	// DB is an already connected database for the postgres type, e.g. from
	// database.Manager after it fell back to SQLite.
	DB *gorm.DB
	// DumpName is the sqlite dump file name, placed in the memory output dir.
	DumpName string
}

// NewBackend creates a storage backend based on configuration. The backend is
// not initialized.
func NewBackend(cfg config.StorageConfig, opts Options) (Backend, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return memory.New(cfg.Memory), nil
	case TypeSQLite:
		dump := ""
		if opts.DumpName != "" {
			dump = filepath.Join(cfg.Memory.OutputDir, opts.DumpName)
		}
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     dump,
		}, opts.Logger)
	case TypePostgres:
		if opts.DB != nil {
			return postgres.NewWithDB(opts.DB, opts.Logger)
		}
		return postgres.New(opts.Postgres, opts.Logger)
	case TypeWebSocket:
		codec, err := streaming.CodecFor(cfg.Stream.Encoding)
		if err != nil {
			return nil, err
		}
		return websocket.New(websocket.Config{
			URL:    cfg.Stream.URL,
			Secret: cfg.Stream.Secret,
			Codec:  codec,
		}, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
