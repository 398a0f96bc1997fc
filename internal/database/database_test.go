package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/beamcore/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", Username: "u", Password: "p", Database: "beams"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=beams sslmode=disable", cfg.DSN())
}

func TestPostgresConfigFromViper(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "pg")
	viper.Set("db.port", "6543")
	viper.Set("db.username", "sim")
	viper.Set("db.password", "secret")
	viper.Set("db.database", "rec")

	cfg := PostgresConfigFromViper()
	assert.Equal(t, PostgresConfig{Host: "pg", Port: "6543", Username: "sim", Password: "secret", Database: "rec"}, cfg)
}

func TestOpenSQLite_MemoryIsolated(t *testing.T) {
	a, err := OpenSQLite("")
	require.NoError(t, err)
	b, err := OpenSQLite("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	require.NoError(t, a.Create(&model.Mission{MissionName: "A"}).Error)

	assert.False(t, b.Migrator().HasTable(&model.Mission{}))
}

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Mission{MissionName: "Dumped"}).Error)

	path := filepath.Join(t.TempDir(), "sub", "rec.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := OpenSQLite(path)
	require.NoError(t, err)
	var got model.Mission
	require.NoError(t, disk.First(&got).Error)
	assert.Equal(t, "Dumped", got.MissionName)
}

func TestDumpMemoryDBToDisk_Errors(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)

	assert.ErrorIs(t, DumpMemoryDBToDisk(db, ""), ErrNoDumpPath)
	assert.Error(t, DumpMemoryDBToDisk(db, filepath.Join(t.TempDir(), "it's.db")))
}

func TestManager_SetupAndDump(t *testing.T) {
	m := NewManager(zerolog.Nop())
	db, err := OpenSQLite("")
	require.NoError(t, err)
	m.DB = db

	require.NoError(t, m.Setup())
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, m.DumpToDisk(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestBackupPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.db"), 0o755))

	paths, err := BackupPaths(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.db")}, paths)
}
