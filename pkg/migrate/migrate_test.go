package migrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"m/001_create_runs.up.sql":   {Data: []byte("CREATE TABLE runs (name TEXT PRIMARY KEY);")},
	"m/001_create_runs.down.sql": {Data: []byte("DROP TABLE runs;")},
	"m/002_add_model.up.sql":     {Data: []byte("ALTER TABLE runs ADD COLUMN model TEXT;")},
	"m/002_add_model.down.sql":   {Data: []byte("ALTER TABLE runs DROP COLUMN model;")},
	"m/README.md":                {Data: []byte("not a migration")},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFSProviderGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testMigrations, "m", "").GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create runs", migrations[0].Name)
	assert.NotEmpty(t, migrations[0].Down)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "m", ""))

	var applied []Applied
	m.OnApply = func(a Applied) { applied = append(applied, a) }

	require.NoError(t, m.MigrateUp())
	v, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Len(t, applied, 2)

	_, err = db.Exec("INSERT INTO runs (name, model) VALUES ('default', 'fixed')")
	require.NoError(t, err)

	pending, err := m.GetPendingMigrations()
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, m.MigrateTo(1))
	v, err = m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, applied[len(applied)-1].Up)

	pending, err = m.GetPendingMigrations()
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, m.MigrateTo(0))
	_, err = db.Exec("SELECT name FROM runs")
	assert.Error(t, err)
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "m", "versions"))
	require.NoError(t, m.MigrateUp())
	require.NoError(t, m.MigrateUp())

	v, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
