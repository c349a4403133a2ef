package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations_Embedded(t *testing.T) {
	migrations, err := readMigrations(migrationFS, "migrations")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Number)
	assert.Equal(t, "catalog", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS maintainers")
	assert.Equal(t, 2, migrations[1].Number)
	assert.Equal(t, "active_indexes", migrations[1].Name)
}

func TestReadMigrations_SortsAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_later.sql":      {Data: []byte("SELECT 10;")},
		"m/002_first_step.sql": {Data: []byte("SELECT 2;")},
		"m/notes.txt":          {Data: []byte("ignored")},
		"m/abc_bad.sql":        {Data: []byte("ignored")},
		"m/nounderscore.sql":   {Data: []byte("ignored")},
	}

	migrations, err := readMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Number)
	assert.Equal(t, "first_step", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Number)
	assert.Equal(t, "SELECT 10;", migrations[1].SQL)
}

func TestWithSSLDisabled(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db?sslmode=disable", withSSLDisabled("postgres://u@h/db"))
	assert.Equal(t, "postgres://u@h/db?x=1&sslmode=disable", withSSLDisabled("postgres://u@h/db?x=1"))
	assert.Equal(t, "host=h dbname=db sslmode=disable", withSSLDisabled("host=h dbname=db"))
}
