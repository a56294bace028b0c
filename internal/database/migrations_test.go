package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_geo_index.sql": {Data: []byte("CREATE INDEX ...")},
		"001_init.sql":      {Data: []byte("CREATE TABLE ...")},
		"010_counter.sql":   {Data: []byte("CREATE TABLE ...")},
		"README.md":         {Data: []byte("notes")},
		"archive/old.sql":   {Data: []byte("DROP TABLE ...")},
	}

	files, err := migrationFiles(fsys)
	require.NoError(t, err)

	// sorted by name, .sql at the root only
	assert.Equal(t, []string{"001_init.sql", "002_geo_index.sql", "010_counter.sql"}, files)
}

func TestMigrationFiles_Empty(t *testing.T) {
	files, err := migrationFiles(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, files)
}
