package migrations_test

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/migrations"
)

func TestUpFiles_SortedWithoutRollbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"010_late.sql":                {Data: []byte("SELECT 1")},
		"002_point_features.sql":      {Data: []byte("SELECT 1")},
		"002_point_features.down.sql": {Data: []byte("SELECT 1")},
		"001_init_extensions.sql":     {Data: []byte("SELECT 1")},
		"README.md":                   {Data: []byte("notes")},
	}
	names, err := migrations.UpFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init_extensions.sql", "002_point_features.sql", "010_late.sql"}, names)
}

func TestUpFiles_RepositoryMigrations(t *testing.T) {
	names, err := migrations.UpFiles(os.DirFS("."))
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init_extensions.sql", "002_point_features.sql"}, names)

	_, err = os.Stat(migrations.DownFile("002_point_features.sql"))
	assert.NoError(t, err, "point_features needs a rollback script")
}

func TestPending(t *testing.T) {
	all := []string{"001_a.sql", "002_b.sql", "003_c.sql"}
	assert.Equal(t, all, migrations.Pending(all, nil))
	assert.Equal(t, []string{"003_c.sql"}, migrations.Pending(all, map[string]bool{"001_a.sql": true, "002_b.sql": true}))
	assert.Empty(t, migrations.Pending(all, map[string]bool{"001_a.sql": true, "002_b.sql": true, "003_c.sql": true}))
}

func TestDownFile(t *testing.T) {
	assert.Equal(t, "002_point_features.down.sql", migrations.DownFile("002_point_features.sql"))
}
