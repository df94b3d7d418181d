package directory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func countMigrations(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+migrationTable).Scan(&n))

	return n
}

// TestExtractUpMigration keeps only the Up section.
func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	require.Equal(t, "\nA;\n", extractUpMigration("-- +migrate Up\nA;\n-- +migrate Down\nB;"))
	require.Equal(t, "\nA;", extractUpMigration("-- +migrate Up\nA;"))
	require.Equal(t, "A;", extractUpMigration("A;"))
}

// TestApplyMigrations_RecordsOnceAndSkipsFailures applies, replays and rejects a broken file.
func TestApplyMigrations_RecordsOnceAndSkipsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openRawDB(t)

	good := fstest.MapFS{
		"m/001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items (id TEXT PRIMARY KEY);")},
	}

	require.NoError(t, applyMigrations(ctx, db, good, "m"))
	require.NoError(t, applyMigrations(ctx, db, good, "m"))
	require.Equal(t, 1, countMigrations(t, db))

	bad := fstest.MapFS{
		"m/001_create.sql": good["m/001_create.sql"],
		"m/002_bad.sql":    &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT TABLE nope (id INT);")},
	}

	require.Error(t, applyMigrations(ctx, db, bad, "m"))
	require.Equal(t, 1, countMigrations(t, db))
}
