package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// Test Plan for relational export:
// - Table is created from the layout with an id primary key
// - Every record becomes one row with layout column values
// - Re-export appends unless fresh, fresh drops the old rows
// - Every batch records a GenerationRuns row with the shared run id
// - CHECK constraint on subservice type rejects unknown values
// - OpenSQLite creates a database file

var fixedNow = func() time.Time { return time.Date(2021, 5, 28, 18, 12, 56, 0, time.UTC) }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestWriteSQLite_InsertsRows(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewSQLite(db, SQLiteOptions{RunID: "run-1", Now: fixedNow})
	require.NoError(t, WriteSQLite(context.Background(), s, mib.EventLayout, eventTable()))

	rows, err := db.Query("SELECT id, eventid, eventidhex, name, severity FROM Events ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		id       int
		eventID  int
		hex      string
		name     string
		severity string
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.id, &r.eventID, &r.hex, &r.name, &r.severity))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []row{
		{1, 2200, "0x0898", "STORE_SEND_WRITE_FAILED", "LOW"},
		{2, 8900, "0x22C4", "CLOCK_SET", "INFO"},
	}, got)
}

func TestWriteSQLite_FreshDropsPreviousRows(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	appendOnly := NewSQLite(db, SQLiteOptions{Now: fixedNow})
	require.NoError(t, WriteSQLite(ctx, appendOnly, mib.EventLayout, eventTable()))
	require.NoError(t, WriteSQLite(ctx, appendOnly, mib.EventLayout, eventTable()))
	assert.Equal(t, 4, countRows(t, db, "Events"))

	fresh := NewSQLite(db, SQLiteOptions{Fresh: true, Now: fixedNow})
	require.NoError(t, WriteSQLite(ctx, fresh, mib.EventLayout, eventTable()))
	assert.Equal(t, 2, countRows(t, db, "Events"))
}

func TestWriteSQLite_RecordsGenerationRuns(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	s := NewSQLite(db, SQLiteOptions{Now: fixedNow, Revision: "1a2b3c4-dirty", Branch: "develop"})
	require.NotEmpty(t, s.RunID())

	require.NoError(t, WriteSQLite(ctx, s, mib.EventLayout, eventTable()))
	require.NoError(t, WriteSQLite(ctx, s, mib.ObjectLayout, mib.NewTable[mib.Object]()))

	rows, err := db.Query("SELECT run_id, generator, entries, generated_at, source_revision, source_branch FROM GenerationRuns ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var generators []string
	var entries []int
	for rows.Next() {
		var runID, generator, at, rev, branch string
		var n int
		require.NoError(t, rows.Scan(&runID, &generator, &n, &at, &rev, &branch))
		assert.Equal(t, s.RunID(), runID)
		assert.Equal(t, "2021-05-28T18:12:56Z", at)
		assert.Equal(t, "1a2b3c4-dirty", rev)
		assert.Equal(t, "develop", branch)
		generators = append(generators, generator)
		entries = append(entries, n)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"Events", "Objects"}, generators)
	assert.Equal(t, []int{2, 0}, entries)
	assert.Equal(t, 0, countRows(t, db, "Objects"))
}

func TestWriteSQLite_SubserviceTypeConstraint(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewSQLite(db, SQLiteOptions{Now: fixedNow})

	table := mib.NewTable[mib.Subservice]()
	table.Append(mib.Subservice{Service: "17", Name: "PING", Number: 1, Type: mib.PacketTC})
	table.Append(mib.Subservice{Service: "17", Name: "BROKEN", Number: 2, Type: "XX"})

	err := WriteSQLite(context.Background(), s, mib.SubserviceLayout, table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Subservice row 2")

	// the failed batch rolled back entirely
	var n int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'Subservice'").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpenSQLite_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultDatabase)
	s, err := OpenSQLite(path, SQLiteOptions{Fresh: true})
	require.NoError(t, err)
	require.NoError(t, WriteSQLite(context.Background(), s, mib.EventLayout, eventTable()))
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 2, countRows(t, db, "Events"))
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS Objects (\n\tid INTEGER PRIMARY KEY,\n\tobjectid TEXT,\n\tname TEXT\n)",
		createTableSQL(mib.ObjectLayout))
}
