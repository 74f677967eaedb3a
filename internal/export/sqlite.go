package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fsfw-tools/mibgen/internal/mib"
)

// DefaultDatabase is the database file written when none is configured.
const DefaultDatabase = "fsfw_mod.db"

const createRunsTable = `CREATE TABLE IF NOT EXISTS GenerationRuns (
	id INTEGER PRIMARY KEY,
	run_id TEXT NOT NULL,
	generator TEXT NOT NULL,
	entries INTEGER NOT NULL,
	generated_at TEXT NOT NULL,
	source_revision TEXT NOT NULL DEFAULT '',
	source_branch TEXT NOT NULL DEFAULT ''
)`

// SQLiteOptions configures a relational exporter.
type SQLiteOptions struct {
	// Fresh drops every exported table before it is recreated.
	Fresh bool
	// RunID groups the GenerationRuns rows of one invocation. Generated when empty.
	RunID string
	// Now stamps GenerationRuns rows. Defaults to time.Now.
	Now func() time.Time
	// Revision is the source tree revision recorded with each run.
	Revision string
	// Branch is the source tree branch recorded with each run.
	Branch string
}

// SQLite exports tables into a SQLite database. Every exported table is
// written in its own transaction with a single commit.
type SQLite struct {
	db     *sql.DB
	owned  bool
	fresh  bool
	runID  string
	rev    string
	branch string
	now    func() time.Time
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string, opts SQLiteOptions) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One exporter, one connection.
	db.SetMaxOpenConns(1)

	s := NewSQLite(db, opts)
	s.owned = true
	return s, nil
}

// NewSQLite wraps an already open database. The caller keeps ownership of db.
func NewSQLite(db *sql.DB, opts SQLiteOptions) *SQLite {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SQLite{db: db, fresh: opts.Fresh, runID: runID, rev: opts.Revision, branch: opts.Branch, now: now}
}

// RunID returns the id recorded in GenerationRuns.
func (s *SQLite) RunID() string {
	return s.runID
}

// Close releases the database if it was opened by OpenSQLite.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// WriteSQLite creates the layout's table and inserts every record, then
// records the batch in GenerationRuns. All of it commits once.
func WriteSQLite[R any](ctx context.Context, s *SQLite, layout mib.Layout[R], t *mib.Table[R]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.fresh {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+layout.Table); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", layout.Table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(layout)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", layout.Table, err)
	}

	if t.Len() > 0 {
		placeholders := make([]any, len(layout.Columns))
		sqlStr, _, err := sq.Insert(layout.Table).
			Columns(layout.ColumnNames()...).
			Values(placeholders...).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert query: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, sqlStr)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for key, r := range t.All() {
			if _, err := stmt.ExecContext(ctx, layout.Row(r)...); err != nil {
				return fmt.Errorf("failed to insert %s row %d: %w", layout.Table, key, err)
			}
		}
	}

	if err := recordRun(ctx, tx, s, layout.Table, t.Len()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func recordRun(ctx context.Context, tx *sql.Tx, s *SQLite, generator string, entries int) error {
	if _, err := tx.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("failed to create GenerationRuns table: %w", err)
	}
	_, err := sq.Insert("GenerationRuns").
		Columns("run_id", "generator", "entries", "generated_at", "source_revision", "source_branch").
		Values(s.runID, generator, entries, s.now().UTC().Format(time.RFC3339), s.rev, s.branch).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to record generation run: %w", err)
	}
	return nil
}

func createTableSQL[R any](layout mib.Layout[R]) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(layout.Table)
	b.WriteString(" (\n\tid INTEGER PRIMARY KEY")
	for _, c := range layout.Columns {
		b.WriteString(",\n\t")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(c.SQLType)
	}
	b.WriteString("\n)")
	return b.String()
}
