// Package store exports a derived dataset to a SQLite database file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/util"
)

const schema = `
CREATE TABLE tasks (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    project TEXT NOT NULL,
    owner TEXT NOT NULL,
    start_date TEXT,
    end_date TEXT,
    status TEXT NOT NULL,
    reported_progress REAL,
    expected_progress REAL,
    delay REAL,
    extra TEXT
);
CREATE INDEX idx_tasks_owner ON tasks(owner);
CREATE INDEX idx_tasks_status ON tasks(status);

CREATE TABLE export_meta (
    reference_date TEXT NOT NULL,
    extra_columns TEXT NOT NULL DEFAULT '[]',
    exported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// Open opens the database at dsn.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single connection so ":memory:" databases are shared across calls.
	db.SetMaxOpenConns(1)
	return &DB{db}, nil
}

// Migrate creates the export schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Write inserts the tasks and the reference date in one transaction.
func (db *DB) Write(ctx context.Context, ds *model.Dataset, ref model.Date) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (position, id, project, owner, start_date, end_date, status,
			reported_progress, expected_progress, delay, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range ds.Tasks {
		extra, err := extraJSON(ds.Extra, t.Extra)
		if err != nil {
			return fmt.Errorf("failed to encode extra columns of row %d: %w", i+1, err)
		}
		_, err = stmt.ExecContext(ctx, i+1, t.ID, t.Project, t.Owner,
			nullString(util.FormatDate(t.Start)), nullString(util.FormatDate(t.End)),
			t.Status, nullFloat(t.Progress), nullFloat(t.Expected), nullFloat(t.Delay), extra)
		if err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	columns, err := json.Marshal(append([]string{}, ds.Extra...))
	if err != nil {
		return fmt.Errorf("failed to encode extra column names: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO export_meta (reference_date, extra_columns) VALUES (?, ?)",
		ref.String(), string(columns)); err != nil {
		return fmt.Errorf("failed to write export metadata: %w", err)
	}
	return tx.Commit()
}

// Export writes ds to a fresh database file at path, replacing any
// existing file.
func Export(ctx context.Context, path string, ds *model.Dataset, ref model.Date) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	db, err := Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	return db.Write(ctx, ds, ref)
}

// extraJSON encodes the extra cells of a row as a JSON object keyed by
// column name, or NULL when the dataset has no extra columns.
func extraJSON(columns []string, cells map[string]string) (sql.NullString, error) {
	if len(columns) == 0 {
		return sql.NullString{}, nil
	}
	obj := make(map[string]string, len(columns))
	for _, c := range columns {
		obj[c] = cells[c]
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
