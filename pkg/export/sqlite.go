package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"

	"github.com/oarkflow/storyarc/pipeline"
)

const DatabaseFile = "storyarc.db"

// SQLite appends a run to a database holding one table per query result.
// Rows of every table carry the run ID, so one file accumulates many runs.
type SQLite struct {
	Path string
}

func (SQLite) Format() string { return "sqlite" }

// OpenDB opens the export database in WAL mode.
func OpenDB(path string) (*squealx.DB, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := squealx.Open("sqlite", dsn, "storyarc")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Write stores the whole run in one transaction, so a failed export leaves
// no partial run behind.
func (s SQLite) Write(ctx context.Context, r *pipeline.Report) (err error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	db, err := OpenDB(s.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, t := range tables(r) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, t.createSQL()); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
		insert := t.insertSQL()
		for _, row := range t.rows {
			params := make(map[string]any, len(row))
			for i, c := range t.columns {
				params[c.name] = row[i]
			}
			if _, err := tx.NamedExecContext(ctx, insert, params); err != nil {
				return fmt.Errorf("insert %s: %w", t.name, err)
			}
		}
	}
	return tx.Commit()
}

func (t table) createSQL() string {
	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		defs[i] = c.name + " " + c.sqlType
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.name, strings.Join(defs, ", "))
}

// insertSQL uses named parameters, one per column.
func (t table) insertSQL() string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(names, ", "),
		":"+strings.Join(names, ", :"))
}
