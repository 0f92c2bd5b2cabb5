// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. It serves embedded runs and tests; medallion namespaces map
// to table-name prefixes (bronze.orders becomes bronze_orders) because
// SQLite has no schemas.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"medallion/internal/storage"
	"medallion/pkg/records"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite database for the DSN, e.g. "file:etl.db" or
// ":memory:", and fails fast on invalid DSNs via a bounded ping.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// Table maps "bronze.orders" onto "bronze_orders".
func (r *Repository) Table(logical string) string {
	return strings.ReplaceAll(logical, ".", "_")
}

// EnsureSchema creates all medallion tables if absent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

// Append inserts rows one statement at a time, collecting per-row failures.
func (r *Repository) Append(ctx context.Context, table string, cols []string, rows [][]any) (int64, []storage.RowError, error) {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.Table(table), strings.Join(cols, ", "), qMarks(len(cols)),
	)
	return r.execRows(ctx, stmt, rows)
}

// InsertSkipConflict inserts rows, skipping those whose key already exists.
func (r *Repository) InsertSkipConflict(ctx context.Context, table string, keyCols, cols []string, rows [][]any) (int64, []storage.RowError, error) {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		r.Table(table), strings.Join(cols, ", "), qMarks(len(cols)),
		strings.Join(keyCols, ", "),
	)
	return r.execRows(ctx, stmt, rows)
}

// Upsert inserts rows, overwriting every non-key column on key conflict.
func (r *Repository) Upsert(ctx context.Context, table string, keyCols, cols []string, rows [][]any) (int64, []storage.RowError, error) {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		r.Table(table), strings.Join(cols, ", "), qMarks(len(cols)),
		strings.Join(keyCols, ", "),
		strings.Join(excludedSet(cols, keyCols), ", "),
	)
	return r.execRows(ctx, stmt, rows)
}

// Replace deletes the table contents and inserts rows inside one transaction.
func (r *Repository) Replace(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+r.Table(table)); err != nil {
		return 0, fmt.Errorf("sqlite: clear %s: %w", table, err)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.Table(table), strings.Join(cols, ", "), qMarks(len(cols)),
	)
	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer prepared.Close()

	var inserted int64
	for i, row := range rows {
		if _, err := prepared.ExecContext(ctx, bindValues(row)...); err != nil {
			return 0, fmt.Errorf("sqlite: replace %s row %d: %w", table, i, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// QueryRecords runs query and maps the result set into records.
func (r *Repository) QueryRecords(ctx context.Context, query string) ([]records.Record, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}
	var out []records.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		rec := make(records.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Exec runs a single statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, sql)
	return err
}

func (r *Repository) Close() { r.db.Close() }

func (r *Repository) execRows(ctx context.Context, stmt string, rows [][]any) (int64, []storage.RowError, error) {
	prepared, err := r.db.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, nil, fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer prepared.Close()

	var (
		affected int64
		rowErrs  []storage.RowError
	)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return affected, rowErrs, err
		}
		res, err := prepared.ExecContext(ctx, bindValues(row)...)
		if err != nil {
			rowErrs = append(rowErrs, storage.RowError{Row: i, Err: err})
			continue
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}
	return affected, rowErrs, nil
}

// bindValues rewrites values into forms that round-trip through SQLite
// storage classes: timestamps become RFC 3339 text so the cleaner's date
// coercion can read them back.
func bindValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if t, ok := v.(time.Time); ok {
			out[i] = t.UTC().Format(time.RFC3339)
			continue
		}
		out[i] = v
	}
	return out
}

func qMarks(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

// excludedSet builds "col = excluded.col" assignments for non-key columns.
func excludedSet(cols, keyCols []string) []string {
	keys := make(map[string]struct{}, len(keyCols))
	for _, k := range keyCols {
		keys[k] = struct{}{}
	}
	var parts []string
	for _, c := range cols {
		if _, isKey := keys[c]; isKey {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return parts
}
