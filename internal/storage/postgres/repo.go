// Package postgres implements a Postgres-backed storage.Repository using
// pgx v5. Medallion namespaces map directly onto Postgres schemas
// (bronze.orders stays bronze.orders).
package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"medallion/internal/storage"
	"medallion/pkg/records"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository opens a pgx pool for the DSN and pings it so connection
// failures surface at startup rather than on the first write.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Table returns the logical name unchanged; Postgres supports the schema
// namespaces natively.
func (r *Repository) Table(logical string) string { return logical }

// EnsureSchema creates the medallion schemas and tables if absent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

// Append inserts rows one statement at a time, collecting per-row failures.
func (r *Repository) Append(ctx context.Context, table string, cols []string, rows [][]any) (int64, []storage.RowError, error) {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgFQN(table), strings.Join(quoteAll(cols), ", "), placeholders(len(cols)),
	)
	return r.execRows(ctx, stmt, rows)
}

// InsertSkipConflict inserts rows, skipping those whose key already exists.
// The key columns must be covered by a unique index.
func (r *Repository) InsertSkipConflict(ctx context.Context, table string, keyCols, cols []string, rows [][]any) (int64, []storage.RowError, error) {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		pgFQN(table), strings.Join(quoteAll(cols), ", "), placeholders(len(cols)),
		strings.Join(quoteAll(keyCols), ", "),
	)
	return r.execRows(ctx, stmt, rows)
}

// Upsert inserts rows, overwriting every non-key column on key conflict.
func (r *Repository) Upsert(ctx context.Context, table string, keyCols, cols []string, rows [][]any) (int64, []storage.RowError, error) {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		pgFQN(table), strings.Join(quoteAll(cols), ", "), placeholders(len(cols)),
		strings.Join(quoteAll(keyCols), ", "),
		strings.Join(excludedSet(cols, keyCols), ", "),
	)
	return r.execRows(ctx, stmt, rows)
}

// Replace deletes the table contents and inserts rows inside one transaction.
func (r *Repository) Replace(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgFQN(table)); err != nil {
		return 0, fmt.Errorf("postgres: clear %s: %w", table, err)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgFQN(table), strings.Join(quoteAll(cols), ", "), placeholders(len(cols)),
	)
	var inserted int64
	for i, row := range rows {
		if _, err := tx.Exec(ctx, stmt, row...); err != nil {
			return 0, fmt.Errorf("postgres: replace %s row %d: %w", table, i, err)
		}
		inserted++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return inserted, nil
}

// QueryRecords runs query and maps the result set into records.
func (r *Repository) QueryRecords(ctx context.Context, query string) ([]records.Record, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []records.Record
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		rec := make(records.Record, len(fields))
		for i, fd := range fields {
			rec[string(fd.Name)] = normalizeValue(vals[i])
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Exec runs a single statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

func (r *Repository) Close() { r.pool.Close() }

// execRows runs stmt once per row, logging nothing itself; failures come
// back as RowError values so callers decide how to surface them.
func (r *Repository) execRows(ctx context.Context, stmt string, rows [][]any) (int64, []storage.RowError, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("postgres: acquire: %w", err)
	}
	defer conn.Release()

	var (
		affected int64
		rowErrs  []storage.RowError
	)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return affected, rowErrs, err
		}
		tag, err := conn.Exec(ctx, stmt, row...)
		if err != nil {
			rowErrs = append(rowErrs, storage.RowError{Row: i, Err: err})
			continue
		}
		affected += tag.RowsAffected()
	}
	return affected, rowErrs, nil
}

// normalizeValue flattens pgx-specific value types (pgtype.Numeric and
// friends) into plain strings via their driver.Valuer, leaving common Go
// types untouched.
func normalizeValue(v any) any {
	switch v.(type) {
	case nil, string, bool, int16, int32, int64, float32, float64, []byte:
		return v
	}
	if valuer, ok := v.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			return dv
		}
	}
	return v
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// excludedSet builds "col = EXCLUDED.col" assignments for non-key columns.
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
		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
	}
	return parts
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "bronze.orders" to
// "bronze"."orders".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
