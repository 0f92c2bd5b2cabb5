// Package storage contains the storage-agnostic contracts for the medallion
// layers plus a registry of concrete backends.
//
// Backends register themselves at init time (see the postgres and sqlite
// subpackages and the blank-import wiring package storage/all), so callers
// select one by kind without importing drivers directly.
//
// Write semantics exposed here mirror the layer contracts:
//
//   - Append:             raw layer, append-only
//   - InsertSkipConflict: bronze layer, insert and skip on key conflict
//   - Upsert:             silver layer, insert or overwrite non-key columns
//   - Replace:            gold layer, transactional delete-then-insert
//
// Append, InsertSkipConflict, and Upsert are fail-soft per row: a statement
// that the database rejects is reported as a RowError and the loop continues
// with the next row. Replace is transactional and all-or-nothing, so a
// recomputed aggregate view can never be half-applied.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"medallion/pkg/records"
)

// RowError ties a rejected row (0-based index into the submitted batch) to
// the database error that rejected it.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Repository is the minimal storage contract used by the pipelines.
//
// Table names passed in are logical, dot-separated names such as
// "silver.orders_clean"; backends map them to their own namespace scheme
// via Table.
type Repository interface {
	// EnsureSchema idempotently creates the namespaces and tables of all
	// medallion layers (create-if-absent).
	EnsureSchema(ctx context.Context) error

	// Table maps a logical dot-separated table name to the backend's
	// physical name, for use in hand-written queries.
	Table(logical string) string

	// Append inserts rows without any conflict handling.
	Append(ctx context.Context, table string, cols []string, rows [][]any) (int64, []RowError, error)

	// InsertSkipConflict inserts rows, silently skipping rows whose key
	// already exists.
	InsertSkipConflict(ctx context.Context, table string, keyCols, cols []string, rows [][]any) (int64, []RowError, error)

	// Upsert inserts rows, overwriting every non-key column on key conflict.
	Upsert(ctx context.Context, table string, keyCols, cols []string, rows [][]any) (int64, []RowError, error)

	// Replace deletes the current contents of table and inserts rows, in one
	// transaction.
	Replace(ctx context.Context, table string, cols []string, rows [][]any) (int64, error)

	// QueryRecords runs query and returns the result set as records keyed by
	// column name.
	QueryRecords(ctx context.Context, query string) ([]records.Record, error)

	// Exec runs a single statement (typically DDL).
	Exec(ctx context.Context, sql string) error

	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the registered backend, e.g. "postgres" or "sqlite".
	Kind string
	// DSN is passed to the backend's driver unchanged.
	DSN string
}

// Factory constructs a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a storage kind. It is
// called from backend packages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository of the configured kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
