package sqlite

import (
	"context"
	"testing"

	"medallion/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(repo.Close)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo
}

func TestTableMapping(t *testing.T) {
	r := &Repository{}
	if got, want := r.Table(storage.TableSilverOrders), "silver_orders_clean"; got != want {
		t.Fatalf("Table() = %q, want %q", got, want)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestInsertSkipConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cols := []string{"order_id", "customer_id", "total_amount"}

	n, rowErrs, err := repo.InsertSkipConflict(ctx, storage.TableBronzeOrders, []string{"order_id"}, cols, [][]any{
		{"A1", "C1", 10.0},
		{"A2", "C2", 20.0},
	})
	if err != nil || len(rowErrs) != 0 {
		t.Fatalf("first load: n=%d rowErrs=%v err=%v", n, rowErrs, err)
	}
	if n != 2 {
		t.Fatalf("first load inserted %d rows, want 2", n)
	}

	// Reload: existing keys skip, new key lands.
	n, rowErrs, err = repo.InsertSkipConflict(ctx, storage.TableBronzeOrders, []string{"order_id"}, cols, [][]any{
		{"A1", "C1-changed", 99.0},
		{"A3", "C3", 30.0},
	})
	if err != nil || len(rowErrs) != 0 {
		t.Fatalf("second load: rowErrs=%v err=%v", rowErrs, err)
	}
	if n != 1 {
		t.Fatalf("second load inserted %d rows, want 1", n)
	}

	recs, err := repo.QueryRecords(ctx, "SELECT customer_id FROM bronze_orders WHERE order_id = 'A1'")
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if len(recs) != 1 || recs[0]["customer_id"] != "C1" {
		t.Fatalf("conflicting reload must not overwrite, got %v", recs)
	}
}

func TestInsertSkipConflictNullKeysAccumulate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cols := []string{"order_id", "customer_id"}

	for i := 0; i < 3; i++ {
		_, rowErrs, err := repo.InsertSkipConflict(ctx, storage.TableBronzeOrders, []string{"order_id"}, cols, [][]any{
			{nil, "anonymous"},
		})
		if err != nil || len(rowErrs) != 0 {
			t.Fatalf("load %d: rowErrs=%v err=%v", i, rowErrs, err)
		}
	}

	recs, err := repo.QueryRecords(ctx, "SELECT COUNT(*) AS n FROM bronze_orders WHERE order_id IS NULL")
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if got, _ := recs[0].Int("n"); got != 3 {
		t.Fatalf("null-key rows = %d, want 3", got)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cols := []string{"order_id", "customer_id", "total_sales"}
	rows := [][]any{
		{"X1", "C1", 42.5},
		{"X2", "C2", 10.0},
	}

	for pass := 0; pass < 2; pass++ {
		_, rowErrs, err := repo.Upsert(ctx, storage.TableSilverOrders, []string{"order_id"}, cols, rows)
		if err != nil || len(rowErrs) != 0 {
			t.Fatalf("pass %d: rowErrs=%v err=%v", pass, rowErrs, err)
		}
	}

	recs, err := repo.QueryRecords(ctx, "SELECT COUNT(*) AS n FROM silver_orders_clean")
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if got, _ := recs[0].Int("n"); got != 2 {
		t.Fatalf("row count after double upsert = %d, want 2", got)
	}

	// Changed values overwrite on conflict.
	_, _, err = repo.Upsert(ctx, storage.TableSilverOrders, []string{"order_id"}, cols, [][]any{
		{"X1", "C1", 100.0},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	recs, err = repo.QueryRecords(ctx, "SELECT total_sales FROM silver_orders_clean WHERE order_id = 'X1'")
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if got, _ := recs[0].Float("total_sales"); got != 100.0 {
		t.Fatalf("total_sales after upsert = %v, want 100.0", got)
	}
}

func TestReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cols := []string{"year", "month", "revenue", "orders_count"}

	if _, err := repo.Replace(ctx, storage.TableGoldMonthly, cols, [][]any{
		{2024, 1, 100.0, 4},
		{2024, 2, 250.0, 9},
	}); err != nil {
		t.Fatalf("first Replace: %v", err)
	}

	n, err := repo.Replace(ctx, storage.TableGoldMonthly, cols, [][]any{
		{nil, nil, 5.0, 1},
	})
	if err != nil {
		t.Fatalf("second Replace: %v", err)
	}
	if n != 1 {
		t.Fatalf("second Replace inserted %d rows, want 1", n)
	}

	recs, err := repo.QueryRecords(ctx, "SELECT year, month, revenue FROM gold_monthly_sales")
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Replace left %d rows, want 1", len(recs))
	}
	if !recs[0].IsNull("year") || !recs[0].IsNull("month") {
		t.Fatalf("null group keys must persist as nulls, got %v", recs[0])
	}
}

func TestAppendReportsRowErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, rowErrs, err := repo.Append(ctx, storage.TableRawOrders, []string{"id", "payload"}, [][]any{
		{"r1", `{"a":1}`},
		{"r1", `{"a":2}`}, // duplicate primary key
		{"r2", `{"a":3}`},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 2 {
		t.Fatalf("Append inserted %d rows, want 2", n)
	}
	if len(rowErrs) != 1 || rowErrs[0].Row != 1 {
		t.Fatalf("rowErrs = %v, want one error at row 1", rowErrs)
	}
}
