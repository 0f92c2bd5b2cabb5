package ingest

import (
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	"medallion/internal/storage"
	_ "medallion/internal/storage/sqlite"
)

func newTestRepo(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(repo.Close)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo
}

func TestIngestCSVRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "orders.csv")
	recs := GenerateSample(5, 1)
	if err := WriteCSV(path, SampleColumns, recs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	n, rowErrs, err := IngestCSV(ctx, repo, path)
	if err != nil || len(rowErrs) != 0 {
		t.Fatalf("IngestCSV: n=%d rowErrs=%v err=%v", n, rowErrs, err)
	}
	if n != 5 {
		t.Fatalf("ingested %d rows, want 5", n)
	}

	raw, err := repo.QueryRecords(ctx, "SELECT id, payload FROM raw_orders_raw")
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if len(raw) != 5 {
		t.Fatalf("raw rows = %d, want 5", len(raw))
	}

	// Payloads stay opaque JSON holding the original line verbatim.
	var payload map[string]string
	blob, _ := raw[0].String("payload")
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["order_id"] == "" || payload["region"] == "" {
		t.Fatalf("payload = %v, want original columns preserved", payload)
	}

	ids := map[string]bool{}
	for _, r := range raw {
		id, _ := r.String("id")
		if ids[id] {
			t.Fatalf("duplicate surrogate id %q", id)
		}
		ids[id] = true
	}
}

func TestIngestCSVMissingFile(t *testing.T) {
	repo := newTestRepo(t)
	if _, _, err := IngestCSV(context.Background(), repo, "/does/not/exist.csv"); err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}

func TestGenerateSampleDeterministic(t *testing.T) {
	t.Parallel()

	a := GenerateSample(20, 42)
	b := GenerateSample(20, 42)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed must reproduce identical samples")
	}
	c := GenerateSample(20, 43)
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds should not collide")
	}
}

func TestGenerateSampleShape(t *testing.T) {
	t.Parallel()

	recs := GenerateSample(50, 7)
	if len(recs) != 50 {
		t.Fatalf("rows = %d, want 50", len(recs))
	}
	products := map[string]bool{}
	for _, p := range sampleProducts {
		products[p] = true
	}
	for i, rec := range recs {
		name, _ := rec.String("product_name")
		if !products[name] {
			t.Fatalf("row %d product_name = %q, not in catalog", i, name)
		}
		date, _ := rec.String("order_date")
		if len(date) != 10 || date[:4] != "2024" {
			t.Fatalf("row %d order_date = %q, want a 2024 date", i, date)
		}
	}
}
