package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medallion/internal/storage"
	_ "medallion/internal/storage/sqlite"
	"medallion/pkg/records"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gold.csv")
	recs := []records.Record{
		{"region": "North", "total_sales": 15.0},
		{"region": nil, "total_sales": 2.5},
	}
	if err := WriteCSV(path, []string{"region", "total_sales"}, recs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), b)
	}
	if !strings.HasPrefix(lines[0], "region") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "North") {
		t.Fatalf("row = %q, want North", lines[1])
	}
}

func TestWriteCSVEmptySet(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(path, []string{"a", "b"}, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got := strings.TrimSpace(string(b)); got != "a,b" {
		t.Fatalf("content = %q, want header only", got)
	}
}

func TestTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(repo.Close)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if _, err := repo.Replace(ctx, storage.TableGoldRegional, []string{"region", "total_sales"}, [][]any{
		{"East", 9.0},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "regional.csv")
	err = Table(ctx, repo, "SELECT region, total_sales FROM gold_regional_sales",
		[]string{"region", "total_sales"}, path)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "East") {
		t.Fatalf("exported file missing data:\n%s", b)
	}
}
