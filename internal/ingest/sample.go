package ingest

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"time"

	"medallion/pkg/records"
)

// SampleColumns is the column order of generated sample files.
var SampleColumns = []string{
	"order_id", "customer_id", "order_date",
	"product_name", "region", "price", "quantity",
}

var (
	sampleProducts = []string{"Product A", "Product B", "Product C", "Product D", "Product E"}
	sampleRegions  = []string{"North", "South", "East", "West"}
)

// GenerateSample produces n deterministic sales rows for a seed, used to
// bootstrap a demo run when no input file exists. Dates spread across 2024.
func GenerateSample(n int, seed int64) []records.Record {
	rng := rand.New(rand.NewSource(seed))
	out := make([]records.Record, 0, n)
	for i := 0; i < n; i++ {
		day := rng.Intn(365)
		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
		price := float64(rng.Intn(9000)+1000) / 100 // 10.00 .. 99.99
		out = append(out, records.Record{
			"order_id":     fmt.Sprintf("ORD-%04d", i+1),
			"customer_id":  fmt.Sprintf("CUST-%03d", rng.Intn(200)+1),
			"order_date":   date.Format("2006-01-02"),
			"product_name": sampleProducts[rng.Intn(len(sampleProducts))],
			"region":       sampleRegions[rng.Intn(len(sampleRegions))],
			"price":        fmt.Sprintf("%.2f", price),
			"quantity":     fmt.Sprintf("%d", rng.Intn(9)+1),
		})
	}
	return out
}

// WriteCSV writes records to path with the given column order. Absent values
// become empty cells.
func WriteCSV(path string, cols []string, recs []records.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ingest: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("ingest: write header: %w", err)
	}
	for _, rec := range recs {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := rec[c]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("ingest: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("ingest: flush %s: %w", path, err)
	}
	return f.Close()
}
