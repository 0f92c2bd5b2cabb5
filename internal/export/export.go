// Package export materializes query results as local CSV files, the shape
// the object-store mirror uploads. Records pass through a gota DataFrame so
// the written files get consistent quoting and typing.
package export

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"

	"medallion/internal/storage"
	"medallion/pkg/records"
)

// Table runs a query against the repository and writes the result to path
// with the given column order.
func Table(ctx context.Context, repo storage.Repository, query string, cols []string, path string) error {
	recs, err := repo.QueryRecords(ctx, query)
	if err != nil {
		return fmt.Errorf("export: query: %w", err)
	}
	return WriteCSV(path, cols, recs)
}

// WriteCSV writes records to path. An empty record set still produces a
// header-only file so downstream consumers see the schema.
func WriteCSV(path string, cols []string, recs []records.Record) error {
	grid := make([][]string, 0, len(recs)+1)
	grid = append(grid, cols)
	for _, rec := range recs {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = cellString(rec[c])
		}
		grid = append(grid, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	if len(recs) == 0 {
		// gota rejects a header-only grid.
		if _, err := f.WriteString(headerLine(cols)); err != nil {
			return fmt.Errorf("export: write header: %w", err)
		}
		return f.Close()
	}

	df := dataframe.LoadRecords(grid)
	if df.Err != nil {
		return fmt.Errorf("export: build dataframe: %w", df.Err)
	}
	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return f.Close()
}

func headerLine(cols []string) string {
	line := ""
	for i, c := range cols {
		if i > 0 {
			line += ","
		}
		line += c
	}
	return line + "\n"
}

// cellString renders one stored value for CSV output.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
