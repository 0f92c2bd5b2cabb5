// Package ingest lands external sales files in the raw layer. Each CSV line
// becomes one append-only raw row: a surrogate id, a receipt timestamp, and
// the full line as an opaque JSON payload. Parsing into the canonical shape
// happens downstream in the bronze builder, never here.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"medallion/internal/storage"
)

var rawColumns = []string{"id", "received_at", "payload"}

// IngestCSV reads the file at path and appends one raw row per data line.
// The header row names the payload keys. Returned row errors follow the
// storage layer's fail-soft contract.
func IngestCSV(ctx context.Context, repo storage.Repository, path string) (int64, []storage.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged lines still land as raw payloads
	header, err := r.Read()
	if err != nil {
		return 0, nil, fmt.Errorf("ingest: read header: %w", err)
	}

	receivedAt := time.Now().UTC()
	var rows [][]any
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("ingest: read line: %w", err)
		}
		payload := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(line) {
				payload[col] = line[i]
			}
		}
		blob, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("ingest: encode line: %w", err)
		}
		rows = append(rows, []any{uuid.NewString(), receivedAt, string(blob)})
	}

	return repo.Append(ctx, storage.TableRawOrders, rawColumns, rows)
}
