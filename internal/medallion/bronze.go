// Package medallion implements the layered sales pipeline: bronze parses raw
// payloads into the canonical structured shape, silver cleans and enriches it,
// gold recomputes the aggregate reporting views. Each stage is a pure function
// over record batches; the Runner wires them to a storage.Repository.
package medallion

import (
	"encoding/json"

	"medallion/internal/transformer/builtin"
	"medallion/pkg/records"
)

// Shape tags the input variant of a bronze batch. It is resolved once per
// batch, not per field access.
type Shape int

const (
	// ShapeStructured means rows already expose recognizable field names.
	ShapeStructured Shape = iota
	// ShapePayload means each row carries one opaque blob under "payload".
	ShapePayload
)

// BronzeColumns is the column order used when persisting bronze rows.
var BronzeColumns = []string{
	"order_id", "customer_id", "order_date", "total_amount",
	"product_name", "region", "price", "quantity", "raw_received_at",
}

// bronzeAliases maps each canonical bronze field to its historically-used
// alternate names, first match wins.
func bronzeAliases() map[string][]string {
	return map[string][]string{
		"order_id":     {"id"},
		"customer_id":  {"customer"},
		"order_date":   {"date"},
		"total_amount": {"amount"},
	}
}

// ResolveShape inspects a batch and decides which input variant it carries.
// A batch whose first row holds a "payload" key is treated as payload-shaped.
func ResolveShape(batch []records.Record) Shape {
	for _, r := range batch {
		if _, ok := r["payload"]; ok {
			return ShapePayload
		}
		return ShapeStructured
	}
	return ShapeStructured
}

// BuildBronze turns a raw batch into canonical bronze rows. Output row count
// always equals input row count; a payload that fails to parse degrades to an
// all-null row instead of aborting the batch. Every output row carries the
// four canonical fields, possibly null, plus any recognized extras
// (product_name, region, price, quantity).
func BuildBronze(in []records.Record) []records.Record {
	if ResolveShape(in) == ShapePayload {
		return bronzeFromPayloads(in)
	}
	return bronzeFromStructured(in)
}

func bronzeFromPayloads(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, raw := range in {
		fields := parsePayload(raw["payload"])
		rec := shapeBronzeRow(fields)
		rec["raw_received_at"] = raw["received_at"]
		out = append(out, rec)
	}
	return out
}

func bronzeFromStructured(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, row := range in {
		rec := shapeBronzeRow(row.Clone())
		if _, ok := rec["raw_received_at"]; !ok {
			rec["raw_received_at"] = nil
		}
		out = append(out, rec)
	}
	return out
}

// parsePayload decodes the opaque blob into a flat record. JSON text (string
// or bytes) and already-decoded objects are accepted; anything else yields an
// empty record, which downstream becomes an all-null row.
func parsePayload(v any) records.Record {
	switch p := v.(type) {
	case map[string]any:
		return records.Record(p).Clone()
	case records.Record:
		return p.Clone()
	case string:
		return unmarshalPayload([]byte(p))
	case []byte:
		return unmarshalPayload(p)
	default:
		return records.Record{}
	}
}

func unmarshalPayload(b []byte) records.Record {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return records.Record{}
	}
	return records.Record(m)
}

// shapeBronzeRow normalizes aliases and coerces types on one row: the date
// becomes a timestamp or null, numeric fields become floats with a zero
// fallback for present-but-garbage values. Absent fields stay null.
func shapeBronzeRow(fields records.Record) records.Record {
	normalized := builtin.Normalize{Aliases: bronzeAliases()}.Apply([]records.Record{fields})[0]

	rec := records.Record{}
	for _, col := range []string{"order_id", "customer_id", "order_date", "total_amount"} {
		rec[col] = nil
	}
	for k, v := range normalized {
		rec[k] = v
	}

	rec["order_date"] = builtin.CoerceDate(rec["order_date"])
	for _, col := range []string{"total_amount", "price", "quantity"} {
		rec[col] = coerceNumeric(rec[col])
	}
	return rec
}

// coerceNumeric keeps nulls as nulls but forces any present value to a float,
// falling back to 0.0 when it cannot be read as a number.
func coerceNumeric(v any) any {
	if v == nil {
		return nil
	}
	if f, ok := records.AsFloat(v); ok {
		return f
	}
	return 0.0
}
