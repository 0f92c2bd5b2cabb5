package medallion

import (
	"testing"
	"time"

	"medallion/pkg/records"
)

func TestResolveShape(t *testing.T) {
	payload := []records.Record{{"id": "r1", "payload": `{"order_id":"A"}`}}
	if got := ResolveShape(payload); got != ShapePayload {
		t.Fatalf("ResolveShape(payload batch) = %v, want ShapePayload", got)
	}
	structured := []records.Record{{"order_id": "A", "total_amount": 10.0}}
	if got := ResolveShape(structured); got != ShapeStructured {
		t.Fatalf("ResolveShape(structured batch) = %v, want ShapeStructured", got)
	}
	if got := ResolveShape(nil); got != ShapeStructured {
		t.Fatalf("ResolveShape(empty) = %v, want ShapeStructured", got)
	}
}

func TestBuildBronzePayloadAliases(t *testing.T) {
	in := []records.Record{
		{"id": "r1", "payload": `{"id":"X1","amount":42.5}`},
		{"id": "r2", "payload": `{"order_id":"X2","customer":"C7","date":"2024-03-01"}`},
	}
	out := BuildBronze(in)
	if len(out) != 2 {
		t.Fatalf("row count = %d, want 2", len(out))
	}

	if got, _ := out[0].String("order_id"); got != "X1" {
		t.Fatalf("order_id = %q, want X1 (alias id)", got)
	}
	if got, _ := out[0].Float("total_amount"); got != 42.5 {
		t.Fatalf("total_amount = %v, want 42.5 (alias amount)", got)
	}

	if got, _ := out[1].String("customer_id"); got != "C7" {
		t.Fatalf("customer_id = %q, want C7 (alias customer)", got)
	}
	d, ok := out[1].Time("order_date")
	if !ok || d.Year() != 2024 || d.Month() != time.March {
		t.Fatalf("order_date = %v ok=%v, want 2024-03-01", d, ok)
	}
}

func TestBuildBronzeGarbagePayloadAllNull(t *testing.T) {
	in := []records.Record{
		{"id": "r1", "payload": "not json at all"},
		{"id": "r2", "payload": 12345},
	}
	out := BuildBronze(in)
	if len(out) != 2 {
		t.Fatalf("row count = %d, want 2 (degrade, never drop)", len(out))
	}
	for i, rec := range out {
		for _, col := range []string{"order_id", "customer_id", "order_date", "total_amount"} {
			if !rec.IsNull(col) {
				t.Fatalf("row %d: %s = %v, want null", i, col, rec[col])
			}
		}
	}
}

func TestBuildBronzeStructuredCoercion(t *testing.T) {
	in := []records.Record{
		{"order_id": "A1", "date": "2024-06-15", "amount": "oops", "price": "bad", "quantity": nil},
	}
	out := BuildBronze(in)

	if _, ok := out[0].Time("order_date"); !ok {
		t.Fatal("order_date must be coerced to a timestamp")
	}
	if got, _ := out[0].Float("total_amount"); got != 0.0 {
		t.Fatalf("garbage total_amount = %v, want 0.0 fallback", got)
	}
	if got, _ := out[0].Float("price"); got != 0.0 {
		t.Fatalf("garbage price = %v, want 0.0 fallback", got)
	}
	if !out[0].IsNull("quantity") {
		t.Fatalf("null quantity must stay null, got %v", out[0]["quantity"])
	}
}

func TestBuildBronzePayloadDecodedObject(t *testing.T) {
	// pgx returns JSONB columns as already-decoded maps.
	in := []records.Record{
		{"id": "r1", "payload": map[string]any{"id": "P1", "amount": 7.0}, "received_at": "2024-01-01T00:00:00Z"},
	}
	out := BuildBronze(in)
	if got, _ := out[0].String("order_id"); got != "P1" {
		t.Fatalf("order_id = %q, want P1", got)
	}
	if out[0].IsNull("raw_received_at") {
		t.Fatal("raw_received_at must carry the raw receipt timestamp")
	}
}
