package medallion

import (
	"reflect"
	"testing"

	"medallion/pkg/records"
)

func TestBuildSilverFallbackToTotalAmount(t *testing.T) {
	in := []records.Record{
		{"order_id": "X1", "total_amount": 42.5, "price": nil, "quantity": nil},
	}
	out := BuildSilver(in)
	if got, _ := out[0].Float("total_sales"); got != 42.5 {
		t.Fatalf("total_sales = %v, want 42.5 from total_amount", got)
	}
}

func TestBuildSilverDerivesFromPriceQuantity(t *testing.T) {
	in := []records.Record{
		{"order_id": "X2", "price": 10.0, "quantity": 3},
	}
	out := BuildSilver(in)
	if got, _ := out[0].Float("total_sales"); got != 30.0 {
		t.Fatalf("total_sales = %v, want 30.0 from price*quantity", got)
	}
}

func TestBuildSilverNullSafety(t *testing.T) {
	// Missing amount plus non-numeric price/quantity must yield exactly 0.0.
	in := []records.Record{
		{"order_id": "N1", "price": "abc", "quantity": "xyz"},
	}
	out := BuildSilver(in)
	got, ok := out[0].Float("total_sales")
	if !ok || got != 0.0 {
		t.Fatalf("total_sales = %v ok=%v, want exactly 0.0", got, ok)
	}
}

func TestBuildSilverZeroWhenEverythingMissing(t *testing.T) {
	in := []records.Record{{"order_id": "Z1"}}
	out := BuildSilver(in)
	if got, _ := out[0].Float("total_sales"); got != 0.0 {
		t.Fatalf("total_sales = %v, want 0.0", got)
	}
}

func TestBuildSilverIdempotent(t *testing.T) {
	in := []records.Record{
		{"order_id": "A", "customer_id": "C1", "order_date": "2024-02-10", "price": 2.5, "quantity": 4},
		{"order_id": "B", "total_amount": 19.9},
	}
	once := BuildSilver(cloneBatch(in))
	twice := BuildSilver(cloneBatch(once))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("silver build drifted on re-run:\n%#v\nvs\n%#v", once, twice)
	}
}

func cloneBatch(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
