package medallion

import (
	"reflect"
	"testing"

	"medallion/pkg/records"
)

func goldFixture() []records.Record {
	return []records.Record{
		{"order_id": "1", "year": 2024, "month": 1, "product_name": "A", "region": "North", "total_sales": 10.0},
		{"order_id": "2", "year": 2024, "month": 1, "product_name": "B", "region": "North", "total_sales": 5.0},
		{"order_id": "3", "year": 2024, "month": 2, "product_name": "A", "region": "South", "total_sales": 7.5},
		{"order_id": "4", "year": nil, "month": nil, "product_name": nil, "region": nil, "total_sales": 2.5},
	}
}

func TestBuildGoldMonthly(t *testing.T) {
	views := BuildGold(goldFixture())
	if len(views.Monthly) != 3 {
		t.Fatalf("monthly groups = %d, want 3 (incl. null group)", len(views.Monthly))
	}

	jan := views.Monthly[0]
	if y, _ := jan.Int("year"); y != 2024 {
		t.Fatalf("first group year = %v, want 2024", jan["year"])
	}
	if rev, _ := jan.Float("revenue"); rev != 15.0 {
		t.Fatalf("jan revenue = %v, want 15.0", rev)
	}
	if n, _ := jan.Int("orders_count"); n != 2 {
		t.Fatalf("jan orders_count = %v, want 2", jan["orders_count"])
	}

	// Null group sorts last and keeps its revenue.
	last := views.Monthly[len(views.Monthly)-1]
	if !last.IsNull("year") || !last.IsNull("month") {
		t.Fatalf("last group = %v, want null keys", last)
	}
	if rev, _ := last.Float("revenue"); rev != 2.5 {
		t.Fatalf("null group revenue = %v, want 2.5", rev)
	}
}

func TestBuildGoldConservation(t *testing.T) {
	silver := goldFixture()
	var silverSum float64
	for _, rec := range silver {
		v, _ := rec.Float("total_sales")
		silverSum += v
	}

	views := BuildGold(silver)
	var monthlySum float64
	for _, rec := range views.Monthly {
		v, _ := rec.Float("revenue")
		monthlySum += v
	}
	if monthlySum != silverSum {
		t.Fatalf("monthly revenue sum = %v, silver total_sales sum = %v; groups must conserve the total", monthlySum, silverSum)
	}
}

func TestBuildGoldByNameViews(t *testing.T) {
	views := BuildGold(goldFixture())

	wantProduct := []records.Record{
		{"product_name": "A", "total_sales": 17.5},
		{"product_name": "B", "total_sales": 5.0},
		{"product_name": nil, "total_sales": 2.5},
	}
	if !reflect.DeepEqual(views.Product, wantProduct) {
		t.Fatalf("product view = %#v, want %#v", views.Product, wantProduct)
	}

	wantRegional := []records.Record{
		{"region": "North", "total_sales": 15.0},
		{"region": "South", "total_sales": 7.5},
		{"region": nil, "total_sales": 2.5},
	}
	if !reflect.DeepEqual(views.Regional, wantRegional) {
		t.Fatalf("regional view = %#v, want %#v", views.Regional, wantRegional)
	}
}

func TestBuildGoldAbsentColumnYieldsEmptyView(t *testing.T) {
	silver := []records.Record{
		{"order_id": "1", "year": 2024, "month": 3, "total_sales": 4.0},
	}
	views := BuildGold(silver)
	if len(views.Regional) != 0 {
		t.Fatalf("regional view = %#v, want empty when column absent", views.Regional)
	}
	if len(views.Product) != 0 {
		t.Fatalf("product view = %#v, want empty when column absent", views.Product)
	}
	if len(views.Monthly) != 1 {
		t.Fatalf("monthly view = %#v, want 1 group", views.Monthly)
	}
}

func TestBuildGoldDeterministic(t *testing.T) {
	a := BuildGold(goldFixture())
	b := BuildGold(goldFixture())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("rebuild differs:\n%#v\nvs\n%#v", a, b)
	}
}
