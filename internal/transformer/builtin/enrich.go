package builtin

import "medallion/pkg/records"

// Enrich derives the computed sales fields:
//
//   - total_sales = price * quantity, with non-numeric or missing values
//     coerced to 0.0 (price) and 0 (quantity) before multiplying, so a
//     malformed row yields zero revenue instead of an error;
//   - year, month, day extracted from the already coerced DateField; a nil
//     date propagates nil date parts rather than defaulting them.
//
// The derivation only runs for rows carrying a price value; a quantity alone
// has nothing to multiply (it may also be a cleaning-stage imputation), so
// price-less rows leave total_sales for the silver builder to derive from
// total_amount.
//
// Enrich is idempotent: re-applying it over already enriched records
// recomputes identical values.
type Enrich struct {
	DateField string
}

// SalesEnrich is the Enrich configuration for the sales dataset.
func SalesEnrich() Enrich { return Enrich{DateField: "order_date"} }

func (e Enrich) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		if !r.IsNull("price") {
			price, ok := records.AsFloat(r["price"])
			if !ok {
				price = 0.0
			}
			qty, ok := records.AsInt(r["quantity"])
			if !ok {
				qty = 0
			}
			r["price"] = price
			r["quantity"] = qty
			r["total_sales"] = price * float64(qty)
		}

		if e.DateField == "" {
			continue
		}
		if t, ok := r.Time(e.DateField); ok {
			r["year"] = t.Year()
			r["month"] = int(t.Month())
			r["day"] = t.Day()
		} else {
			r["year"] = nil
			r["month"] = nil
			r["day"] = nil
		}
	}
	return in
}
