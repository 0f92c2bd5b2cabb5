package medallion

import (
	"medallion/internal/transformer"
	"medallion/internal/transformer/builtin"
	"medallion/pkg/records"
)

// SilverColumns is the column order used when persisting silver rows.
var SilverColumns = []string{
	"order_id", "customer_id", "order_date", "total_amount",
	"product_name", "region", "price", "quantity",
	"total_sales", "year", "month", "day",
}

// silverChain is the normalize, clean, enrich sequence applied to bronze rows.
func silverChain() transformer.Chain {
	return transformer.Chain{
		builtin.Normalize{Aliases: builtin.SalesAliases()},
		builtin.SalesClean(),
		builtin.SalesEnrich(),
	}
}

// BuildSilver cleans and enriches a bronze batch into silver rows. After the
// transform chain it guarantees a numeric total_sales on every row: when the
// enricher did not derive one (price-less rows) it falls back to
// total_amount, and to 0.0 when that too is null. Rows are meant to be
// persisted with a keyed upsert on order_id, overwriting all non-key fields.
func BuildSilver(bronze []records.Record) []records.Record {
	out := silverChain().Apply(bronze)
	for _, rec := range out {
		if _, ok := rec.Float("total_sales"); ok {
			continue
		}
		if amt, ok := rec.Float("total_amount"); ok {
			rec["total_sales"] = amt
			continue
		}
		rec["total_sales"] = 0.0
	}
	return out
}
