package medallion

import (
	"sort"

	"medallion/pkg/records"
)

// Column orders for the three gold views.
var (
	GoldMonthlyColumns  = []string{"year", "month", "revenue", "orders_count"}
	GoldProductColumns  = []string{"product_name", "total_sales"}
	GoldRegionalColumns = []string{"region", "total_sales"}
)

// GoldViews holds the three independently recomputed aggregate views.
type GoldViews struct {
	Monthly  []records.Record
	Product  []records.Record
	Regional []records.Record
}

// BuildGold recomputes all three views over the full current silver set.
// Nulls form their own group rather than being dropped, so the per-group sums
// conserve the silver total. A grouping column that is entirely absent from
// the input schema yields an empty, correctly-shaped view. Output ordering is
// deterministic (group keys ascending, null group last) so rebuilding over
// unchanged silver reproduces identical rows.
func BuildGold(silver []records.Record) GoldViews {
	return GoldViews{
		Monthly:  monthlySales(silver),
		Product:  sumByName(silver, "product_name"),
		Regional: sumByName(silver, "region"),
	}
}

type monthKey struct {
	year, month         int
	yearNull, monthNull bool
}

type monthAgg struct {
	revenue float64
	orders  int64
}

func monthlySales(silver []records.Record) []records.Record {
	if !hasColumn(silver, "year") || !hasColumn(silver, "month") {
		return nil
	}
	groups := map[monthKey]*monthAgg{}
	for _, rec := range silver {
		var key monthKey
		if y, ok := rec.Int("year"); ok {
			key.year = y
		} else {
			key.yearNull = true
		}
		if m, ok := rec.Int("month"); ok {
			key.month = m
		} else {
			key.monthNull = true
		}
		agg := groups[key]
		if agg == nil {
			agg = &monthAgg{}
			groups[key] = agg
		}
		sales, _ := rec.Float("total_sales")
		agg.revenue += sales
		agg.orders++
	}

	keys := make([]monthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.yearNull != b.yearNull {
			return !a.yearNull
		}
		if a.year != b.year {
			return a.year < b.year
		}
		if a.monthNull != b.monthNull {
			return !a.monthNull
		}
		return a.month < b.month
	})

	out := make([]records.Record, 0, len(keys))
	for _, k := range keys {
		agg := groups[k]
		rec := records.Record{
			"year":         any(k.year),
			"month":        any(k.month),
			"revenue":      agg.revenue,
			"orders_count": agg.orders,
		}
		if k.yearNull {
			rec["year"] = nil
		}
		if k.monthNull {
			rec["month"] = nil
		}
		out = append(out, rec)
	}
	return out
}

type nameKey struct {
	name   string
	isNull bool
}

// sumByName groups silver rows by a single textual column and sums
// total_sales per group.
func sumByName(silver []records.Record, col string) []records.Record {
	if !hasColumn(silver, col) {
		return nil
	}
	sums := map[nameKey]float64{}
	for _, rec := range silver {
		var key nameKey
		if s, ok := rec.String(col); ok {
			key.name = s
		} else {
			key.isNull = true
		}
		sales, _ := rec.Float("total_sales")
		sums[key] += sales
	}

	keys := make([]nameKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].isNull != keys[j].isNull {
			return !keys[i].isNull
		}
		return keys[i].name < keys[j].name
	})

	out := make([]records.Record, 0, len(keys))
	for _, k := range keys {
		name := any(k.name)
		if k.isNull {
			name = nil
		}
		out = append(out, records.Record{
			col:           name,
			"total_sales": sums[k],
		})
	}
	return out
}

// hasColumn reports whether the key appears in any record of the batch. A key
// held with an explicit null still counts: only a column missing from the
// whole schema disables its view.
func hasColumn(batch []records.Record, key string) bool {
	for _, rec := range batch {
		if _, ok := rec[key]; ok {
			return true
		}
	}
	return false
}
