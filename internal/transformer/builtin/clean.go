package builtin

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"medallion/pkg/records"
)

// DateLayouts are tried in order when coercing date-bearing fields.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// Clean applies the batch cleaning policy:
//
//   - exact duplicates (identical across all fields) collapse to the first
//     occurrence, keyed by an xxh3 hash of the full record with an equality
//     check on hash collision;
//   - nil values in NameFields become the "Unknown" sentinel;
//   - values in MedianFields that do not coerce to a number (including nil)
//     are imputed with the median of the coercible values in the batch,
//     falling back to 0 when the batch has none;
//   - the DateField is parsed to time.Time, with unparseable values set to
//     nil instead of failing the row.
//
// Clean only ever removes rows, never adds them, and never drops columns.
type Clean struct {
	NameFields   []string
	MedianFields []string
	DateField    string
}

// SalesClean is the Clean configuration for the sales dataset.
func SalesClean() Clean {
	return Clean{
		NameFields:   []string{"product_name"},
		MedianFields: []string{"quantity"},
		DateField:    "order_date",
	}
}

func (c Clean) Apply(in []records.Record) []records.Record {
	out := dedupExact(in)

	for _, f := range c.NameFields {
		if !columnPresent(out, f) {
			continue
		}
		for _, r := range out {
			if r.IsNull(f) {
				r[f] = "Unknown"
			}
		}
	}

	for _, f := range c.MedianFields {
		if !columnPresent(out, f) {
			continue
		}
		med := batchMedian(out, f)
		for _, r := range out {
			v, ok := records.AsFloat(r[f])
			if !ok {
				v = med
			}
			r[f] = v
		}
	}

	if c.DateField != "" && columnPresent(out, c.DateField) {
		for _, r := range out {
			r[c.DateField] = CoerceDate(r[c.DateField])
		}
	}

	return out
}

// CoerceDate parses v into a time.Time. Values that are already time.Time
// pass through; strings are tried against DateLayouts; anything unparseable
// yields nil.
func CoerceDate(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range DateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		return nil
	default:
		return nil
	}
}

// columnPresent reports whether any record in the batch carries a non-nil
// value for the key. Column-wise policies only apply to columns that hold
// data somewhere in the batch; a column of pure nulls is equivalent to an
// absent column, matching the null discipline in pkg/records. Without this,
// rows read back from the store would re-activate every policy, since SQL
// result sets carry every column as a present-but-null key.
func columnPresent(batch []records.Record, key string) bool {
	for _, r := range batch {
		if !r.IsNull(key) {
			return true
		}
	}
	return false
}

// batchMedian computes the median over the coercible values of key.
// Even-sized sets average the two middle values. Returns 0 for an empty set.
func batchMedian(batch []records.Record, key string) float64 {
	vals := make([]float64, 0, len(batch))
	for _, r := range batch {
		if v, ok := records.AsFloat(r[key]); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// dedupExact collapses records that are identical across all fields,
// keeping the first occurrence in batch order.
func dedupExact(in []records.Record) []records.Record {
	if len(in) < 2 {
		return in
	}
	out := make([]records.Record, 0, len(in))
	seen := make(map[uint64][]records.Record, len(in))
	for _, r := range in {
		h := hashRecord(r)
		dup := false
		for _, prev := range seen[h] {
			if reflect.DeepEqual(prev, r) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], r)
		out = append(out, r)
	}
	return out
}

// hashRecord produces a stable hash of the full record by encoding its
// fields in sorted key order. Collisions are resolved by the caller.
func hashRecord(r records.Record) uint64 {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\x1f')
		v := r[k]
		if v == nil {
			b.WriteByte('\x00')
		} else {
			fmt.Fprintf(&b, "%T:%v", v, v)
		}
		b.WriteByte('\x1e')
	}
	return xxh3.HashString(b.String())
}
