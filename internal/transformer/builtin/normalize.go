// Package builtin contains the reusable transformers applied between the
// bronze and silver layers: field-name normalization, cleaning, and sales
// enrichment. Transformers operate in place on []records.Record batches and
// are composed via transformer.Chain.
package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"medallion/pkg/records"
)

// Normalize maps historically used field-name variants onto the canonical
// schema. For each canonical name, the first present, non-nil alias wins;
// an existing non-nil canonical value always takes precedence. After Apply,
// a record never exposes both a canonical name and one of its aliases.
//
// Incoming field names are folded first (lowercased, diacritics stripped,
// spaces collapsed to underscores) so that headers like "Código Marca" match
// an alias list written in plain ASCII.
//
// Normalize is pure and total: it never fails, regardless of which fields
// are present.
type Normalize struct {
	// Aliases maps canonical field name -> accepted variants, in priority order.
	Aliases map[string][]string
}

// SalesAliases is the alias table for the sales dataset.
func SalesAliases() map[string][]string {
	return map[string][]string{
		"order_id":     {"id", "transaction_id"},
		"customer_id":  {"customer"},
		"order_date":   {"date"},
		"total_amount": {"amount"},
	}
}

func (n Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		foldKeys(r)
		for canonical, aliases := range n.Aliases {
			if v, ok := r[canonical]; ok && v != nil {
				// Canonical name present; drop any shadowing aliases.
				for _, a := range aliases {
					delete(r, a)
				}
				continue
			}
			for _, a := range aliases {
				v, ok := r[a]
				delete(r, a)
				if ok && v != nil {
					r[canonical] = v
					// Remaining aliases are dropped, not promoted.
					for _, rest := range aliases {
						delete(r, rest)
					}
					break
				}
			}
		}
	}
	return in
}

// foldKeys rewrites every key of r to its folded form.
func foldKeys(r records.Record) {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	for _, k := range keys {
		folded := FoldName(k)
		if folded == k {
			continue
		}
		if _, taken := r[folded]; taken {
			// A folded collision keeps the already canonical key.
			delete(r, k)
			continue
		}
		r[folded] = r[k]
		delete(r, k)
	}
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName lowercases s, strips diacritics, and replaces whitespace runs
// with a single underscore, producing a stable lookup form for field names.
func FoldName(s string) string {
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}
