// Package catalog implements the vehicle-price catalog pipeline: walk the
// price API for the wanted brands, land every quote in the bronze layer,
// filter the configured price band into silver, and aggregate per-model
// averages into gold. Monetary values are carried as decimals end to end.
package catalog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"medallion/internal/fipe"
	"medallion/internal/metrics"
	"medallion/internal/storage"
	"medallion/pkg/records"
)

// Column orders for the catalog tables.
var (
	BronzeColumns = []string{
		"marca", "modelo", "ano_modelo",
		"codigo_marca", "codigo_modelo", "codigo_ano",
		"valor", "valor_numeric",
	}
	SilverColumns = []string{"marca", "modelo", "ano_modelo", "valor_numeric"}
	GoldColumns   = []string{"marca", "modelo", "media_valor", "qtd_registros"}
)

// Config holds the collection filters.
type Config struct {
	// Brands to collect, matched case-insensitively against the API's brand
	// names. Empty means all brands.
	Brands []string

	// PriceMin and PriceMax bound the silver price band, inclusive.
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
}

// DefaultConfig returns the stock collection setup: the two high-volume
// motorcycle brands and the mid-range price band.
func DefaultConfig() Config {
	return Config{
		Brands:   []string{"HONDA", "YAMAHA"},
		PriceMin: decimal.NewFromInt(18000),
		PriceMax: decimal.NewFromInt(30000),
	}
}

// Summary reports one catalog run.
type Summary struct {
	Brands     int
	Quotes     int
	BronzeRows int64
	SilverRows int64
	GoldRows   int64
}

// Pipeline wires the price client to the storage layers.
type Pipeline struct {
	Client *fipe.Client
	Repo   storage.Repository
	Cfg    Config
	Log    *log.Logger
}

func (p *Pipeline) logger() *log.Logger {
	if p.Log != nil {
		return p.Log
	}
	return log.Default()
}

// Run collects quotes and rebuilds the three catalog layers. Every layer is
// a full replace: the catalog is a snapshot, not an accumulating log.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	if err := p.timeStage("schema", func() error {
		return p.Repo.EnsureSchema(ctx)
	}); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var collected []records.Record
	err := p.timeStage("collect", func() error {
		var err error
		collected, err = p.Collect(ctx, sum)
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Quotes = len(collected)

	err = p.timeStage("bronze", func() error {
		n, err := p.Repo.Replace(ctx, storage.TableBronzeCatalog, BronzeColumns,
			rowsFor(collected, BronzeColumns))
		if err != nil {
			return fmt.Errorf("load bronze catalog: %w", err)
		}
		sum.BronzeRows = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.timeStage("silver", func() error {
		bronze, err := p.Repo.QueryRecords(ctx,
			"SELECT * FROM "+p.Repo.Table(storage.TableBronzeCatalog))
		if err != nil {
			return fmt.Errorf("read bronze catalog: %w", err)
		}
		silver := p.FilterBand(bronze)
		n, err := p.Repo.Replace(ctx, storage.TableSilverCatalog, SilverColumns,
			rowsFor(silver, SilverColumns))
		if err != nil {
			return fmt.Errorf("load silver catalog: %w", err)
		}
		sum.SilverRows = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.timeStage("gold", func() error {
		silver, err := p.Repo.QueryRecords(ctx,
			"SELECT * FROM "+p.Repo.Table(storage.TableSilverCatalog))
		if err != nil {
			return fmt.Errorf("read silver catalog: %w", err)
		}
		gold := Summarize(silver)
		n, err := p.Repo.Replace(ctx, storage.TableGoldCatalog, GoldColumns,
			rowsFor(gold, GoldColumns))
		if err != nil {
			return fmt.Errorf("load gold catalog: %w", err)
		}
		sum.GoldRows = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRows("catalog", "bronze", sum.BronzeRows)
	metrics.RecordRows("catalog", "silver", sum.SilverRows)
	metrics.RecordRows("catalog", "gold", sum.GoldRows)

	p.logger().Printf("job=catalog status=done brands=%d quotes=%d bronze=%d silver=%d gold=%d",
		sum.Brands, sum.Quotes, sum.BronzeRows, sum.SilverRows, sum.GoldRows)
	return sum, nil
}

// Collect walks brands, models, and model-years serially (the client already
// rate-limits between calls) and returns one bronze record per quote. Models
// and years the API cannot serve come back empty from the client and are
// simply skipped.
func (p *Pipeline) Collect(ctx context.Context, sum *Summary) ([]records.Record, error) {
	brands, err := p.Client.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	var out []records.Record
	for _, brand := range brands {
		if !p.wantBrand(brand.Nome) {
			continue
		}
		sum.Brands++

		models, err := p.Client.Models(ctx, brand.Codigo)
		if err != nil {
			return nil, fmt.Errorf("list models for %s: %w", brand.Nome, err)
		}
		for _, model := range models {
			years, err := p.Client.Years(ctx, brand.Codigo, model.Codigo)
			if err != nil {
				return nil, fmt.Errorf("list years for %s %s: %w", brand.Nome, model.Nome, err)
			}
			for _, year := range years {
				quote, err := p.Client.Price(ctx, brand.Codigo, model.Codigo, year.Codigo)
				if err != nil {
					return nil, fmt.Errorf("price %s %s %s: %w", brand.Nome, model.Nome, year.Nome, err)
				}
				if quote == nil {
					p.logger().Printf("job=catalog status=no_quote marca=%s modelo=%s ano=%s",
						brand.Nome, model.Nome, year.Nome)
					continue
				}
				out = append(out, quoteRecord(quote, brand.Codigo, model.Codigo, year.Codigo))
			}
		}
	}
	return out, nil
}

func (p *Pipeline) wantBrand(name string) bool {
	if len(p.Cfg.Brands) == 0 {
		return true
	}
	for _, b := range p.Cfg.Brands {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

// quoteRecord flattens one quote into the bronze catalog shape. The raw
// currency string is kept alongside its parsed value; a quote the parser
// cannot read lands with a null valor_numeric.
func quoteRecord(q *fipe.PriceQuote, brand, model, year fipe.Code) records.Record {
	rec := records.Record{
		"marca":         q.Marca,
		"modelo":        q.Modelo,
		"ano_modelo":    fmt.Sprintf("%d", q.AnoModelo),
		"codigo_marca":  string(brand),
		"codigo_modelo": string(model),
		"codigo_ano":    string(year),
		"valor":         q.Valor,
		"valor_numeric": nil,
	}
	if d, ok := fipe.ParseCurrency(q.Valor); ok {
		rec["valor_numeric"] = d
	}
	return rec
}

// FilterBand keeps bronze rows whose value falls inside the configured band,
// ordered by value descending (ties broken by marca, modelo, ano_modelo so
// rebuilds are deterministic). Rows without a parsed value are dropped.
func (p *Pipeline) FilterBand(bronze []records.Record) []records.Record {
	type priced struct {
		rec records.Record
		val decimal.Decimal
	}
	var kept []priced
	for _, rec := range bronze {
		val, ok := toDecimal(rec["valor_numeric"])
		if !ok {
			continue
		}
		if val.LessThan(p.Cfg.PriceMin) || val.GreaterThan(p.Cfg.PriceMax) {
			continue
		}
		kept = append(kept, priced{
			rec: records.Record{
				"marca":         rec["marca"],
				"modelo":        rec["modelo"],
				"ano_modelo":    rec["ano_modelo"],
				"valor_numeric": val,
			},
			val: val,
		})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if c := kept[i].val.Cmp(kept[j].val); c != 0 {
			return c > 0
		}
		a, _ := kept[i].rec.String("marca")
		b, _ := kept[j].rec.String("marca")
		if a != b {
			return a < b
		}
		am, _ := kept[i].rec.String("modelo")
		bm, _ := kept[j].rec.String("modelo")
		if am != bm {
			return am < bm
		}
		ay, _ := kept[i].rec.String("ano_modelo")
		by, _ := kept[j].rec.String("ano_modelo")
		return ay < by
	})

	out := make([]records.Record, len(kept))
	for i, k := range kept {
		out[i] = k.rec
	}
	return out
}

// Summarize aggregates silver rows into per-model averages: mean value and
// row count grouped by (marca, modelo), ordered by group key.
func Summarize(silver []records.Record) []records.Record {
	type key struct{ marca, modelo string }
	type agg struct {
		sum decimal.Decimal
		n   int64
	}
	groups := map[key]*agg{}
	for _, rec := range silver {
		val, ok := toDecimal(rec["valor_numeric"])
		if !ok {
			continue
		}
		marca, _ := rec.String("marca")
		modelo, _ := rec.String("modelo")
		k := key{marca, modelo}
		a := groups[k]
		if a == nil {
			a = &agg{}
			groups[k] = a
		}
		a.sum = a.sum.Add(val)
		a.n++
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].marca != keys[j].marca {
			return keys[i].marca < keys[j].marca
		}
		return keys[i].modelo < keys[j].modelo
	})

	out := make([]records.Record, 0, len(keys))
	for _, k := range keys {
		a := groups[k]
		out = append(out, records.Record{
			"marca":         k.marca,
			"modelo":        k.modelo,
			"media_valor":   a.sum.Div(decimal.NewFromInt(a.n)),
			"qtd_registros": a.n,
		})
	}
	return out
}

// toDecimal reads a stored monetary value back as a decimal. Backends return
// numerics in different shapes (decimal passthrough, float, or text).
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func (p *Pipeline) timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage("catalog", stage, err, time.Since(start))
	return err
}

// rowsFor projects records onto an ordered column list; absent keys become
// nulls.
func rowsFor(recs []records.Record, cols []string) [][]any {
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = rec[c]
		}
		rows[i] = row
	}
	return rows
}
