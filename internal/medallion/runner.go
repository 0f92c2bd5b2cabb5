package medallion

import (
	"context"
	"fmt"
	"log"
	"time"

	"medallion/internal/metrics"
	"medallion/internal/storage"
	"medallion/pkg/records"
)

// RowResult records one row-level write failure: the stage it happened in and
// the 0-based row index within that stage's batch. Per-row failures never
// abort a run; they are collected so callers and tests can inspect them.
type RowResult struct {
	Stage string
	Row   int
	Err   error
}

// Summary reports one full pipeline run.
type Summary struct {
	Job          string
	RawRows      int
	BronzeRows   int64
	SilverRows   int64
	GoldMonthly  int64
	GoldProduct  int64
	GoldRegional int64
	RowFailures  []RowResult
}

// Runner executes the sales pipeline raw through gold against one repository.
// Stages run serially; each stage's output is persisted before the next stage
// reads it back. Connection-level failures abort the run, row-level write
// failures are logged and collected.
type Runner struct {
	Job  string
	Repo storage.Repository
	Log  *log.Logger
}

func (r *Runner) logger() *log.Logger {
	if r.Log != nil {
		return r.Log
	}
	return log.Default()
}

// Run executes raw -> bronze -> silver -> gold once.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{Job: r.Job}
	logger := r.logger()

	if err := r.timeStage("schema", func() error {
		return r.Repo.EnsureSchema(ctx)
	}); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	// Bronze: parse raw payloads, insert and skip on order_id conflict.
	err := r.timeStage("bronze", func() error {
		rawRows, err := r.Repo.QueryRecords(ctx,
			"SELECT id, received_at, payload FROM "+r.Repo.Table(storage.TableRawOrders))
		if err != nil {
			return fmt.Errorf("read raw: %w", err)
		}
		sum.RawRows = len(rawRows)

		bronze := BuildBronze(rawRows)
		n, rowErrs, err := r.Repo.InsertSkipConflict(ctx,
			storage.TableBronzeOrders, []string{"order_id"}, BronzeColumns,
			rowsFor(bronze, BronzeColumns))
		if err != nil {
			return fmt.Errorf("load bronze: %w", err)
		}
		sum.BronzeRows = n
		r.collectRowErrors(sum, "bronze", rowErrs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Silver: clean and enrich the full bronze set, upsert by order_id.
	err = r.timeStage("silver", func() error {
		bronzeRows, err := r.Repo.QueryRecords(ctx,
			"SELECT * FROM "+r.Repo.Table(storage.TableBronzeOrders))
		if err != nil {
			return fmt.Errorf("read bronze: %w", err)
		}

		silver := BuildSilver(bronzeRows)
		n, rowErrs, err := r.Repo.Upsert(ctx,
			storage.TableSilverOrders, []string{"order_id"}, SilverColumns,
			rowsFor(silver, SilverColumns))
		if err != nil {
			return fmt.Errorf("load silver: %w", err)
		}
		sum.SilverRows = n
		r.collectRowErrors(sum, "silver", rowErrs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Gold: recompute all three views over current silver, full replace.
	err = r.timeStage("gold", func() error {
		silverRows, err := r.Repo.QueryRecords(ctx,
			"SELECT * FROM "+r.Repo.Table(storage.TableSilverOrders))
		if err != nil {
			return fmt.Errorf("read silver: %w", err)
		}

		views := BuildGold(silverRows)
		if sum.GoldMonthly, err = r.Repo.Replace(ctx,
			storage.TableGoldMonthly, GoldMonthlyColumns,
			rowsFor(views.Monthly, GoldMonthlyColumns)); err != nil {
			return fmt.Errorf("load gold monthly: %w", err)
		}
		if sum.GoldProduct, err = r.Repo.Replace(ctx,
			storage.TableGoldProduct, GoldProductColumns,
			rowsFor(views.Product, GoldProductColumns)); err != nil {
			return fmt.Errorf("load gold product: %w", err)
		}
		if sum.GoldRegional, err = r.Repo.Replace(ctx,
			storage.TableGoldRegional, GoldRegionalColumns,
			rowsFor(views.Regional, GoldRegionalColumns)); err != nil {
			return fmt.Errorf("load gold regional: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRows(r.Job, "raw", int64(sum.RawRows))
	metrics.RecordRows(r.Job, "bronze", sum.BronzeRows)
	metrics.RecordRows(r.Job, "silver", sum.SilverRows)
	metrics.RecordRows(r.Job, "gold", sum.GoldMonthly+sum.GoldProduct+sum.GoldRegional)
	metrics.RecordRows(r.Job, "row_errors", int64(len(sum.RowFailures)))

	logger.Printf("job=%s status=done raw=%d bronze=%d silver=%d gold_monthly=%d gold_product=%d gold_regional=%d row_errors=%d",
		sum.Job, sum.RawRows, sum.BronzeRows, sum.SilverRows,
		sum.GoldMonthly, sum.GoldProduct, sum.GoldRegional, len(sum.RowFailures))
	return sum, nil
}

func (r *Runner) timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(r.Job, stage, err, time.Since(start))
	return err
}

func (r *Runner) collectRowErrors(sum *Summary, stage string, rowErrs []storage.RowError) {
	logger := r.logger()
	for _, re := range rowErrs {
		logger.Printf("job=%s stage=%s row=%d err=%v", r.Job, stage, re.Row, re.Err)
		sum.RowFailures = append(sum.RowFailures, RowResult{Stage: stage, Row: re.Row, Err: re.Err})
	}
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
