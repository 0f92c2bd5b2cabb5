package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"medallion/internal/config"
	"medallion/internal/ingest"
	"medallion/internal/medallion"
	"medallion/internal/metrics"
	"medallion/internal/metrics/prompush"
	"medallion/internal/storage"

	// register all backends with the storage factory.
	_ "medallion/internal/storage/all"
)

// main is the entry point for the sales pipeline binary. It loads the
// pipeline config, optionally initializes a metrics backend, ingests the
// input CSV into the raw layer, and executes the medallion run.
func main() {
	var (
		cfgPath  string
		validate bool
	)
	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if !checkConfig(p, cfgPath, validate) {
		return
	}

	setupMetrics(p, *verbose)
	defer flushMetrics()

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
	if err != nil {
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		fatalf("ensure schema: %v", err)
	}

	if p.Sales.CSVPath != "" {
		ensureSampleFile(p.Sales)
		n, rowErrs, err := ingest.IngestCSV(ctx, repo, p.Sales.CSVPath)
		if err != nil {
			fatalf("ingest: %v", err)
		}
		for _, re := range rowErrs {
			log.Printf("job=%s stage=ingest row=%d err=%v", p.Job, re.Row, re.Err)
		}
		log.Printf("job=%s stage=ingest rows=%d row_errors=%d", p.Job, n, len(rowErrs))
	}

	runner := &medallion.Runner{Job: p.Job, Repo: repo}
	if _, err := runner.Run(ctx); err != nil {
		fatalf("run: %v", err)
	}
}

// ensureSampleFile generates a deterministic demo input when the configured
// CSV does not exist yet.
func ensureSampleFile(s config.Sales) {
	if s.SampleRows <= 0 {
		return
	}
	if _, err := os.Stat(s.CSVPath); err == nil {
		return
	}
	recs := ingest.GenerateSample(s.SampleRows, s.SampleSeed)
	if err := ingest.WriteCSV(s.CSVPath, ingest.SampleColumns, recs); err != nil {
		fatalf("write sample: %v", err)
	}
	log.Printf("job=sales stage=sample path=%s rows=%d", s.CSVPath, s.SampleRows)
}

// checkConfig prints validation issues and reports whether execution should
// proceed.
func checkConfig(p config.Pipeline, cfgPath string, validateOnly bool) bool {
	hasError := false
	for _, iss := range config.ValidatePipeline(p) {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validateOnly {
		log.Printf("Configuration is valid: %v", cfgPath)
		return false
	}
	return true
}

func setupMetrics(p config.Pipeline, verbose bool) {
	switch p.Metrics.Backend {
	case "prompush":
		b, err := prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prompush backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=prompush url=%v job=%v", p.Metrics.PushgatewayURL, p.Job)
		metrics.SetBackend(b)
	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", p.Metrics.Backend)
	}
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
