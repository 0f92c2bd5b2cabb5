package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"medallion/internal/catalog"
	"medallion/internal/config"
	"medallion/internal/fipe"
	"medallion/internal/metrics"
	"medallion/internal/metrics/prompush"
	"medallion/internal/storage"

	_ "medallion/internal/storage/all"
)

// main is the entry point for the price-catalog collector. It walks the
// configured brands on the price API and rebuilds the catalog layers.
func main() {
	var (
		cfgPath  string
		validate bool
	)
	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
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
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		return
	}
	if p.Catalog.BaseURL == "" {
		fatalf("catalog.base_url is required for the collector")
	}

	if p.Metrics.Backend == "prompush" {
		if b, err := prompush.NewBackend("catalog", p.Metrics.PushgatewayURL); err != nil {
			log.Printf("metrics: failed to init prompush backend: %v; using nop", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}
	}

	client, err := fipe.NewClient(fipe.Config{
		BaseURL:      p.Catalog.BaseURL,
		VehicleType:  p.Catalog.VehicleType,
		Timeout:      time.Duration(p.Catalog.TimeoutSeconds) * time.Second,
		Attempts:     p.Catalog.Attempts,
		RetryDelay:   time.Duration(p.Catalog.RetryDelaySeconds) * time.Second,
		RequestDelay: time.Duration(p.Catalog.RequestDelaySeconds) * time.Second,
	})
	if err != nil {
		fatalf("price client: %v", err)
	}

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
	if err != nil {
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	cfg := catalog.DefaultConfig()
	if len(p.Catalog.Brands) > 0 {
		cfg.Brands = p.Catalog.Brands
	}
	if p.Catalog.PriceMin > 0 {
		cfg.PriceMin = decimal.NewFromFloat(p.Catalog.PriceMin)
	}
	if p.Catalog.PriceMax > 0 {
		cfg.PriceMax = decimal.NewFromFloat(p.Catalog.PriceMax)
	}

	pipeline := &catalog.Pipeline{Client: client, Repo: repo, Cfg: cfg}
	if _, err := pipeline.Run(ctx); err != nil {
		fatalf("run: %v", err)
	}
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
