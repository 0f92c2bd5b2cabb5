package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"medallion/internal/config"
	"medallion/internal/export"
	"medallion/internal/objectstore"
	"medallion/internal/storage"

	_ "medallion/internal/storage/all"
)

// exportSpec ties one table to its exported file name.
type exportSpec struct {
	file  string
	query string
	cols  []string
}

// main is the entry point for the mirror binary: it materializes the gold
// and silver catalog tables as CSV files and uploads them to the object
// store, together with any extra objects listed in the config.
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

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
	if err != nil {
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	exportDir := p.Mirror.ExportDir
	if exportDir == "" {
		exportDir = "exports"
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		fatalf("create export dir: %v", err)
	}

	specs := []exportSpec{
		{"monthly_sales.csv",
			"SELECT * FROM " + repo.Table(storage.TableGoldMonthly),
			[]string{"year", "month", "revenue", "orders_count"}},
		{"product_performance.csv",
			"SELECT * FROM " + repo.Table(storage.TableGoldProduct),
			[]string{"product_name", "total_sales"}},
		{"regional_sales.csv",
			"SELECT * FROM " + repo.Table(storage.TableGoldRegional),
			[]string{"region", "total_sales"}},
		{"fipe_limited.csv",
			"SELECT * FROM " + repo.Table(storage.TableSilverCatalog),
			[]string{"marca", "modelo", "ano_modelo", "valor_numeric"}},
		{"fipe_summary.csv",
			"SELECT * FROM " + repo.Table(storage.TableGoldCatalog),
			[]string{"marca", "modelo", "media_valor", "qtd_registros"}},
	}

	objects := map[string]string{}
	for _, spec := range specs {
		path := filepath.Join(exportDir, spec.file)
		if err := export.Table(ctx, repo, spec.query, spec.cols, path); err != nil {
			fatalf("export %s: %v", spec.file, err)
		}
		objects[spec.file] = path
	}
	for key, path := range p.Mirror.Objects {
		objects[key] = path
	}
	log.Printf("job=mirror stage=export dir=%s files=%d", exportDir, len(objects))

	if p.Mirror.Endpoint == "" || p.Mirror.Bucket == "" {
		log.Printf("job=mirror status=export_only (no object store configured)")
		return
	}

	store, err := objectstore.New(objectstore.Config{
		Endpoint:       p.Mirror.Endpoint,
		Region:         p.Mirror.Region,
		Bucket:         p.Mirror.Bucket,
		AccessKey:      p.Mirror.AccessKey,
		SecretKey:      p.Mirror.SecretKey,
		ForcePathStyle: p.Mirror.ForcePathStyle,
	}, nil)
	if err != nil {
		fatalf("object store: %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		fatalf("ensure bucket: %v", err)
	}

	outcomes, err := store.Mirror(ctx, objects)
	if err != nil {
		fatalf("mirror: %v", err)
	}
	uploaded := 0
	for _, o := range outcomes {
		if o.Uploaded {
			uploaded++
		}
	}
	log.Printf("job=mirror status=done uploaded=%d skipped=%d", uploaded, len(outcomes)-uploaded)
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
