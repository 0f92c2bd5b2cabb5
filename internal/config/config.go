// Package config defines the canonical, JSON-serializable configuration model
// for the pipelines. It is intentionally small, explicit, and dependency-free
// so that runs can be loaded from disk and passed through the program without
// additional glue code; decoding is performed by the standard library.
//
// Example (trimmed):
//
//	{
//	  "job":     "sales",
//	  "storage": { "kind": "sqlite", "dsn": "file:medallion.db" },
//	  "sales":   { "csv_path": "data/orders.csv", "sample_rows": 100 },
//	  "catalog": { "base_url": "https://parallelum.com.br/fipe/api/v1",
//	               "brands": ["HONDA", "YAMAHA"],
//	               "price_min": 18000, "price_max": 30000 },
//	  "mirror":  { "endpoint": "http://localhost:9000", "bucket": "fipe" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is the top-level object decoded from a config file.
type Pipeline struct {
	// Job is the logical run name, used for metrics labeling.
	Job string `json:"job"`

	// Storage selects the repository backend shared by all pipelines.
	Storage Storage `json:"storage"`

	// Sales configures the sales medallion run.
	Sales Sales `json:"sales"`

	// Catalog configures the vehicle-price collector.
	Catalog Catalog `json:"catalog"`

	// Mirror configures CSV export and object-store upload.
	Mirror Mirror `json:"mirror"`

	// Metrics selects the metrics backend.
	Metrics Metrics `json:"metrics"`
}

// Storage selects and configures the repository backend.
type Storage struct {
	// Kind selects the registered backend: "postgres" or "sqlite".
	Kind string `json:"kind"`
	// DSN is passed to the backend's driver unchanged.
	DSN string `json:"dsn"`
}

// Sales configures raw ingestion for the sales pipeline.
type Sales struct {
	// CSVPath is the input file. When it does not exist and SampleRows > 0, a
	// deterministic sample file is generated there first.
	CSVPath    string `json:"csv_path"`
	SampleRows int    `json:"sample_rows"`
	SampleSeed int64  `json:"sample_seed"`
}

// Catalog configures the price API walk.
type Catalog struct {
	BaseURL     string   `json:"base_url"`
	VehicleType string   `json:"vehicle_type"`
	Brands      []string `json:"brands"`

	// PriceMin and PriceMax bound the silver price band, inclusive.
	PriceMin float64 `json:"price_min"`
	PriceMax float64 `json:"price_max"`

	// Attempts is the per-call request budget, RetryDelaySeconds the fixed
	// wait between failed attempts, RequestDelaySeconds the rate-limit wait
	// after each success.
	Attempts            int `json:"attempts"`
	RetryDelaySeconds   int `json:"retry_delay_seconds"`
	RequestDelaySeconds int `json:"request_delay_seconds"`
	TimeoutSeconds      int `json:"timeout_seconds"`
}

// Mirror configures the export directory and the object-store target.
type Mirror struct {
	Endpoint       string `json:"endpoint"`
	Region         string `json:"region"`
	Bucket         string `json:"bucket"`
	AccessKey      string `json:"access_key"`
	SecretKey      string `json:"secret_key"`
	ForcePathStyle bool   `json:"force_path_style"`

	// ExportDir receives the CSV materializations before upload.
	ExportDir string `json:"export_dir"`

	// Objects maps object keys to local file paths to upload. Missing local
	// files are logged and skipped.
	Objects map[string]string `json:"objects"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend: "prompush" or "none"/empty.
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
}

// Load reads and decodes a pipeline config file.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return p, nil
}
