package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validPipeline() Pipeline {
	return Pipeline{
		Job:     "sales",
		Storage: Storage{Kind: "sqlite", DSN: ":memory:"},
		Catalog: Catalog{
			BaseURL:  "https://parallelum.com.br/fipe/api/v1",
			PriceMin: 18000,
			PriceMax: 30000,
			Attempts: 3,
		},
	}
}

func findIssue(issues []Issue, path string) *Issue {
	for i := range issues {
		if issues[i].Path == path {
			return &issues[i]
		}
	}
	return nil
}

func TestValidatePipelineOK(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
}

func TestValidatePipelineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Pipeline)
		path   string
	}{
		{"empty job", func(p *Pipeline) { p.Job = "" }, "job"},
		{"empty storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, "storage.kind"},
		{"empty dsn", func(p *Pipeline) { p.Storage.DSN = " " }, "storage.dsn"},
		{"inverted band", func(p *Pipeline) { p.Catalog.PriceMin = 50000 }, "catalog.price_min"},
		{"negative attempts", func(p *Pipeline) { p.Catalog.Attempts = -1 }, "catalog.attempts"},
		{"objects without bucket", func(p *Pipeline) {
			p.Mirror.Objects = map[string]string{"a.csv": "/tmp/a.csv"}
			p.Mirror.Endpoint = "http://localhost:9000"
		}, "mirror.bucket"},
		{"prompush without url", func(p *Pipeline) { p.Metrics.Backend = "prompush" }, "metrics.pushgateway_url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(&p)
			iss := findIssue(ValidatePipeline(p), tc.path)
			if iss == nil {
				t.Fatalf("no issue at %s, got %v", tc.path, ValidatePipeline(p))
			}
			if iss.Severity != SeverityError {
				t.Fatalf("severity = %s, want error", iss.Severity)
			}
		})
	}
}

func TestValidatePipelineWarnings(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Storage.Kind = "oracle"
	p.Metrics.Backend = "statsd"

	issues := ValidatePipeline(p)
	for _, path := range []string{"storage.kind", "metrics.backend"} {
		iss := findIssue(issues, path)
		if iss == nil || iss.Severity != SeverityWarning {
			t.Fatalf("want warning at %s, got %v", path, issues)
		}
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	i := Issue{Severity: SeverityError, Path: "job", Message: "boom"}
	if got := i.Error(); !strings.Contains(got, "job") || !strings.Contains(got, "boom") {
		t.Fatalf("Error() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{
		"job": "sales",
		"storage": {"kind": "sqlite", "dsn": "file:etl.db"},
		"catalog": {"brands": ["HONDA", "YAMAHA"], "price_min": 18000, "price_max": 30000}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "sales" || p.Storage.Kind != "sqlite" || len(p.Catalog.Brands) != 2 {
		t.Fatalf("decoded = %+v", p)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
