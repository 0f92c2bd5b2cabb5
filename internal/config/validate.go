// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateCatalog(p.Catalog)...)
	issues = append(issues, validateMirror(p.Mirror)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}
	// Unknown kinds are warnings for forward compatibility; the registry
	// rejects truly unsupported kinds at open time.
	known := map[string]struct{}{"postgres": {}, "sqlite": {}}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	return issues
}

func validateCatalog(c Catalog) []Issue {
	var issues []Issue

	if c.PriceMin > c.PriceMax && c.PriceMax != 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "catalog.price_min",
			Message:  fmt.Sprintf("price_min %v exceeds price_max %v", c.PriceMin, c.PriceMax),
		})
	}
	if c.Attempts < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "catalog.attempts",
			Message:  "attempts must not be negative",
		})
	}
	if c.RetryDelaySeconds < 0 || c.RequestDelaySeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "catalog.retry_delay_seconds",
			Message:  "delays must not be negative",
		})
	}
	return issues
}

func validateMirror(m Mirror) []Issue {
	var issues []Issue

	if len(m.Objects) == 0 {
		return issues
	}
	if strings.TrimSpace(m.Endpoint) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mirror.endpoint",
			Message:  "mirror.endpoint must not be empty when objects are configured",
		})
	}
	if strings.TrimSpace(m.Bucket) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mirror.bucket",
			Message:  "mirror.bucket must not be empty when objects are configured",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "prompush":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway_url must not be empty for the prompush backend",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}
	return issues
}
