// Package config provides configuration models and helpers for the pipeline.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
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

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "output.kind",
// "sources.gdp.s3.bucket"). Message is human-readable.
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

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// dbKinds lists the output kinds served by a storage backend.
var dbKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
	"mysql":    {},
}

// IsDatabase reports whether kind names a database sink.
func IsDatabase(kind string) bool {
	_, ok := dbKinds[kind]
	return ok
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers may decide whether to treat
// warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource("sources.emissions", p.Sources.Emissions, false)...)
	issues = append(issues, validateSource("sources.population", p.Sources.Population, true)...)
	issues = append(issues, validateSource("sources.gdp", p.Sources.GDP, true)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

// validateSource validates one input source.
func validateSource(path string, s Source, wide bool) []Issue {
	var issues []Issue

	switch s.Kind {
	case KindFile:
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case KindHTTP:
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".http.url",
				Message:  fmt.Sprintf("http source requires an absolute http(s) URL, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".http.insecure_skip_verify",
				Message:  "TLS verification is disabled for this source",
			})
		}
	case KindS3:
		if strings.TrimSpace(s.S3.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".s3.bucket",
				Message:  "s3 source requires a bucket",
			})
		}
		if strings.TrimSpace(s.S3.Key) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".s3.key",
				Message:  "s3 source requires an object key",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  "source kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown source kind %q; expected file, http or s3", s.Kind),
		})
	}

	if wide && strings.TrimSpace(s.EntityColumn) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".entity_column",
			Message:  "wide sources need the header of their entity column",
		})
	}
	if n := s.Parser.Int("skip_rows", 0); n < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".parser.skip_rows",
			Message:  "skip_rows must not be negative",
		})
	}
	if c := s.Parser.String("comma", ","); len([]rune(c)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".parser.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", c),
		})
	}

	return issues
}

// validateOutput validates the export sink.
func validateOutput(o Output) []Issue {
	var issues []Issue

	switch {
	case o.Kind == KindCSV:
		if strings.TrimSpace(o.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.path",
				Message:  "csv output requires a path",
			})
		}
	case IsDatabase(o.Kind):
		if strings.TrimSpace(o.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.db.dsn",
				Message:  "output.db.dsn must not be empty",
			})
		}
		if strings.TrimSpace(o.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.db.table",
				Message:  "output.db.table must not be empty",
			})
		}
		if !o.DB.AutoCreateTable {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "output.db.auto_create_table",
				Message:  "auto_create_table is false; the destination table must already exist with the output columns",
			})
		}
		if !o.DB.Replace {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "output.db.replace",
				Message:  "replace is false; reruns append a second copy of every row",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  fmt.Sprintf("unknown output kind %q; expected csv, sqlite, postgres, mssql or mysql", o.Kind),
		})
	}

	return issues
}

// validateMetrics validates the metrics backend selection.
func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without a URL; http://localhost:9091 will be used",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires an agent address",
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
