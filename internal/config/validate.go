package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where convenient.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config. It does not mutate the
// config; run Normalize first if defaults should count as present.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and log lines will carry no run identity",
		})
	}

	if strings.TrimSpace(c.Source.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.dir",
			Message:  "log root directory is required",
		})
	}
	if strings.TrimSpace(c.Source.Line) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.line",
			Message:  "line name is required; it derives the station column",
		})
	}
	if c.Source.DeltaSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.delta_seconds",
			Message:  "delta must not be negative",
		})
	}

	switch c.Storage.Kind {
	case "mssql", "postgres", "sqlite":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage kind is required (mssql, postgres, or sqlite)",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q", c.Storage.Kind),
		})
	}
	if strings.TrimSpace(c.Storage.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "connection string is required",
		})
	}
	if strings.TrimSpace(c.Storage.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "destination table is required",
		})
	}

	if c.Runtime.ChunkSize > 1000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.chunk_size",
			Message:  "very large chunks hold long transactions on the plant DB",
		})
	}

	switch c.Metrics.Backend {
	case "", "none", "pushgateway", "datadog":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", c.Metrics.Backend),
		})
	}

	return issues
}
