package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	c := Config{
		Job: "smt-line-3",
		Source: Source{
			Dir:  "/mnt/aoi",
			Line: "L3",
		},
		Storage: Storage{
			Kind: "mssql",
			DB:   DBConfig{DSN: "sqlserver://u:p@host?database=Quality"},
		},
	}
	c.Normalize()
	return c
}

// TestValidate_Minimal verifies that a well-formed config has no issues.
func TestValidate_Minimal(t *testing.T) {
	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

// TestValidate_MissingSource verifies the source errors.
func TestValidate_MissingSource(t *testing.T) {
	c := validConfig()
	c.Source.Dir = ""
	c.Source.Line = " "
	issues := Validate(c)
	if !hasIssue(t, issues, SeverityError, "source.dir", "required") {
		t.Errorf("missing source.dir error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "source.line", "required") {
		t.Errorf("missing source.line error; got %+v", issues)
	}
}

// TestValidate_UnknownStorageKind verifies the storage kind check.
func TestValidate_UnknownStorageKind(t *testing.T) {
	c := validConfig()
	c.Storage.Kind = "oracle"
	if !hasIssue(t, Validate(c), SeverityError, "storage.kind", "unknown storage kind") {
		t.Error("missing storage.kind error")
	}
}

// TestValidate_EmptyJobIsWarning verifies that a missing job name warns but
// does not block.
func TestValidate_EmptyJobIsWarning(t *testing.T) {
	c := validConfig()
	c.Job = ""
	issues := Validate(c)
	if !hasIssue(t, issues, SeverityWarning, "job", "empty") {
		t.Errorf("missing job warning; got %+v", issues)
	}
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			t.Errorf("unexpected error: %+v", iss)
		}
	}
}

// TestIssue_Error verifies the error-form rendering.
func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "storage.db.dsn", Message: "connection string is required"}
	want := "error at storage.db.dsn: connection string is required"
	if iss.Error() != want {
		t.Errorf("Error() = %q, want %q", iss.Error(), want)
	}
}
