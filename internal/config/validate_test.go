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

func validPipeline() Pipeline {
	p := Pipeline{
		Job: "co2",
		Sources: Sources{
			Emissions:  Source{Kind: KindFile, File: SourceFile{Path: "e.csv"}},
			Population: Source{Kind: KindFile, File: SourceFile{Path: "p.csv"}},
			GDP:        Source{Kind: KindFile, File: SourceFile{Path: "g.csv"}},
		},
		Output: Output{Kind: KindCSV, Path: "out.csv"},
	}
	p.ApplyDefaults()
	return p
}

func TestValidatePipeline_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidatePipeline_MissingJob(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Job = " "
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected job error; got %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false")
	}
}

func TestValidatePipeline_Sources(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Sources.Emissions.File.Path = ""
	p.Sources.Population = Source{Kind: KindHTTP, HTTP: SourceHTTP{URL: "ftp://x", InsecureSkipVerify: true}, EntityColumn: "Country/Territory"}
	p.Sources.GDP = Source{Kind: KindS3, Parser: Options{"skip_rows": float64(-1), "comma": ";;"}}

	issues := ValidatePipeline(p)
	checks := []struct {
		sev  IssueSeverity
		path string
		msg  string
	}{
		{SeverityError, "sources.emissions.file.path", "non-empty path"},
		{SeverityError, "sources.population.http.url", "absolute http(s) URL"},
		{SeverityWarning, "sources.population.http.insecure_skip_verify", "disabled"},
		{SeverityError, "sources.gdp.s3.bucket", "bucket"},
		{SeverityError, "sources.gdp.s3.key", "object key"},
		{SeverityError, "sources.gdp.entity_column", "entity column"},
		{SeverityError, "sources.gdp.parser.skip_rows", "negative"},
		{SeverityError, "sources.gdp.parser.comma", "single character"},
	}
	for _, c := range checks {
		if !hasIssue(t, issues, c.sev, c.path, c.msg) {
			t.Errorf("missing %s at %s (%q); got %+v", c.sev, c.path, c.msg, issues)
		}
	}
}

func TestValidatePipeline_UnknownSourceKind(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Sources.GDP.Kind = "ftp"
	if !hasIssue(t, ValidatePipeline(p), SeverityError, "sources.gdp.kind", "unknown source kind") {
		t.Fatalf("expected unknown kind error")
	}
}

func TestValidatePipeline_DatabaseOutput(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Output = Output{Kind: "postgres"}
	issues := ValidatePipeline(p)

	if !hasIssue(t, issues, SeverityError, "output.db.dsn", "must not be empty") {
		t.Fatalf("expected dsn error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "output.db.table", "must not be empty") {
		t.Fatalf("expected table error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "output.db.replace", "reruns") {
		t.Fatalf("expected replace warning; got %+v", issues)
	}

	p.Output = Output{Kind: "oracle"}
	if !hasIssue(t, ValidatePipeline(p), SeverityError, "output.kind", "unknown output kind") {
		t.Fatalf("expected unknown output kind error")
	}
}

func TestValidatePipeline_Metrics(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Metrics = Metrics{Backend: "datadog"}
	if !hasIssue(t, ValidatePipeline(p), SeverityError, "metrics.datadog_addr", "agent address") {
		t.Fatalf("expected datadog addr error")
	}

	p.Metrics = Metrics{Backend: "statsd"}
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "metrics.backend", "unknown metrics backend") {
		t.Fatalf("expected unknown backend warning")
	}
	if HasErrors(issues) {
		t.Fatalf("unknown metrics backend must only warn: %+v", issues)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "output.kind", Message: "bad"}
	if got := iss.Error(); got != "error at output.kind: bad" {
		t.Fatalf("Error() = %q", got)
	}
}
