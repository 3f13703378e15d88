package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "owid",
	  "sources": {
	    "emissions":  { "kind": "file", "file": { "path": "co-emissions-by-sector.csv" } },
	    "population": { "file": { "path": "population.csv" } },
	    "gdp": {
	      "kind": "http",
	      "http": { "url": "https://example.org/gdp.csv", "max_retries": 2 },
	      "parser": { "skip_rows": 4, "comma": "," },
	      "entity_column": "Country"
	    }
	  },
	  "output": { "kind": "sqlite", "db": { "dsn": "file:out.db", "table": "co2", "auto_create_table": true } }
	}`

	p, err := Decode([]byte(js), ".json")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Job != "owid" {
		t.Fatalf("Job = %q", p.Job)
	}
	if p.Sources.Population.Kind != KindFile {
		t.Fatalf("population kind default = %q; want file", p.Sources.Population.Kind)
	}
	if p.Sources.Population.EntityColumn != DefaultPopulationEntity {
		t.Fatalf("population entity default = %q", p.Sources.Population.EntityColumn)
	}
	if p.Sources.GDP.EntityColumn != "Country" {
		t.Fatalf("gdp entity column = %q; want explicit value kept", p.Sources.GDP.EntityColumn)
	}
	if got := p.Sources.GDP.Parser.Int("skip_rows", 0); got != 4 {
		t.Fatalf("skip_rows = %d; want 4", got)
	}
	if p.Sources.GDP.HTTP.MaxRetries != 2 {
		t.Fatalf("max_retries = %d", p.Sources.GDP.HTTP.MaxRetries)
	}
	if p.Sources.Emissions.Parser == nil {
		t.Fatalf("missing parser options must decode to an empty map")
	}
	if p.Output.DB.BatchSize != DefaultBatchSize {
		t.Fatalf("batch size default = %d", p.Output.DB.BatchSize)
	}
	if p.Output.Path != "" {
		t.Fatalf("db output must not get a csv path default, got %q", p.Output.Path)
	}
}

func TestDecodeJSONUnknownField(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"sourcez": {}}`), ".json"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	const y = `
job: co2
sources:
  emissions:
    file: { path: e.csv }
  population:
    file: { path: p.csv }
  gdp:
    kind: s3
    s3: { bucket: datasets, key: wb/gdp.csv, region: eu-west-1 }
    parser: { skip_rows: 4, encoding: latin1 }
output:
  path: out/final.csv
metrics:
  backend: pushgateway
  pushgateway_url: http://pg:9091
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(y), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := SourceS3{Bucket: "datasets", Key: "wb/gdp.csv", Region: "eu-west-1"}
	if diff := cmp.Diff(want, p.Sources.GDP.S3); diff != "" {
		t.Fatalf("s3 mismatch (-want +got):\n%s", diff)
	}
	if got := p.Sources.GDP.Parser.Int("skip_rows", 0); got != 4 {
		t.Fatalf("yaml int option = %d; want 4", got)
	}
	if got := p.Sources.GDP.Parser.String("encoding", ""); got != "latin1" {
		t.Fatalf("encoding = %q", got)
	}
	if p.Output.Kind != KindCSV || p.Output.Path != "out/final.csv" {
		t.Fatalf("output = %+v", p.Output)
	}
	if got := p.Sources.GDP.Location(); got != "s3://datasets/wb/gdp.csv" {
		t.Fatalf("Location = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"CO2ETL_OUTPUT_PATH": "/tmp/x.csv",
		"CO2ETL_BATCH_SIZE":  "250",
		"METRICS_BACKEND":    "datadog",
		"DD_AGENT_ADDR":      "127.0.0.1:8125",
	}
	var p Pipeline
	p.ApplyDefaults()
	p.ApplyEnv(func(k string) string { return env[k] })

	if p.Output.Path != "/tmp/x.csv" || p.Output.DB.BatchSize != 250 {
		t.Fatalf("output = %+v", p.Output)
	}
	if p.Metrics.Backend != "datadog" || p.Metrics.DatadogAddr != "127.0.0.1:8125" {
		t.Fatalf("metrics = %+v", p.Metrics)
	}

	// A malformed batch size is ignored.
	p.ApplyEnv(func(k string) string {
		if k == "CO2ETL_BATCH_SIZE" {
			return "many"
		}
		return ""
	})
	if p.Output.DB.BatchSize != 250 {
		t.Fatalf("batch size changed to %d", p.Output.DB.BatchSize)
	}
}

func TestOptionsAccessors(t *testing.T) {
	t.Parallel()

	o := Options{"s": "x", "b": true, "f": float64(3), "i": 7, "r": ";", "empty": ""}
	if o.String("s", "d") != "x" || o.String("missing", "d") != "d" || o.String("b", "d") != "d" {
		t.Fatalf("String accessor")
	}
	if !o.Bool("b", false) || o.Bool("s", false) {
		t.Fatalf("Bool accessor")
	}
	if o.Int("f", 0) != 3 || o.Int("i", 0) != 7 || o.Int("s", 9) != 9 {
		t.Fatalf("Int accessor")
	}
	if o.Rune("r", ',') != ';' || o.Rune("empty", ',') != ',' {
		t.Fatalf("Rune accessor")
	}
	var nilOpts Options
	if nilOpts.Int("x", 5) != 5 {
		t.Fatalf("nil Options must return defaults")
	}
}

func TestSampleConfigIsValid(t *testing.T) {
	t.Parallel()

	p, err := Load(filepath.Join("..", "..", "configs", "pipeline.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if issues := ValidatePipeline(p); HasErrors(issues) {
		t.Fatalf("sample config has errors: %v", issues)
	}
	if p.Sources.GDP.Parser.Int("skip_rows", 0) != 4 {
		t.Fatalf("gdp skip_rows = %v", p.Sources.GDP.Parser["skip_rows"])
	}
}
