// Package config defines the canonical configuration model for the
// emissions reconciliation pipeline. A pipeline file is JSON or YAML and
// names the three input sources, the output sink and an optional metrics
// backend.
//
// Example (YAML, trimmed):
//
//	job: co2_emissions
//	sources:
//	  emissions:  { kind: file, file: { path: co-emissions-by-sector.csv } }
//	  population: { kind: file, file: { path: population.csv } }
//	  gdp:
//	    kind: http
//	    http: { url: https://example.org/gdp.csv }
//	    parser: { skip_rows: 4 }
//	output:
//	  kind: csv
//	  path: co2_emissions_per_capita_and_gdp.csv
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindFile = "file"
	KindHTTP = "http"
	KindS3   = "s3"
)

// Output kinds. Everything other than KindCSV is a database backend
// registered with package storage.
const (
	KindCSV = "csv"
)

// Default entity header names of the wide sources.
const (
	DefaultPopulationEntity = "Country/Territory"
	DefaultGDPEntity        = "Country Name"
	DefaultJob              = "co2_emissions"
	DefaultOutputPath       = "co2_emissions_per_capita_and_gdp.csv"
	DefaultBatchSize        = 5000
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job"`

	Sources Sources `json:"sources" yaml:"sources"`
	Output  Output  `json:"output" yaml:"output"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
}

// Sources lists the three inputs.
type Sources struct {
	Emissions  Source `json:"emissions" yaml:"emissions"`
	Population Source `json:"population" yaml:"population"`
	GDP        Source `json:"gdp" yaml:"gdp"`
}

// Source identifies where one input table comes from and how to read it.
type Source struct {
	// Kind selects the source implementation: "file", "http" or "s3".
	Kind string `json:"kind" yaml:"kind"`

	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
	S3   SourceS3   `json:"s3" yaml:"s3"`

	// Parser is a free-form bag read by the CSV parser. Typical keys:
	//   comma (string), skip_rows (int), trim_space (bool, headers only),
	//   lazy_quotes (bool), encoding (string)
	Parser Options `json:"parser" yaml:"parser"`

	// EntityColumn names the raw header that identifies the entity in a
	// wide source. It is renamed to "entity" before reshaping. Ignored for
	// the emissions source, whose headers are normalized instead.
	EntityColumn string `json:"entity_column" yaml:"entity_column"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL                string `json:"url" yaml:"url"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	MaxRetries         int    `json:"max_retries" yaml:"max_retries"`
}

// SourceS3 holds configuration for the "s3" source kind. Credentials come
// from the default AWS chain.
type SourceS3 struct {
	Bucket    string `json:"bucket" yaml:"bucket"`
	Key       string `json:"key" yaml:"key"`
	Region    string `json:"region" yaml:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	PathStyle bool   `json:"path_style" yaml:"path_style"`
}

// Location returns a human-readable address of the source for logs.
func (s Source) Location() string {
	switch s.Kind {
	case KindHTTP:
		return s.HTTP.URL
	case KindS3:
		return "s3://" + s.S3.Bucket + "/" + strings.TrimPrefix(s.S3.Key, "/")
	default:
		return s.File.Path
	}
}

// Output selects the sink for the final table.
type Output struct {
	// Kind is "csv" (default) or a registered storage backend:
	// "sqlite", "postgres", "mssql", "mysql".
	Kind string `json:"kind" yaml:"kind"`

	// Path is the CSV file written when Kind is "csv".
	Path string `json:"path" yaml:"path"`

	DB DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the (optionally schema-qualified) destination table.
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable creates the destination table when it does not exist.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`

	// Replace deletes existing rows before loading so reruns do not
	// accumulate duplicates.
	Replace bool `json:"replace" yaml:"replace"`

	// BatchSize bounds the rows per bulk insert.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is "none" (default), "pushgateway" or "datadog".
	Backend        string   `json:"backend" yaml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Load reads a pipeline file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Defaults are applied to the result.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	p, err := Decode(b, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Decode parses b as YAML when ext is ".yaml"/".yml" and as JSON otherwise,
// then applies defaults.
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &p); err != nil {
			return Pipeline{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	}
	p.ApplyDefaults()
	return p, nil
}

// ApplyDefaults fills zero values with the documented defaults.
func (p *Pipeline) ApplyDefaults() {
	if strings.TrimSpace(p.Job) == "" {
		p.Job = DefaultJob
	}
	for _, s := range []*Source{&p.Sources.Emissions, &p.Sources.Population, &p.Sources.GDP} {
		if s.Kind == "" {
			s.Kind = KindFile
		}
		if s.Parser == nil {
			s.Parser = Options{}
		}
	}
	if p.Sources.Population.EntityColumn == "" {
		p.Sources.Population.EntityColumn = DefaultPopulationEntity
	}
	if p.Sources.GDP.EntityColumn == "" {
		p.Sources.GDP.EntityColumn = DefaultGDPEntity
	}
	if p.Output.Kind == "" {
		p.Output.Kind = KindCSV
	}
	if p.Output.Kind == KindCSV && p.Output.Path == "" {
		p.Output.Path = DefaultOutputPath
	}
	if p.Output.DB.BatchSize <= 0 {
		p.Output.DB.BatchSize = DefaultBatchSize
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}
}

// Options is a small helper to fetch typed values from arbitrary JSON/YAML
// maps. It performs only minimal type coercion and returns provided defaults
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null options object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
