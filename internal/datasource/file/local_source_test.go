package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "population.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return p
}

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name            string
		path            func(t *testing.T) string
		ctx             context.Context
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}{
		{
			name:        "reads_whole_file",
			path:        func(t *testing.T) string { return writeCSV(t, "Country/Territory,2020 Population\nA,1\n") },
			ctx:         context.Background(),
			wantContent: "Country/Territory,2020 Population\nA,1\n",
		},
		{
			name:            "missing_file_wraps_path",
			path:            func(t *testing.T) string { return filepath.Join(t.TempDir(), "gdp.csv") },
			ctx:             context.Background(),
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "gdp.csv",
		},
		{
			name:      "canceled_context_short_circuits",
			path:      func(t *testing.T) string { return writeCSV(t, "ignored") },
			ctx:       canceled,
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			src := NewLocal(c.path(t))
			rc, err := src.Open(c.ctx)
			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q; want %q", got, c.wantContent)
			}
		})
	}
}

func BenchmarkLocalOpen(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("entity,year\n"), 0o644); err != nil {
		b.Fatalf("write test file: %v", err)
	}
	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
