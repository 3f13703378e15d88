package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"co2etl/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, v *prometheus.HistogramVec, lvs ...string) (uint64, float64) {
	t.Helper()
	m := &dto.Metric{}
	if err := v.WithLabelValues(lvs...).(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("Histogram.Write: %v", err)
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		job     string
		url     string
		wantErr bool
		wantJob string
	}{
		{name: "missing url", job: "x", wantErr: true},
		{name: "default job", url: "http://pushgateway:9091", wantJob: "co2etl"},
		{name: "explicit job", job: "nightly", url: "http://pushgateway:9091", wantJob: "nightly"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.job, tt.url)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend = %v, %v; want error", b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend: %v", err)
			}
			if b.jobName != tt.wantJob {
				t.Fatalf("jobName = %q; want %q", b.jobName, tt.wantJob)
			}
		})
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("co2", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "merge", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"kind": "unmatched_gdp"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "unmatched_gdp"})
	b.IncCounter(metrics.BatchesTotal, 2, nil)
	b.IncCounter("unknown", 9, nil)

	if got := counterValue(t, b.steps.WithLabelValues("merge", "success")); got != 1 {
		t.Fatalf("steps = %v; want 1", got)
	}
	if got := counterValue(t, b.rows.WithLabelValues("unmatched_gdp")); got != 5 {
		t.Fatalf("rows = %v; want 5", got)
	}
	if got := counterValue(t, b.batches); got != 2 {
		t.Fatalf("batches = %v; want 2", got)
	}
}

func TestNilCollectorsAreSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "written"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 1, nil)
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("co2", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"step": "derive", "status": "success"}
	b.ObserveHistogram(metrics.StepDuration, 0.25, lbls)
	b.ObserveHistogram("other", 3, lbls)

	n, sum := histogramCount(t, b.duration, "derive", "success")
	if n != 1 || sum != 0.25 {
		t.Fatalf("histogram = (%d, %v); want (1, 0.25)", n, sum)
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method, path, body string
	}
	reqCh := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{r.Method, r.URL.Path, string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("co2", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "written"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-reqCh:
		if got.method != http.MethodPut {
			t.Fatalf("method = %s; want PUT", got.method)
		}
		if !strings.Contains(got.path, "/job/co2") {
			t.Fatalf("path = %s; want job grouping", got.path)
		}
		if got.body == "" {
			t.Fatalf("empty push body")
		}
	default:
		t.Fatalf("Flush sent no request")
	}
}

func TestFlushReportsGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("co2", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err == nil || !strings.Contains(err.Error(), "prompush") {
		t.Fatalf("Flush err = %v; want prompush error", err)
	}
}

func BenchmarkIncCounterRows(b *testing.B) {
	backend, err := NewBackend("co2", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"kind": "written"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RowsTotal, 1, lbls)
	}
}
