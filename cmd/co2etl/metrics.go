package main

import (
	"fmt"

	"go.uber.org/zap"

	"co2etl/internal/config"
	"co2etl/internal/metrics"
	"co2etl/internal/metrics/datadog"
	"co2etl/internal/metrics/prompush"
)

const defaultPushgatewayURL = "http://localhost:9091"

// setupMetrics installs the configured backend and returns a function that
// flushes it at shutdown.
func setupMetrics(m config.Metrics, job string, log *zap.Logger) (func(), error) {
	var (
		b       metrics.Backend
		closeFn = func() error { return nil }
	)
	switch m.Backend {
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}, nil
	case "pushgateway":
		url := m.PushgatewayURL
		if url == "" {
			url = defaultPushgatewayURL
		}
		pb, err := prompush.NewBackend(job, url)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = pb
		log.Info("metrics enabled", zap.String("backend", m.Backend), zap.String("url", url))
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: m.Namespace, Tags: m.Tags})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b, closeFn = db, db.Close
		log.Info("metrics enabled", zap.String("backend", m.Backend), zap.String("addr", m.DatadogAddr))
	default:
		log.Warn("unknown metrics backend; metrics disabled", zap.String("backend", m.Backend))
		return func() {}, nil
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
		if err := closeFn(); err != nil {
			log.Warn("metrics close failed", zap.Error(err))
		}
		metrics.Reset()
	}, nil
}
