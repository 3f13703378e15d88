package config

import "strconv"

// ApplyEnv overrides selected settings from the environment. getenv is
// injected so tests stay hermetic; production passes os.Getenv.
//
//	CO2ETL_OUTPUT_PATH   output.path
//	CO2ETL_OUTPUT_DSN    output.db.dsn
//	CO2ETL_BATCH_SIZE    output.db.batch_size
//	METRICS_BACKEND      metrics.backend
//	PUSHGATEWAY_URL      metrics.pushgateway_url
//	DD_AGENT_ADDR        metrics.datadog_addr
func (p *Pipeline) ApplyEnv(getenv func(string) string) {
	if v := getenv("CO2ETL_OUTPUT_PATH"); v != "" {
		p.Output.Path = v
	}
	if v := getenv("CO2ETL_OUTPUT_DSN"); v != "" {
		p.Output.DB.DSN = v
	}
	if v := getenv("CO2ETL_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Output.DB.BatchSize = n
		}
	}
	if v := getenv("METRICS_BACKEND"); v != "" {
		p.Metrics.Backend = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		p.Metrics.PushgatewayURL = v
	}
	if v := getenv("DD_AGENT_ADDR"); v != "" {
		p.Metrics.DatadogAddr = v
	}
}
