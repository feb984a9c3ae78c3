package telemetry

// Config holds configuration for the tracer
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Enabled selects the SDK provider; when false a noop tracer is used
	Enabled bool

	// Endpoint is the OTLP/HTTP collector host:port. Empty keeps spans
	// in-process, which is still useful for log correlation.
	Endpoint string

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig disables tracing; the CLI opts in through configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "agentplan",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1.0,
	}
}
