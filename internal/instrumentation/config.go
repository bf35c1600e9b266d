package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Exporter names accepted by Config.MetricsExporter.
const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Config controls the instrumentation provider.
type Config struct {
	// Enabled turns metric collection on.
	Enabled bool

	// ServiceName identifies this service in exported metrics.
	ServiceName string

	// ServiceVersion is the build version attached to the resource.
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname when empty.
	ServiceInstanceID string

	// MetricsExporter selects prometheus, stdout or none.
	MetricsExporter string
}

// DefaultConfig returns a disabled configuration with sane defaults filled
// in for when it gets enabled.
func DefaultConfig(serviceName, serviceVersion string) Config {
	return Config{
		Enabled:         false,
		ServiceName:     serviceName,
		ServiceVersion:  serviceVersion,
		MetricsExporter: ExporterPrometheus,
	}
}

// Validate checks the configuration for an enabled provider.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterStdout:
		return nil
	case ExporterNone:
		return fmt.Errorf("metrics exporter %q makes no sense with instrumentation enabled", c.MetricsExporter)
	default:
		return fmt.Errorf("unsupported metrics exporter: %s", c.MetricsExporter)
	}
}

// ApplyEnv overlays environment overrides onto the config.
// METRICS_ENABLED toggles collection in either direction, METRICS_EXPORTER
// selects the exporter, OTEL_SERVICE_INSTANCE_ID pins the instance id.
// Unset or unparsable values leave the config untouched.
func (c Config) ApplyEnv() Config {
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv("METRICS_EXPORTER"); v != "" {
		c.MetricsExporter = v
	}
	if v := os.Getenv("OTEL_SERVICE_INSTANCE_ID"); v != "" {
		c.ServiceInstanceID = v
	}
	return c
}
