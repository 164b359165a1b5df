package metrics

import "time"

// NoopCollector discards all telemetry. Used when metrics are disabled.
type NoopCollector struct{}

// RecordRequest implements the collector seam and does nothing.
func (NoopCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {}
