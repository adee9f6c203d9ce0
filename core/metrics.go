package core

import (
	"context"
	"strings"
)

// Metric names emitted by the platform. Operation metrics follow
// streamone.<operation>.total and streamone.<operation>.duration_ms.
const (
	MetricRequestTotal    = "streamone.request.total"
	MetricRequestDuration = "streamone.request.duration_ms"

	OperationSessionStart = "session_start"
	OperationSessionEnd   = "session_end"
	OperationHasToken     = "has_token"
)

func OperationCounterName(operation string) string {
	return "streamone." + operation + ".total"
}

func OperationDurationName(operation string) string {
	return "streamone." + operation + ".duration_ms"
}

// NopMetricsRecorder drops every sample.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ MetricsRecorder = NopMetricsRecorder{}

// recordCounter hands the recorder its own copy of tags.
func (p *Platform) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.IncCounter(ctx, strings.TrimSpace(name), value, copyTags(tags))
}

func (p *Platform) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, copyTags(tags))
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for key, value := range tags {
		out[key] = value
	}
	return out
}
