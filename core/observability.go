package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-streamone/adapters/gologger"
)

func (p *Platform) observeRequest(ctx context.Context, startedAt time.Time, resp *Response, fields map[string]any) {
	if p == nil {
		return
	}
	contextFields := cloneFields(fields)
	contextFields["status"] = resp.Status().String()
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()

	outcome := "success"
	if !resp.Success() {
		outcome = "failure"
		if err := ResponseError(resp); err != nil {
			contextFields["error"] = err.Error()
		}
	}

	tags := map[string]string{
		"command":    fmt.Sprint(fields["command"]),
		"action":     fmt.Sprint(fields["action"]),
		"outcome":    outcome,
		"from_cache": fmt.Sprint(resp.FromCache),
	}
	p.recordCounter(ctx, MetricRequestTotal, 1, tags)
	if !resp.FromCache {
		p.recordHistogram(ctx, MetricRequestDuration, float64(time.Since(startedAt).Milliseconds()), tags)
	}

	if outcome == "failure" {
		p.logWithLevel(ctx, "warn", "streamone request failed", contextFields)
		return
	}
	p.logWithLevel(ctx, "debug", "streamone request completed", contextFields)
}

func (p *Platform) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if p == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if value := strings.TrimSpace(fmt.Sprint(contextFields["actor_type"])); value != "" && value != "<nil>" {
		tags["actor_type"] = value
	}

	p.recordCounter(ctx, OperationCounterName(operation), 1, tags)
	p.recordHistogram(ctx, OperationDurationName(operation), float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		p.logWithLevel(ctx, "error", operation+" failed", contextFields)
		return
	}
	p.logWithLevel(ctx, "info", operation+" succeeded", contextFields)
}

func (p *Platform) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if p == nil || p.logger == nil {
		return
	}
	logger := p.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger = gologger.WithFields(logger, RedactSensitiveMap(fields))
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message)
	case "warn":
		logger.Warn(message)
	case "debug":
		logger.Debug(message)
	default:
		logger.Info(message)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
