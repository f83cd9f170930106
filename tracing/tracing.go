package tracing

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes finished spans to a logrus logger, one debug entry per span.
type LogExporter struct {
	logger *logrus.Logger

	mu      sync.Mutex
	stopped bool
}

func NewLogExporter(logger *logrus.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}

	for _, span := range spans {
		fields := logrus.Fields{
			"traceId":  span.SpanContext().TraceID().String(),
			"spanId":   span.SpanContext().SpanID().String(),
			"duration": span.EndTime().Sub(span.StartTime()).String(),
			"status":   span.Status().Code.String(),
		}
		for _, attr := range span.Attributes() {
			fields[string(attr.Key)] = attr.Value.Emit()
		}
		if span.Status().Description != "" {
			fields["error"] = span.Status().Description
		}
		e.logger.WithFields(fields).Debugf("Event ID: TRACE_SPAN, Description: Span %s finished", span.Name())
	}
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	return nil
}

// Setup installs the global tracer provider. With enabled false spans are still
// created but nothing is exported. The returned function flushes and stops the provider.
func Setup(logger *logrus.Logger, enabled bool) func(context.Context) error {
	var opts []sdktrace.TracerProviderOption
	if enabled {
		opts = append(opts, sdktrace.WithSyncer(NewLogExporter(logger)))
	}
	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return provider.Shutdown
}
