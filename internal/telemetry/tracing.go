// Package telemetry wires OpenTelemetry tracing for the CLI.
//
// There is no collector on a user's machine, so finished spans are written
// to the debug log instead of being exported over the network.
package telemetry

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitTracerProvider installs a global tracer provider whose spans go to logger.
//
// Parameters:
//   - serviceName: Value of the service.name resource attribute
//   - version: Value of the service.version resource attribute
//   - logger: Destination for finished spans, written at debug level
//
// Returns:
//   - *sdktrace.TracerProvider: The provider; call Shutdown before exit
func InitTracerProvider(serviceName, version string, logger *log.Logger) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(NewLogExporter(logger)),
	)
	otel.SetTracerProvider(tp)
	return tp
}

// LogExporter is a SpanExporter that logs each finished span.
type LogExporter struct {
	logger *log.Logger
}

// NewLogExporter creates an exporter writing to logger.
func NewLogExporter(logger *log.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		keyvals := []interface{}{
			"span", span.Name(),
			"trace", span.SpanContext().TraceID().String(),
			"duration", span.EndTime().Sub(span.StartTime()).Round(time.Millisecond),
		}
		for _, kv := range span.Attributes() {
			keyvals = append(keyvals, string(kv.Key), kv.Value.Emit())
		}
		if st := span.Status(); st.Code == codes.Error {
			keyvals = append(keyvals, "error", st.Description)
		}
		e.logger.Debug("trace", keyvals...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}
