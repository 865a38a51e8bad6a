package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "parasplit"

// GetGlobalTracer returns the tracer of the globally installed provider.
// It is looked up on every call so that a provider installed later (or in tests) is used.
func GetGlobalTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceSplitterFunction starts a new span for a splitter service function.
func TraceSplitterFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "splitter", functionName, attributes...)
}

// TraceCommandFunction starts a new span for a CLI command.
func TraceCommandFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "command", functionName, attributes...)
}

// AttributeInputPath returns a tracing attribute for the input file.
func AttributeInputPath(path string) attribute.KeyValue {
	return attribute.String("split.input_path", path)
}

// AttributeSourceOutputPath returns a tracing attribute for the source-language output file.
func AttributeSourceOutputPath(path string) attribute.KeyValue {
	return attribute.String("split.source_output_path", path)
}

// AttributeTargetOutputPath returns a tracing attribute for the target-language output file.
func AttributeTargetOutputPath(path string) attribute.KeyValue {
	return attribute.String("split.target_output_path", path)
}

// AttributeLinesRead returns a tracing attribute for the number of input lines read.
func AttributeLinesRead(n int) attribute.KeyValue {
	return attribute.Int("split.lines_read", n)
}

// AttributeRecords returns a tracing attribute for the number of records split.
func AttributeRecords(n int) attribute.KeyValue {
	return attribute.Int("split.records", n)
}

// AttributeBlankLines returns a tracing attribute for the number of blank input lines.
func AttributeBlankLines(n int) attribute.KeyValue {
	return attribute.Int("split.blank_lines", n)
}
