// Package telemetry wraps an OpenTelemetry tracer provider around the two
// places scrollcode's core does work worth measuring: a highlight request
// round-trip and one virtualizer frame. It supports a single stdout
// exporter — this module has no collector endpoint for an OTLP exporter to
// ship spans to, and no daemon-style long-lived process for an ops team to
// watch in Grafana.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects whether tracing runs and where spans go. It mirrors
// config.TracingConfig field-for-field so cmd/scrollcode can pass one
// straight into the other without an import cycle.
type Config struct {
	Enabled    bool
	Exporter   string // "none" or "stdout"
	SampleRate float64
}

// Provider owns the process-wide TracerProvider and the one trace.Tracer
// scrollcode's core packages use.
type Provider struct {
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	enabled bool
}

// NewProvider builds a Provider per cfg. A disabled or "none"-exporter
// config returns a genuine no-op tracer (zero allocation per span), so
// tracing costs nothing when it isn't wanted.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled || cfg.Exporter == "none" || cfg.Exporter == "" {
		return &Provider{tracer: noop.NewTracerProvider().Tracer("scrollcode"), enabled: false}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating stdout exporter: %w", err)
	}

	// resource.NewSchemaless, not resource.Merge(resource.Default(), ...):
	// merging against the default resource risks a schema-version conflict
	// between whatever otel release produced it and this module's pinned
	// semconv attributes.
	res := resource.NewSchemaless(attribute.String("service.name", "scrollcode"))

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 0
	} else if rate > 1 {
		rate = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, tracer: tp.Tracer("scrollcode"), enabled: true}, nil
}

// Shutdown flushes and stops the underlying TracerProvider. A no-op
// Provider's Shutdown is itself a no-op, and Shutdown is idempotent.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Enabled reports whether this Provider exports real spans.
func (p *Provider) Enabled() bool { return p != nil && p.enabled }

// tracerOrNoop returns p's tracer, or a genuine no-op tracer when p is nil —
// callers (internal/tui) can hold a *Provider that was never constructed
// (no telemetry wired at all) and still call Start* unconditionally.
func (p *Provider) tracerOrNoop() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer("scrollcode")
	}
	return p.tracer
}

// StartHighlight starts a span around one highlight.Pool.Submit round trip.
func (p *Provider) StartHighlight(ctx context.Context, language string, bytes int) (context.Context, trace.Span) {
	return p.tracerOrNoop().Start(ctx, "highlight.request",
		trace.WithAttributes(
			attribute.String("highlight.language", language),
			attribute.Int("highlight.bytes", bytes),
		),
	)
}

// StartFrame starts a span around one Virtualizer.Frame call.
func (p *Provider) StartFrame(ctx context.Context, instanceCount int) (context.Context, trace.Span) {
	return p.tracerOrNoop().Start(ctx, "virtualizer.frame",
		trace.WithAttributes(attribute.Int("virtualizer.instance_count", instanceCount)),
	)
}
