package summarizer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// InstrumentedConfig configures the instrumented wrapper.
type InstrumentedConfig struct {
	// RequestsPerSecond throttles outbound summarization calls.
	// Zero disables throttling.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size (default 1 when throttled).
	Burst int
}

// Instrumented wraps a Client with tracing and an optional client-side
// rate limit. Waiting for a rate slot respects the caller's context, so a
// saturated limiter degrades to the caller's timeout path rather than
// queueing without bound.
type Instrumented struct {
	client  Client
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// NewInstrumented wraps client with tracing and rate limiting.
func NewInstrumented(client Client, cfg InstrumentedConfig) *Instrumented {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Instrumented{
		client:  client,
		limiter: limiter,
		tracer:  otel.Tracer("ivy-ai-counsellor/summarizer"),
	}
}

// Name implements Client.
func (i *Instrumented) Name() string { return i.client.Name() }

// Summarize implements Client.
func (i *Instrumented) Summarize(ctx context.Context, messages []Message, priorSummary string) (string, error) {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("summarizer rate limit: %w", err)
		}
	}

	ctx, span := i.tracer.Start(ctx, fmt.Sprintf("summarizer.%s", i.client.Name()),
		trace.WithAttributes(
			attribute.String("summarizer.client", i.client.Name()),
			attribute.Int("summarizer.messages_count", len(messages)),
			attribute.Bool("summarizer.has_prior_summary", priorSummary != ""),
		),
	)
	defer span.End()

	summary, err := i.client.Summarize(ctx, messages, priorSummary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("summarizer.summary_length", len(summary)))
	return summary, nil
}
