package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is given
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Outcome labels for provider calls
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
)

// FulfillmentMetrics tracks outbound calls to the fulfillment provider.
// A nil *FulfillmentMetrics is valid and records nothing.
type FulfillmentMetrics struct {
	logger *zap.Logger

	callsTotal   *Counter
	callDuration *Histogram
}

// NewFulfillmentMetrics creates the provider call instruments on the given meter.
func NewFulfillmentMetrics(meter metric.Meter, logger *zap.Logger) (*FulfillmentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	calls, err := NewCounter(meter,
		"dshop_fulfillment_calls_total",
		"Total number of calls made to the fulfillment provider",
		"{calls}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "dshop_fulfillment_call_duration_seconds",
		Description: "Duration of calls made to the fulfillment provider",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &FulfillmentMetrics{
		logger:       logger,
		callsTotal:   calls,
		callDuration: duration,
	}, nil
}

// RecordCall records one provider call with its outcome and latency.
func (m *FulfillmentMetrics) RecordCall(ctx context.Context, provider, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.Inc(ctx,
		AttrProvider.String(provider),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
	m.callDuration.RecordDuration(ctx, elapsed,
		AttrProvider.String(provider),
		AttrOperation.String(operation),
	)
}
