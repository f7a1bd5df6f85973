// Package evidence runs the provider chain for a resolved listing and returns
// the merged, normalised QC evidence.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
)

const defaultProviderTimeout = 8 * time.Second

// Attempt records what one provider did during an aggregation
type Attempt struct {
	Provider string        `json:"provider"`
	Outcome  string        `json:"outcome"`
	Items    int           `json:"items"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is an aggregation together with how it was produced
type Result struct {
	Identity listing.Identity
	Items    []evidence.Item
	// Placeholder is true when Items is the demo set
	Placeholder bool
	Cached      bool
	Attempts    []Attempt
}

// Collector is implemented by Aggregator and its caching decorator
type Collector interface {
	Collect(ctx context.Context, id listing.Identity) Result
}

// Aggregator interprets an evidence.Chain: providers are tried one at a time
// in priority order, and a failed, timed-out or panicking provider counts as
// an empty answer.
type Aggregator struct {
	chain   *evidence.Chain
	logger  *zap.Logger
	metrics *telemetry.Metrics
	timeout time.Duration
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithMetrics records provider outcomes
func WithMetrics(m *telemetry.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithProviderTimeout bounds each provider call
func WithProviderTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAggregator creates an aggregator over a validated chain
func NewAggregator(chain *evidence.Chain, logger *zap.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		chain:   chain,
		logger:  logger,
		timeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns the evidence for id. It never fails: exhaustion yields the
// placeholder set or an empty list depending on the platform's chain.
func (a *Aggregator) Aggregate(ctx context.Context, id listing.Identity) []evidence.Item {
	return a.Collect(ctx, id).Items
}

// Collect is Aggregate with the per-provider report
func (a *Aggregator) Collect(ctx context.Context, id listing.Identity) Result {
	ctx, span := telemetry.StartServiceSpan(ctx, "evidence", "aggregate",
		telemetry.WithAttribute(telemetry.SpanAttrPlatform, id.Platform()),
		telemetry.WithAttribute(telemetry.SpanAttrItemID, id.ItemID()),
	)
	defer span.End()

	result := Result{Identity: id, Items: []evidence.Item{}}
	for _, p := range a.chain.For(id.Platform()) {
		d := p.Descriptor()
		if d.Placeholder && len(result.Items) > 0 {
			continue
		}

		items, attempt := a.attempt(ctx, p, id)
		result.Attempts = append(result.Attempts, attempt)
		result.Items = append(result.Items, items...)
		if d.Placeholder && len(items) > 0 {
			result.Placeholder = true
		}

		if d.Exclusive {
			break
		}
		if d.TerminatesChainOnSuccess && len(items) > 0 {
			break
		}
	}

	outcome := "items"
	switch {
	case result.Placeholder:
		outcome = "placeholder"
	case len(result.Items) == 0:
		outcome = "empty"
	}
	if outcome != "items" {
		a.logger.Info("Evidence providers exhausted",
			zap.String("platform", id.Platform().String()),
			zap.String("item_id", id.ItemID()),
			zap.String("fallback", outcome),
			zap.NamedError("reason", evidence.ErrAllProvidersExhausted),
		)
	}
	a.metrics.RecordEvidenceResult(id.Platform().String(), outcome)
	telemetry.SetAttributes(span, telemetry.SpanAttrItems, len(result.Items), "evidence.outcome", outcome)
	return result
}

// attempt runs one provider under its own deadline and classifies the outcome
func (a *Aggregator) attempt(ctx context.Context, p evidence.Provider, id listing.Identity) ([]evidence.Item, Attempt) {
	d := p.Descriptor()
	ctx, span := telemetry.StartSpan(ctx, "evidence.provider",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, d.Name),
	)
	defer span.End()

	start := time.Now()
	raw, err := a.fetch(ctx, p, id)
	elapsed := time.Since(start)

	items := normalize(raw, d.Name)
	attempt := Attempt{Provider: d.Name, Items: len(items), Duration: elapsed}

	switch {
	case errors.Is(err, evidence.ErrProviderNotConfigured):
		attempt.Outcome = telemetry.OutcomeSkipped
		telemetry.AddEvent(span, "provider_skipped")
	case errors.Is(err, errProviderPanic):
		attempt.Outcome = telemetry.OutcomePanic
	case err != nil:
		attempt.Outcome = telemetry.OutcomeError
	case len(items) == 0:
		attempt.Outcome = telemetry.OutcomeEmpty
	default:
		attempt.Outcome = telemetry.OutcomeItems
	}

	if err != nil {
		attempt.Error = err.Error()
		items = nil
		attempt.Items = 0
		if attempt.Outcome != telemetry.OutcomeSkipped {
			telemetry.RecordError(span, err)
			a.logger.Warn("Evidence provider failed",
				zap.String("provider", d.Name),
				zap.String("platform", id.Platform().String()),
				zap.String("item_id", id.ItemID()),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		} else {
			a.logger.Debug("Evidence provider skipped",
				zap.String("provider", d.Name),
				zap.Error(err),
			)
		}
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrItems, len(items))
	a.metrics.RecordProviderCall(d.Name, id.Platform().String(), attempt.Outcome, elapsed)
	return items, attempt
}

var errProviderPanic = errors.New("evidence: provider panicked")

func (a *Aggregator) fetch(ctx context.Context, p evidence.Provider, id listing.Identity) (items []evidence.Item, err error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%w: %v", errProviderPanic, r)
		}
	}()
	return p.Fetch(ctx, id)
}

// normalize upgrades every URL to an absolute one, drops empties and fills
// the provider name when an adapter left it blank
func normalize(items []evidence.Item, provider string) []evidence.Item {
	out := make([]evidence.Item, 0, len(items))
	for _, item := range items {
		item.URL = evidence.NormalizeURL(item.URL)
		if item.URL == "" {
			continue
		}
		if item.ProviderName == "" {
			item.ProviderName = provider
		}
		out = append(out, item)
	}
	return out
}

var _ Collector = (*Aggregator)(nil)
