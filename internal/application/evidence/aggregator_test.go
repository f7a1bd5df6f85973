package evidence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
)

// fakeProvider is a scripted evidence.Provider that records its calls
type fakeProvider struct {
	desc  evidence.Descriptor
	fetch func(ctx context.Context, id listing.Identity) ([]evidence.Item, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Descriptor() evidence.Descriptor { return f.desc }

func (f *fakeProvider) Fetch(ctx context.Context, id listing.Identity) ([]evidence.Item, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fetch(ctx, id)
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func returns(items ...evidence.Item) func(context.Context, listing.Identity) ([]evidence.Item, error) {
	return func(context.Context, listing.Identity) ([]evidence.Item, error) { return items, nil }
}

func fails(err error) func(context.Context, listing.Identity) ([]evidence.Item, error) {
	return func(context.Context, listing.Identity) ([]evidence.Item, error) { return nil, err }
}

func item(url, label, provider string) evidence.Item {
	return evidence.Item{URL: url, SourceLabel: label, ProviderName: provider}
}

type testChain struct {
	warehouse *fakeProvider
	reviews   *fakeProvider
	market    *fakeProvider
	chain     *evidence.Chain
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	tc := &testChain{
		warehouse: &fakeProvider{
			desc: evidence.Descriptor{
				Name: "warehouse_qc", Priority: 10,
				Platforms:                []listing.Platform{listing.PlatformTaobao, listing.PlatformWeidian},
				AuthScheme:               evidence.AuthSignedQuery,
				TerminatesChainOnSuccess: true,
			},
			fetch: returns(),
		},
		reviews: &fakeProvider{
			desc: evidence.Descriptor{
				Name: "taobao_reviews", Priority: 20,
				Platforms:                []listing.Platform{listing.PlatformTaobao, listing.PlatformWeidian},
				AuthScheme:               evidence.AuthAPIKeyHeader,
				TerminatesChainOnSuccess: true,
			},
			fetch: returns(),
		},
		market: &fakeProvider{
			desc: evidence.Descriptor{
				Name: "market_1688", Priority: 10,
				Platforms:  []listing.Platform{listing.Platform1688},
				AuthScheme: evidence.AuthAPIKeyHeader,
				Exclusive:  true,
			},
			fetch: returns(),
		},
	}
	chain, err := evidence.NewChain(tc.reviews, tc.market, tc.warehouse, evidence.PlaceholderProvider{})
	require.NoError(t, err)
	tc.chain = chain
	return tc
}

func (tc *testChain) aggregator(t *testing.T, opts ...Option) *Aggregator {
	return NewAggregator(tc.chain, zaptest.NewLogger(t), opts...)
}

func outcomes(r Result) []string {
	out := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.Provider+"="+a.Outcome)
	}
	return out
}

func TestAggregate_WarehouseHitStopsChain(t *testing.T) {
	tc := newTestChain(t)
	tc.warehouse.fetch = returns(item("//qc.example/1.jpg", evidence.LabelWarehouseQC, "warehouse_qc"))

	result := tc.aggregator(t).Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformTaobao))

	require.Len(t, result.Items, 1)
	assert.Equal(t, "https://qc.example/1.jpg", result.Items[0].URL)
	assert.False(t, result.Placeholder)
	assert.Equal(t, 0, tc.reviews.Calls())
	assert.Equal(t, []string{"warehouse_qc=items"}, outcomes(result))
}

func TestAggregate_WarehouseUnreachableFallsBackToReviews(t *testing.T) {
	tc := newTestChain(t)
	tc.warehouse.fetch = fails(fmt.Errorf("%w: dial tcp: connection refused", evidence.ErrProviderUnavailable))
	tc.reviews.fetch = returns(item("https://img.example/r.jpg", evidence.LabelReviewPhoto, "taobao_reviews"))

	result := tc.aggregator(t).Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformTaobao))

	require.Len(t, result.Items, 1)
	assert.Equal(t, evidence.LabelReviewPhoto, result.Items[0].SourceLabel)
	assert.False(t, result.Placeholder)
	assert.Equal(t, 1, tc.warehouse.Calls())
	assert.Equal(t, 1, tc.reviews.Calls())
	assert.Equal(t, []string{"warehouse_qc=error", "taobao_reviews=items"}, outcomes(result))
}

func TestAggregate_UnconfiguredWarehouseIsSkipped(t *testing.T) {
	tc := newTestChain(t)
	tc.warehouse.fetch = fails(evidence.ErrProviderNotConfigured)
	tc.reviews.fetch = returns(item("https://img.example/r.jpg", evidence.LabelReviewPhoto, ""))

	result := tc.aggregator(t).Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformWeidian))

	require.Len(t, result.Items, 1)
	assert.Equal(t, "taobao_reviews", result.Items[0].ProviderName)
	assert.Equal(t, []string{"warehouse_qc=skipped", "taobao_reviews=items"}, outcomes(result))
}

func TestAggregate_ExhaustedTaobaoReturnsPlaceholders(t *testing.T) {
	tc := newTestChain(t)
	tc.warehouse.fetch = fails(errors.New("code 500"))

	result := tc.aggregator(t).Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformTaobao))

	assert.True(t, result.Placeholder)
	assert.Equal(t, evidence.Placeholders(), result.Items)
	assert.Equal(t, []string{"warehouse_qc=error", "taobao_reviews=empty", "DemoData=items"}, outcomes(result))
}

func TestAggregate_Exhausted1688ReturnsEmpty(t *testing.T) {
	tc := newTestChain(t)
	tc.market.fetch = fails(errors.New("upstream down"))

	result := tc.aggregator(t).Collect(context.Background(), listing.MustNewIdentity("1001744037978", listing.Platform1688))

	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.False(t, result.Placeholder)
	assert.Equal(t, 0, tc.warehouse.Calls())
	assert.Equal(t, []string{"market_1688=error"}, outcomes(result))
}

func TestAggregate_1688ItemsPassThrough(t *testing.T) {
	tc := newTestChain(t)
	tc.market.fetch = returns(
		item("//cbu01.alicdn.com/a.jpg", evidence.LabelProductGallery, "market_1688"),
		item("cbu01.alicdn.com/b.jpg", evidence.LabelFactoryDetail, "market_1688"),
		item("", evidence.Label1688BuyerPhoto, "market_1688"),
	)

	items := tc.aggregator(t).Aggregate(context.Background(), listing.MustNewIdentity("1001744037978", listing.Platform1688))

	require.Len(t, items, 2)
	assert.Equal(t, "https://cbu01.alicdn.com/a.jpg", items[0].URL)
	assert.Equal(t, "https://cbu01.alicdn.com/b.jpg", items[1].URL)
}

func TestAggregate_PanickingProviderIsRecovered(t *testing.T) {
	tc := newTestChain(t)
	tc.warehouse.fetch = func(context.Context, listing.Identity) ([]evidence.Item, error) {
		panic("nil map")
	}
	tc.reviews.fetch = returns(item("https://img.example/r.jpg", evidence.LabelReviewPhoto, "taobao_reviews"))

	var result Result
	require.NotPanics(t, func() {
		result = tc.aggregator(t).Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformTaobao))
	})
	assert.Equal(t, []string{"warehouse_qc=panic", "taobao_reviews=items"}, outcomes(result))
}

func TestAggregate_TimeoutCountsAsEmpty(t *testing.T) {
	tc := newTestChain(t)
	tc.warehouse.fetch = func(ctx context.Context, _ listing.Identity) ([]evidence.Item, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	tc.reviews.fetch = returns(item("https://img.example/r.jpg", evidence.LabelReviewPhoto, "taobao_reviews"))

	start := time.Now()
	result := tc.aggregator(t, WithProviderTimeout(20*time.Millisecond)).
		Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformTaobao))

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, result.Items, 1)
	assert.Equal(t, telemetry.OutcomeError, result.Attempts[0].Outcome)
	assert.Contains(t, result.Attempts[0].Error, "deadline")
}

func TestAggregate_RecordsMetrics(t *testing.T) {
	tc := newTestChain(t)
	metrics := telemetry.NewMetrics()

	tc.aggregator(t, WithMetrics(metrics)).Collect(context.Background(), listing.MustNewIdentity("42", listing.PlatformTaobao))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, telemetry.MetricProviderCallsTotal)
	assert.Contains(t, names, telemetry.MetricEvidenceResultsTotal)
}

func TestAggregate_CallsAreIndependent(t *testing.T) {
	tc := newTestChain(t)
	agg := tc.aggregator(t)
	id := listing.MustNewIdentity("42", listing.PlatformTaobao)

	first := agg.Aggregate(context.Background(), id)
	first[0].URL = "mutated"

	second := agg.Aggregate(context.Background(), id)
	assert.NotEqual(t, "mutated", second[0].URL)
}
