package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
)

func newTestReviewsProvider(t *testing.T, baseURL, key string) *TaobaoReviewsProvider {
	t.Helper()
	return NewTaobaoReviewsProvider(RapidAPIConfig{
		Client: ClientConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		APIKey: key,
	}, zaptest.NewLogger(t))
}

func TestTaobaoReviewsProvider_Fetch(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "result.items with pic_url arrays",
			body: `{"result":{"items":[
				{"date":"2024-01-02","pic_url":["//img.alicdn.com/r1.jpg","//img.alicdn.com/r2.jpg"]},
				{"date":"2024-01-03","pic_url":[]}
			]}}`,
			want: []string{"https://img.alicdn.com/r1.jpg", "https://img.alicdn.com/r2.jpg"},
		},
		{
			name: "top-level items with images",
			body: `{"items":[{"images":["https://img.alicdn.com/r3.jpg"]}]}`,
			want: []string{"https://img.alicdn.com/r3.jpg"},
		},
		{
			name: "single pic_url string",
			body: `{"items":[{"pic_url":"img.alicdn.com/r4.jpg"}]}`,
			want: []string{"https://img.alicdn.com/r4.jpg"},
		},
		{
			name: "no reviews",
			body: `{"result":{"items":[]}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api", r.URL.Path)
				assert.Equal(t, "item_review", r.URL.Query().Get("api"))
				assert.Equal(t, "672938475610", r.URL.Query().Get("num_iid"))
				assert.Equal(t, "1", r.URL.Query().Get("has_pic"))
				assert.Equal(t, "key-1", r.Header.Get("x-rapidapi-key"))
				assert.Equal(t, TaobaoAdvancedHost, r.Header.Get("x-rapidapi-host"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			items, err := newTestReviewsProvider(t, server.URL, "key-1").
				Fetch(context.Background(), listing.MustNewIdentity("672938475610", listing.PlatformTaobao))
			require.NoError(t, err)

			var urls []string
			for _, it := range items {
				urls = append(urls, it.URL)
				assert.Equal(t, evidence.LabelReviewPhoto, it.SourceLabel)
				assert.Equal(t, TaobaoReviewsName, it.ProviderName)
			}
			assert.Equal(t, tt.want, urls)
		})
	}
}

func TestTaobaoReviewsProvider_CapturedAt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"date":"2024-01-02","pic_url":["//a/b.jpg"]}]}`))
	}))
	defer server.Close()

	items, err := newTestReviewsProvider(t, server.URL, "k").
		Fetch(context.Background(), listing.MustNewIdentity("1", listing.PlatformWeidian))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].CapturedAt)
	assert.Equal(t, "2024-01-02", *items[0].CapturedAt)
}

func TestTaobaoReviewsProvider_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := newTestReviewsProvider(t, "http://127.0.0.1:1", "").
			Fetch(context.Background(), listing.MustNewIdentity("1", listing.PlatformTaobao))
		assert.ErrorIs(t, err, evidence.ErrProviderNotConfigured)
	})

	t.Run("rejected key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestReviewsProvider(t, server.URL, "k").
			Fetch(context.Background(), listing.MustNewIdentity("1", listing.PlatformTaobao))
		assert.ErrorIs(t, err, evidence.ErrProviderUnavailable)
		assert.ErrorIs(t, err, ErrUpstreamAuth)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestReviewsProvider(t, url, "k").
			Fetch(context.Background(), listing.MustNewIdentity("1", listing.PlatformTaobao))
		assert.ErrorIs(t, err, evidence.ErrProviderUnavailable)
	})
}
