package link

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qclens/backend/internal/domain/agent"
	"github.com/qclens/backend/internal/domain/listing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	profiles := agent.DefaultProfiles()
	for i := range profiles {
		if profiles[i].ID == "cnfans" || profiles[i].ID == "kakobuy" {
			profiles[i] = profiles[i].WithReferralCode("AnyReps")
		}
	}
	reg, err := agent.NewRegistry(profiles...)
	require.NoError(t, err)
	return NewService(reg, zaptest.NewLogger(t))
}

func TestService_Convert(t *testing.T) {
	svc := newTestService(t)

	conv, err := svc.Convert(context.Background(), "https://weidian.com/item.html?itemID=4434536722", "cnfans")
	require.NoError(t, err)

	assert.Equal(t, listing.MustNewIdentity("4434536722", listing.PlatformWeidian), conv.Identity)
	assert.Equal(t, "https://weidian.com/item.html?itemID=4434536722", conv.SourceURL)
	require.Len(t, conv.Links, 1)
	assert.Equal(t, "https://cnfans.com/product/?shop_type=weidian&id=4434536722&ref=AnyReps", conv.Links[0].URL)
	assert.True(t, conv.Links[0].HasReferral)
}

func TestService_Convert_Errors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Convert(context.Background(), "best selling sunglasses", "cnfans")
	assert.ErrorIs(t, err, listing.ErrIdentityUnresolved)

	_, err = svc.Convert(context.Background(), "672938475610", "nobody")
	assert.ErrorIs(t, err, agent.ErrAgentNotFound)
}

func TestService_Convert_PlatformHint(t *testing.T) {
	svc := newTestService(t)

	conv, err := svc.Convert(context.Background(), "4434536722", "mulebuy", listing.WithPlatformHint(listing.PlatformWeidian))
	require.NoError(t, err)
	assert.Equal(t, "https://mulebuy.com/product/?shop_type=weidian&id=4434536722", conv.Links[0].URL)
	assert.False(t, conv.Links[0].HasReferral)
}

func TestService_ConvertAll(t *testing.T) {
	svc := newTestService(t)

	conv, err := svc.ConvertAll(context.Background(), "https://cnfans.com/product/?shop_type=taobao&id=672938475610&ref=other")
	require.NoError(t, err)
	require.Len(t, conv.Links, len(agent.DefaultProfiles()))

	byAgent := make(map[string]AgentLink, len(conv.Links))
	for _, l := range conv.Links {
		byAgent[l.AgentID] = l
	}
	assert.Equal(t, "https://cnfans.com/product/?shop_type=taobao&id=672938475610&ref=AnyReps", byAgent["cnfans"].URL)
	assert.Equal(t,
		"https://www.kakobuy.com/item/details?url=https%3A%2F%2Fitem.taobao.com%2Fitem.htm%3Fid%3D672938475610&aff=AnyReps",
		byAgent["kakobuy"].URL)
	assert.NotContains(t, byAgent["superbuy"].URL, "partnercode")
}

func TestService_Inspect(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Inspect(context.Background(), "https://www.litbuy.com/product/?shop_type=1688&id=1001744037978")
	require.NoError(t, err)
	assert.Equal(t, listing.Platform1688, got.Identity.Platform())
	assert.Equal(t, "https://detail.1688.com/offer/1001744037978.html", got.SourceURL)
	require.NotNil(t, got.DetectedAgent)
	assert.Equal(t, "litbuy", got.DetectedAgent.ID)

	got, err = svc.Inspect(context.Background(), "https://item.taobao.com/item.htm?id=1")
	require.NoError(t, err)
	assert.Nil(t, got.DetectedAgent)
}

func TestService_Agents(t *testing.T) {
	assert.Len(t, newTestService(t).Agents(), len(agent.DefaultProfiles()))
}
