package dto

import (
	"github.com/qclens/backend/internal/domain/agent"
	"github.com/qclens/backend/internal/domain/listing"
)

// IdentityResponse is the JSON form of a resolved listing
type IdentityResponse struct {
	ItemID       string `json:"item_id"`
	Platform     string `json:"platform"`
	PlatformName string `json:"platform_name"`
	Key          string `json:"key"`
	SourceURL    string `json:"source_url"`
}

// NewIdentityResponse converts a listing identity
func NewIdentityResponse(id listing.Identity) IdentityResponse {
	return IdentityResponse{
		ItemID:       id.ItemID(),
		Platform:     id.Platform().String(),
		PlatformName: id.Platform().DisplayName(),
		Key:          id.Key(),
		SourceURL:    listing.SourceURL(id),
	}
}

// AgentResponse describes a registered agent
type AgentResponse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	BaseURL      string `json:"base_url"`
	LinkTemplate string `json:"link_template"`
	HasReferral  bool   `json:"has_referral"`
}

// NewAgentResponse converts an agent profile. The referral code itself is not exposed.
func NewAgentResponse(p agent.Profile) AgentResponse {
	return AgentResponse{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		BaseURL:      p.BaseURL,
		LinkTemplate: string(p.Kind),
		HasReferral:  p.HasReferral(),
	}
}

// NewAgentResponses converts a list of profiles
func NewAgentResponses(profiles []agent.Profile) []AgentResponse {
	out := make([]AgentResponse, len(profiles))
	for i, p := range profiles {
		out[i] = NewAgentResponse(p)
	}
	return out
}
