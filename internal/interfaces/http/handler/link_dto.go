package handler

import (
	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

// ConvertRequest asks for a single agent link
type ConvertRequest struct {
	Input    string `json:"input" binding:"required,max=2048"`
	AgentID  string `json:"agent_id" binding:"required,max=64"`
	Platform string `json:"platform" binding:"platform"`
}

// ConvertAllRequest asks for links for every registered agent
type ConvertAllRequest struct {
	Input    string `json:"input" binding:"required,max=2048"`
	Platform string `json:"platform" binding:"platform"`
}

// ConversionResponse is a resolved listing with its agent links
// @name HandlerConversionResponse
type ConversionResponse struct {
	Identity dto.IdentityResponse `json:"identity"`
	Links    []link.AgentLink     `json:"links"`
}

func newConversionResponse(conv *link.Conversion) ConversionResponse {
	links := conv.Links
	if links == nil {
		links = []link.AgentLink{}
	}
	return ConversionResponse{
		Identity: dto.NewIdentityResponse(conv.Identity),
		Links:    links,
	}
}
