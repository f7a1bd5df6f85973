package handler

import (
	"github.com/qclens/backend/internal/application/evidence"
	domainevidence "github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

// ResolveQuery is the query string of GET /resolve
type ResolveQuery struct {
	Input    string `form:"input" binding:"required,max=2048"`
	Platform string `form:"platform" binding:"platform"`
}

// ResolveResponse describes a resolved input
// @name HandlerResolveResponse
type ResolveResponse struct {
	Identity      dto.IdentityResponse `json:"identity"`
	DetectedAgent *dto.AgentResponse   `json:"detected_agent,omitempty"`
}

// QCQuery is the query string of GET /qc: either input, or platform and id
type QCQuery struct {
	Input    string `form:"input" binding:"required_without=ItemID,max=2048"`
	Platform string `form:"platform" binding:"platform"`
	ItemID   string `form:"id" binding:"required_without=Input,max=64"`
}

// QCResponse is the evidence gathered for one listing
// @name HandlerQCResponse
type QCResponse struct {
	Identity    dto.IdentityResponse  `json:"identity"`
	Items       []domainevidence.Item `json:"items"`
	Placeholder bool                  `json:"placeholder"`
	Cached      bool                  `json:"cached"`
	Attempts    []evidence.Attempt    `json:"attempts,omitempty"`
}

func newQCResponse(r evidence.Result) QCResponse {
	items := r.Items
	if items == nil {
		items = []domainevidence.Item{}
	}
	return QCResponse{
		Identity:    dto.NewIdentityResponse(r.Identity),
		Items:       items,
		Placeholder: r.Placeholder,
		Cached:      r.Cached,
		Attempts:    r.Attempts,
	}
}
