package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/domain/agent"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

// LinkConverter rewrites inputs into agent links
type LinkConverter interface {
	Convert(ctx context.Context, raw, agentID string, opts ...listing.ResolveOption) (*link.Conversion, error)
	ConvertAll(ctx context.Context, raw string, opts ...listing.ResolveOption) (*link.Conversion, error)
	Agents() []agent.Profile
}

// LinkHandler serves agent link conversion and the agent registry
type LinkHandler struct {
	BaseHandler
	converter LinkConverter
}

// NewLinkHandler creates a LinkHandler
func NewLinkHandler(converter LinkConverter) *LinkHandler {
	return &LinkHandler{converter: converter}
}

// Convert godoc
// @ID           convertLink
// @Summary      Convert a link for one agent
// @Description  Resolves the input and rewrites it into the agent's deep link, with the referral code when one is configured
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        request body ConvertRequest true "Input and agent"
// @Success      200 {object} APIResponse[ConversionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /links/convert [post]
func (h *LinkHandler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	opts, err := resolveOptions(req.Platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	conv, err := h.converter.Convert(c.Request.Context(), req.Input, req.AgentID, opts...)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newConversionResponse(conv))
}

// ConvertAll godoc
// @ID           convertLinkAll
// @Summary      Convert a link for every agent
// @Description  Resolves the input once and rewrites it for each registered agent in registry order
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        request body ConvertAllRequest true "Input"
// @Success      200 {object} APIResponse[ConversionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /links/convert-all [post]
func (h *LinkHandler) ConvertAll(c *gin.Context) {
	var req ConvertAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	opts, err := resolveOptions(req.Platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	conv, err := h.converter.ConvertAll(c.Request.Context(), req.Input, opts...)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newConversionResponse(conv))
}

// ListAgents godoc
// @ID           listAgents
// @Summary      List purchasing agents
// @Tags         links
// @Produce      json
// @Success      200 {object} APIResponse[[]dto.AgentResponse]
// @Router       /agents [get]
func (h *LinkHandler) ListAgents(c *gin.Context) {
	h.Success(c, dto.NewAgentResponses(h.converter.Agents()))
}
