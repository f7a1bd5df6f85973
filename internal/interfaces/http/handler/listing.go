package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qclens/backend/internal/application/evidence"
	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/logger"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

// Inspector resolves a pasted input and reports the agent it came from
type Inspector interface {
	Inspect(ctx context.Context, raw string, opts ...listing.ResolveOption) (*link.Inspection, error)
}

// ListingHandler serves identity resolution and QC evidence lookups
type ListingHandler struct {
	BaseHandler
	inspector Inspector
	collector evidence.Collector
}

// NewListingHandler creates a ListingHandler
func NewListingHandler(inspector Inspector, collector evidence.Collector) *ListingHandler {
	return &ListingHandler{inspector: inspector, collector: collector}
}

// Resolve godoc
// @ID           resolveListing
// @Summary      Resolve a pasted link or ID
// @Description  Extracts the item ID and platform from a marketplace link, agent link, share text or bare ID
// @Tags         listing
// @Produce      json
// @Param        input    query string true  "Pasted link, text or ID"
// @Param        platform query string false "Platform hint (taobao, weidian, 1688)"
// @Success      200 {object} APIResponse[ResolveResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /resolve [get]
func (h *ListingHandler) Resolve(c *gin.Context) {
	var q ResolveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	opts, err := resolveOptions(q.Platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	inspection, err := h.inspector.Inspect(c.Request.Context(), q.Input, opts...)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := ResolveResponse{Identity: dto.NewIdentityResponse(inspection.Identity)}
	if inspection.DetectedAgent != nil {
		detected := dto.NewAgentResponse(*inspection.DetectedAgent)
		resp.DetectedAgent = &detected
	}
	h.Success(c, resp)
}

// GetQC godoc
// @ID           getListingQC
// @Summary      Get QC evidence for a listing
// @Description  Collects warehouse QC photos, buyer photos and gallery images through the provider chain.
// @Description  Taobao and Weidian fall back to a demo set (placeholder=true); 1688 may return an empty list.
// @Tags         listing
// @Produce      json
// @Param        input    query string false "Pasted link, text or ID"
// @Param        platform query string false "Platform (taobao, weidian, 1688)"
// @Param        id       query string false "Item ID, used with platform instead of input"
// @Success      200 {object} APIResponse[QCResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /qc [get]
func (h *ListingHandler) GetQC(c *gin.Context) {
	var q QCQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	id, err := h.identity(q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ctx, log := logger.WithListing(c.Request.Context(), logger.GetGinLogger(c), id.Platform().String(), id.ItemID())
	result := h.collector.Collect(ctx, id)
	log.Debug("QC evidence collected",
		zap.Int("items", len(result.Items)),
		zap.Bool("placeholder", result.Placeholder),
		zap.Bool("cached", result.Cached),
	)

	h.Success(c, newQCResponse(result))
}

func (h *ListingHandler) identity(q QCQuery) (listing.Identity, error) {
	if q.Input != "" {
		opts, err := resolveOptions(q.Platform)
		if err != nil {
			return listing.Identity{}, err
		}
		return listing.Resolve(q.Input, opts...)
	}

	platform := listing.PlatformTaobao
	if q.Platform != "" {
		p, err := listing.ParsePlatform(q.Platform)
		if err != nil {
			return listing.Identity{}, err
		}
		platform = p
	}
	return listing.NewIdentity(q.ItemID, platform)
}
