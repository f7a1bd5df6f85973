// Package link converts pasted marketplace or agent links into referral deep
// links for the registered purchasing agents.
package link

import (
	"context"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/agent"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
)

// AgentLink is one rewritten link
type AgentLink struct {
	AgentID     string `json:"agent_id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	HasReferral bool   `json:"has_referral"`
}

// Conversion is the result of converting one input
type Conversion struct {
	Identity  listing.Identity
	SourceURL string
	Links     []AgentLink
}

// Inspection describes a pasted link without rewriting it
type Inspection struct {
	Identity  listing.Identity
	SourceURL string
	// DetectedAgent is set when the input was copied from a registered agent
	DetectedAgent *agent.Profile
}

// Service resolves input and rewrites it for agents
type Service struct {
	registry *agent.Registry
	logger   *zap.Logger
}

// NewService creates a link service over a registry
func NewService(registry *agent.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, logger: logger}
}

// Convert rewrites raw for a single agent.
// It fails with listing.ErrIdentityUnresolved or agent.ErrAgentNotFound.
func (s *Service) Convert(ctx context.Context, raw, agentID string, opts ...listing.ResolveOption) (*Conversion, error) {
	_, span := telemetry.StartServiceSpan(ctx, "link", "convert",
		telemetry.WithAttribute(telemetry.SpanAttrAgent, agentID),
	)
	defer span.End()

	profile, err := s.registry.Get(agentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	id, err := listing.Resolve(raw, opts...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &Conversion{
		Identity:  id,
		SourceURL: listing.SourceURL(id),
		Links:     []AgentLink{rewrite(id, profile)},
	}, nil
}

// ConvertAll rewrites raw for every registered agent in registry order
func (s *Service) ConvertAll(ctx context.Context, raw string, opts ...listing.ResolveOption) (*Conversion, error) {
	_, span := telemetry.StartServiceSpan(ctx, "link", "convert_all")
	defer span.End()

	id, err := listing.Resolve(raw, opts...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	profiles := s.registry.List()
	links := make([]AgentLink, 0, len(profiles))
	for _, p := range profiles {
		links = append(links, rewrite(id, p))
	}
	s.logger.Debug("Converted link for all agents",
		zap.String("identity", id.Key()),
		zap.Int("agents", len(links)),
	)
	return &Conversion{Identity: id, SourceURL: listing.SourceURL(id), Links: links}, nil
}

// Inspect resolves raw and reports which agent, if any, it was copied from
func (s *Service) Inspect(ctx context.Context, raw string, opts ...listing.ResolveOption) (*Inspection, error) {
	id, err := listing.Resolve(raw, opts...)
	if err != nil {
		return nil, err
	}
	out := &Inspection{Identity: id, SourceURL: listing.SourceURL(id)}
	if p, ok := s.registry.Detect(raw); ok {
		out.DetectedAgent = &p
	}
	return out, nil
}

// Agents lists the registered agents
func (s *Service) Agents() []agent.Profile {
	return s.registry.List()
}

func rewrite(id listing.Identity, p agent.Profile) AgentLink {
	return AgentLink{
		AgentID:     p.ID,
		DisplayName: p.DisplayName,
		URL:         agent.Rewrite(id, p),
		HasReferral: p.HasReferral(),
	}
}
