package config

import (
	"fmt"
	"strings"

	"github.com/qclens/backend/internal/domain/agent"
)

// Registry builds the agent registry: configured profiles (or the built-in
// list when none are configured) with referral codes applied by agent ID.
func (a AgentsConfig) Registry() (*agent.Registry, error) {
	profiles := agent.DefaultProfiles()
	if len(a.Profiles) > 0 {
		profiles = make([]agent.Profile, 0, len(a.Profiles))
		for _, pc := range a.Profiles {
			p, err := pc.toProfile()
			if err != nil {
				return nil, err
			}
			profiles = append(profiles, p)
		}
	}

	codes := make(map[string]string, len(a.ReferralCodes))
	for id, code := range a.ReferralCodes {
		codes[strings.ToLower(id)] = code
	}
	for i, p := range profiles {
		if code, ok := codes[strings.ToLower(p.ID)]; ok {
			profiles[i] = p.WithReferralCode(code)
		}
	}

	return agent.NewRegistry(profiles...)
}

func (pc AgentProfileConfig) toProfile() (agent.Profile, error) {
	kind, err := agent.ParseLinkTemplateKind(pc.LinkTemplate)
	if err != nil {
		return agent.Profile{}, fmt.Errorf("agent %s: %w", pc.ID, err)
	}
	return agent.Profile{
		ID:            strings.TrimSpace(pc.ID),
		DisplayName:   pc.DisplayName,
		BaseURL:       strings.TrimRight(pc.BaseURL, "/"),
		Kind:          kind,
		Path:          pc.Path,
		PlatformParam: pc.PlatformParam,
		URLParam:      pc.URLParam,
		ReferralParam: pc.ReferralParam,
		ReferralCode:  pc.ReferralCode,
	}, nil
}
