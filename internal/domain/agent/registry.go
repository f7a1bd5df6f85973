package agent

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Registry is the read-only set of agent profiles loaded at startup
type Registry struct {
	profiles []Profile
	byID     map[string]int
	byDomain map[string]int
}

// NewRegistry validates every profile and indexes them by ID and registrable domain
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{
		profiles: make([]Profile, 0, len(profiles)),
		byID:     make(map[string]int, len(profiles)),
		byDomain: make(map[string]int, len(profiles)),
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(p.ID)
		if _, dup := r.byID[key]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %q", ErrInvalidProfile, p.ID)
		}
		r.byID[key] = len(r.profiles)
		if domain := registrableDomain(p.Host()); domain != "" {
			if _, taken := r.byDomain[domain]; !taken {
				r.byDomain[domain] = len(r.profiles)
			}
		}
		r.profiles = append(r.profiles, p)
	}
	return r, nil
}

// Get returns the profile registered under id (case-insensitive)
func (r *Registry) Get(id string) (Profile, error) {
	idx, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}
	return r.profiles[idx], nil
}

// List returns a copy of every profile in registration order
func (r *Registry) List() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Len returns the number of registered agents
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Detect reports which agent a link was copied from, matching on the
// registrable domain so www./m. variants resolve to the same agent.
func (r *Registry) Detect(rawURL string) (Profile, bool) {
	raw := strings.TrimSpace(rawURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Profile{}, false
	}
	domain := registrableDomain(strings.ToLower(u.Hostname()))
	if domain == "" {
		return Profile{}, false
	}
	idx, ok := r.byDomain[domain]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[idx], true
}

func registrableDomain(host string) string {
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
