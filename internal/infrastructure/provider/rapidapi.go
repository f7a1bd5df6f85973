package provider

// RapidAPI hosts used by the marketplace adapters
const (
	TaobaoAdvancedHost = "taobao-advanced.p.rapidapi.com"
	Datahub1688Host    = "1688-datahub.p.rapidapi.com"
)

// RapidAPIConfig configures a provider authenticated with a RapidAPI key header
type RapidAPIConfig struct {
	Client ClientConfig
	APIKey string
	// Host is sent as x-rapidapi-host even when BaseURL points at a mirror
	Host     string
	Priority int
}

func (c RapidAPIConfig) withDefaults(host string) RapidAPIConfig {
	if c.Host == "" {
		c.Host = host
	}
	c.Client = c.Client.withDefaults("https://" + c.Host)
	return c
}

func (c RapidAPIConfig) headers() map[string]string {
	return map[string]string{
		"x-rapidapi-key":  c.APIKey,
		"x-rapidapi-host": c.Host,
	}
}
