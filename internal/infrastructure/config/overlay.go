package config

import (
	"sort"
	"strings"
)

// Settings store keys that override file and env configuration
const (
	SettingWarehouseQCInviteCode = "warehouse_qc_invite_code"
	SettingWarehouseQCSecretKey  = "warehouse_qc_secret_key"
	SettingRapidAPIKey           = "rapidapi_key"
	SettingReferralCodePrefix    = "ref_code_"
)

// ApplySettings overlays values read from the settings store.
// Empty values are ignored so a blank row never wipes a configured credential.
// It returns the keys that were applied, sorted.
func (c *Config) ApplySettings(values map[string]string) []string {
	var applied []string
	for key, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		switch {
		case key == SettingWarehouseQCInviteCode:
			c.Providers.WarehouseQC.InviteCode = value
		case key == SettingWarehouseQCSecretKey:
			c.Providers.WarehouseQC.SecretKey = value
		case key == SettingRapidAPIKey:
			c.Providers.RapidAPIKey = value
		case strings.HasPrefix(key, SettingReferralCodePrefix) && len(key) > len(SettingReferralCodePrefix):
			if c.Agents.ReferralCodes == nil {
				c.Agents.ReferralCodes = map[string]string{}
			}
			c.Agents.ReferralCodes[strings.ToLower(strings.TrimPrefix(key, SettingReferralCodePrefix))] = value
		default:
			continue
		}
		applied = append(applied, key)
	}
	sort.Strings(applied)
	return applied
}
