package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySettings(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Providers.RapidAPIKey = "from-env"
	cfg.Providers.WarehouseQC.SecretKey = "file-secret"

	applied := cfg.ApplySettings(map[string]string{
		SettingWarehouseQCInviteCode: " INV42 ",
		SettingWarehouseQCSecretKey:  "",
		SettingRapidAPIKey:           "from-db",
		"ref_code_CNFans":            "R1",
		"ref_code_":                  "ignored",
		"theme":                      "dark",
	})

	assert.Equal(t, []string{"rapidapi_key", "ref_code_CNFans", "warehouse_qc_invite_code"}, applied)
	assert.Equal(t, "INV42", cfg.Providers.WarehouseQC.InviteCode)
	assert.Equal(t, "file-secret", cfg.Providers.WarehouseQC.SecretKey)
	assert.Equal(t, "from-db", cfg.Providers.RapidAPIKey)
	assert.Equal(t, map[string]string{"cnfans": "R1"}, cfg.Agents.ReferralCodes)
}

func TestApplySettings_NilReferralMap(t *testing.T) {
	cfg := &Config{}

	applied := cfg.ApplySettings(map[string]string{"ref_code_kakobuy": "K"})

	assert.Equal(t, []string{"ref_code_kakobuy"}, applied)
	assert.Equal(t, "K", cfg.Agents.ReferralCodes["kakobuy"])
}
