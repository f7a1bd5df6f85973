package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
)

// WarehouseQCName is the provider name of the signed warehouse QC source
const WarehouseQCName = "WarehouseQC"

// DefaultWarehouseQCBaseURL is the production endpoint
const DefaultWarehouseQCBaseURL = "https://api.pointshaul.com"

const warehouseQCPath = "/api/getQcList"

// WarehouseQCConfig configures the signed warehouse QC provider
type WarehouseQCConfig struct {
	Client     ClientConfig
	InviteCode string
	SecretKey  string
	Priority   int
}

// WarehouseQCProvider fetches warehouse QC photos for Taobao and Weidian items.
// Requests are signed with MD5(query + secret).
type WarehouseQCProvider struct {
	config WarehouseQCConfig
	client *client
	now    func() time.Time
}

// NewWarehouseQCProvider creates the provider; an empty invite code makes
// every Fetch return evidence.ErrProviderNotConfigured
func NewWarehouseQCProvider(cfg WarehouseQCConfig, logger *zap.Logger) *WarehouseQCProvider {
	cfg.Client = cfg.Client.withDefaults(DefaultWarehouseQCBaseURL)
	if cfg.Priority == 0 {
		cfg.Priority = 10
	}
	return &WarehouseQCProvider{
		config: cfg,
		client: newClient(WarehouseQCName, cfg.Client, logger),
		now:    time.Now,
	}
}

// Descriptor implements evidence.Provider
func (p *WarehouseQCProvider) Descriptor() evidence.Descriptor {
	return evidence.Descriptor{
		Name:                     WarehouseQCName,
		Priority:                 p.config.Priority,
		Platforms:                []listing.Platform{listing.PlatformTaobao, listing.PlatformWeidian},
		AuthScheme:               evidence.AuthSignedQuery,
		TerminatesChainOnSuccess: true,
	}
}

// Sign returns the lowercase hex MD5 of
// "invite_code=<code>&item_id=<id>&timestamp=<unix><secret>".
// MD5 is what the upstream verifies; it is not used for security here.
func Sign(inviteCode, itemID string, timestamp int64, secret string) (string, error) {
	if inviteCode == "" || secret == "" {
		return "", fmt.Errorf("%w: invite code and secret key are required", evidence.ErrSignatureComputation)
	}
	payload := "invite_code=" + inviteCode +
		"&item_id=" + itemID +
		"&timestamp=" + strconv.FormatInt(timestamp, 10) +
		secret
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}

type warehouseQCResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		List []struct {
			URL        string          `json:"url"`
			AgentName  string          `json:"agent_name"`
			CreateTime json.RawMessage `json:"create_time"`
		} `json:"list"`
	} `json:"data"`
}

// Fetch implements evidence.Provider
func (p *WarehouseQCProvider) Fetch(ctx context.Context, id listing.Identity) ([]evidence.Item, error) {
	if p.config.InviteCode == "" {
		return nil, fmt.Errorf("%w: %s: invite code not set", evidence.ErrProviderNotConfigured, WarehouseQCName)
	}

	ts := p.now().Unix()
	sign, err := Sign(p.config.InviteCode, id.ItemID(), ts, p.config.SecretKey)
	if err != nil {
		return nil, err
	}

	body, err := p.client.get(ctx, warehouseQCPath, map[string]string{
		"invite_code": p.config.InviteCode,
		"timestamp":   strconv.FormatInt(ts, 10),
		"item_id":     id.ItemID(),
		"sign":        sign,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", evidence.ErrProviderUnavailable, err)
	}

	var resp warehouseQCResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", evidence.ErrInvalidResponse, WarehouseQCName, err)
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("%w: %s: code %d %s", evidence.ErrProviderUnavailable, WarehouseQCName, resp.Code, resp.Msg)
	}

	items := make([]evidence.Item, 0, len(resp.Data.List))
	for _, entry := range resp.Data.List {
		label := strings.TrimSpace(entry.AgentName)
		if label == "" {
			label = evidence.LabelWarehouseQC
		}
		if item, ok := evidence.NewItem(entry.URL, label, rawScalar(entry.CreateTime), WarehouseQCName); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// rawScalar renders a JSON string or number as text; null and absent give ""
func rawScalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

var _ evidence.Provider = (*WarehouseQCProvider)(nil)
