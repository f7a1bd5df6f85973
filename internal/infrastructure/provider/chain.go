package provider

import (
	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/evidence"
)

// EvidenceConfig groups the evidence provider configurations
type EvidenceConfig struct {
	WarehouseQC   WarehouseQCConfig
	TaobaoReviews RapidAPIConfig
	Market1688    Market1688Config
}

// NewEvidenceChain builds the production provider table:
// Taobao/Weidian try warehouse QC then buyer reviews then demo data,
// 1688 uses only the multi-source provider.
func NewEvidenceChain(cfg EvidenceConfig, logger *zap.Logger) (*evidence.Chain, error) {
	return evidence.NewChain(
		NewWarehouseQCProvider(cfg.WarehouseQC, logger),
		NewTaobaoReviewsProvider(cfg.TaobaoReviews, logger),
		NewMarket1688Provider(cfg.Market1688, logger),
		evidence.PlaceholderProvider{},
	)
}
