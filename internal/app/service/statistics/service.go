package statistics

import (
	"context"
	"math"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/models"
)

// MerchantStats feeds the dashboard summary cards.
type MerchantStats struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalAmount       int64   `json:"total_amount"`
	SuccessRate       float64 `json:"success_rate"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// ForMerchant computes live aggregates over the merchant's payments.
// refunded payments settled successfully before the refund, so they count
// toward the success rate but not the settled amount.
func (s *Service) ForMerchant(ctx context.Context, merchantID string) (*MerchantStats, error) {
	var payments []*models.Payment
	if err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return Compute(payments), nil
}

// Compute derives the dashboard aggregates from a payment set.
func Compute(payments []*models.Payment) *MerchantStats {
	successful := lo.Filter(payments, func(p *models.Payment, _ int) bool {
		return p.Status == models.PaymentStatusSuccess || p.Status == models.PaymentStatusRefunded
	})
	settled := lo.Filter(payments, func(p *models.Payment, _ int) bool {
		return p.Status == models.PaymentStatusSuccess
	})
	stats := &MerchantStats{
		TotalTransactions: len(payments),
		TotalAmount: lo.SumBy(settled, func(p *models.Payment) int64 {
			return p.Amount
		}),
	}
	if len(payments) > 0 {
		rate := float64(len(successful)) / float64(len(payments)) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	return stats
}

var Module = fx.Options(
	fx.Provide(New),
)
