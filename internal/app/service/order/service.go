package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/tool"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrAmountTooSmall = errors.New("amount must be at least 100 minor units")
)

// MinAmount is the smallest acceptable order amount, in minor currency
// units.
const MinAmount = 100

type CreateRequest struct {
	Amount   int64          `json:"amount" binding:"required"`
	Currency string         `json:"currency"`
	Receipt  string         `json:"receipt,omitempty"`
	Notes    map[string]any `json:"notes,omitempty"`
}

type Service struct {
	db    *gorm.DB
	clock clock.Clock
}

func New(db *gorm.DB) *Service {
	return &Service{db: db, clock: clock.New()}
}

func (s *Service) Create(ctx context.Context, merchantID string, req *CreateRequest) (*models.Order, error) {
	if req.Amount < MinAmount {
		return nil, ErrAmountTooSmall
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	var notes datatypes.JSON
	if req.Notes != nil {
		raw, err := notesJSON(req.Notes)
		if err != nil {
			return nil, err
		}
		notes = raw
	}
	o := &models.Order{
		ID:         tool.GenerateToken("order_"),
		MerchantID: merchantID,
		Amount:     req.Amount,
		Currency:   currency,
		Status:     models.OrderStatusCreated,
		Receipt:    req.Receipt,
		Notes:      notes,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, merchantID, orderID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		First(&o, "id = ? AND merchant_id = ?", orderID, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetPublic looks an order up without merchant scoping; the checkout page
// only receives the basic fields, filtered at the handler.
func (s *Service) GetPublic(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).First(&o, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Service) List(ctx context.Context, merchantID string) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
