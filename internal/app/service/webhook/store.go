package webhook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore returns the database-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) MerchantByID(ctx context.Context, id string) (*models.Merchant, error) {
	var m models.Merchant
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) CreateLog(ctx context.Context, log *models.WebhookLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *gormStore) UpdateLog(ctx context.Context, log *models.WebhookLog) error {
	return s.db.WithContext(ctx).Save(log).Error
}

func (s *gormStore) LogByID(ctx context.Context, merchantID, id string) (*models.WebhookLog, error) {
	var log models.WebhookLog
	err := s.db.WithContext(ctx).First(&log, "id = ? AND merchant_id = ?", id, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *gormStore) ListLogs(ctx context.Context, merchantID string, limit, offset int) ([]*models.WebhookLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.WebhookLog{}).Where("merchant_id = ?", merchantID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []*models.WebhookLog
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
