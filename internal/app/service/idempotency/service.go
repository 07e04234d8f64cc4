package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/payflow/gateway/internal/models"
)

// TTL is how long a stored response stays replayable.
const TTL = 24 * time.Hour

// Service caches accepted payment-creation responses per (key, merchant) so
// a retried request replays the original response instead of re-executing.
type Service struct {
	db    *gorm.DB
	clock clock.Clock
	log   *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, clock: clock.New(), log: log}
}

// GetCached returns the stored response for (merchantID, key), or nil on a
// miss. An expired record is deleted as a side effect of the lookup; there
// is no background sweep.
func (s *Service) GetCached(ctx context.Context, merchantID, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, nil
	}
	var rec models.IdempotencyKey
	err := s.db.WithContext(ctx).
		First(&rec, "key = ? AND merchant_id = ?", key, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if rec.Expired(s.clock.Now()) {
		if err := s.db.WithContext(ctx).
			Delete(&models.IdempotencyKey{}, "key = ? AND merchant_id = ?", key, merchantID).Error; err != nil {
			s.log.Warnw("failed to purge expired idempotency key", "key", key, "err", err)
		}
		return nil, nil
	}
	return json.RawMessage(rec.Response), nil
}

// Put stores the response for (merchantID, key). Writes are once per pair;
// a concurrent duplicate loses to the primary key and is ignored.
func (s *Service) Put(ctx context.Context, merchantID, key string, response json.RawMessage) error {
	if key == "" {
		return nil
	}
	now := s.clock.Now().UTC()
	rec := &models.IdempotencyKey{
		Key:        key,
		MerchantID: merchantID,
		Response:   []byte(response),
		CreatedAt:  now,
		ExpiresAt:  now.Add(TTL),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("idempotency store: %w", err)
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
)
