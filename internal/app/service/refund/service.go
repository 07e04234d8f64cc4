package refund

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/config"
	"github.com/payflow/gateway/pkg/logctx"
	"github.com/payflow/gateway/pkg/tool"
)

// JobTypeProcess is the queue job type for refund processing.
const JobTypeProcess = "refund.process"

// ProcessJob is the payload of a refund.process job.
type ProcessJob struct {
	RefundID string `json:"refund_id"`
}

var (
	ErrRefundNotFound       = errors.New("refund not found")
	ErrPaymentNotRefundable = errors.New("payment not refundable")
	ErrExceedsRefundable    = errors.New("refund amount exceeds available amount")
	ErrInvalidAmount        = errors.New("refund amount must be positive")
)

type CreateRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

type Service struct {
	db    *gorm.DB
	queue queue.Queue
	cfg   *config.Config
	clock clock.Clock
	roll  func() float64
	log   *zap.SugaredLogger
}

func New(db *gorm.DB, q queue.Queue, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{db: db, queue: q, cfg: cfg, clock: clock.New(), roll: rand.Float64, log: log}
}

// reservedTotal is the amount already spoken for against a payment: every
// refund that has not outright failed, so an in-flight pending refund
// reserves its amount at creation time.
func reservedTotal(refunds []*models.Refund) int64 {
	var total int64
	for _, r := range refunds {
		if r.Status != models.RefundStatusFailed {
			total += r.Amount
		}
	}
	return total
}

// processedTotal sums only refunds that actually completed.
func processedTotal(refunds []*models.Refund) int64 {
	var total int64
	for _, r := range refunds {
		if r.Status == models.RefundStatusProcessed {
			total += r.Amount
		}
	}
	return total
}

// Create validates a refund against the payment's remaining refundable
// balance and enqueues processing. Rejections here never enter the async
// pipeline.
func (s *Service) Create(ctx context.Context, merchantID, paymentID string, req *CreateRequest) (*models.Refund, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).
		First(&payment, "id = ? AND merchant_id = ?", paymentID, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotRefundable
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if !payment.Refundable() {
		return nil, ErrPaymentNotRefundable
	}

	var existing []*models.Refund
	if err := s.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load refunds: %w", err)
	}
	if req.Amount > payment.Amount-reservedTotal(existing) {
		return nil, ErrExceedsRefundable
	}

	r := &models.Refund{
		ID:         tool.GenerateToken("rfnd_"),
		PaymentID:  paymentID,
		MerchantID: merchantID,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Status:     models.RefundStatusPending,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}
	if err := s.queue.Enqueue(ctx, JobTypeProcess, &ProcessJob{RefundID: r.ID}, 0); err != nil {
		return nil, fmt.Errorf("enqueue refund processing: %w", err)
	}
	return r, nil
}

// Process executes a refund. An unsettled payment fails the refund
// immediately with no retry and no webhook. Finalization recomputes the
// processed total from the rows while holding a lock on the payment row, so
// two concurrent refunds for one payment serialize instead of both reading a
// stale total.
func (s *Service) Process(ctx context.Context, refundID string) error {
	lg := logctx.FromCtx(ctx, s.log).With("refund_id", refundID)

	var refund models.Refund
	err := s.db.WithContext(ctx).First(&refund, "id = ?", refundID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lg.Debugw("refund vanished before processing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load refund: %w", err)
	}
	if refund.Status != models.RefundStatusPending {
		// redelivered job; the earlier execution finalized it but may
		// have died before its webhook made it onto the queue
		if refund.Status == models.RefundStatusProcessed {
			return s.enqueueWebhook(ctx, &refund)
		}
		return nil
	}

	var payment models.Payment
	err = s.db.WithContext(ctx).First(&payment, "id = ?", refund.PaymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && payment.Status != models.PaymentStatusSuccess) {
		refund.Status = models.RefundStatusFailed
		if err := s.db.WithContext(ctx).Save(&refund).Error; err != nil {
			return fmt.Errorf("mark refund failed: %w", err)
		}
		lg.Infow("refund failed, payment not settled", "payment_id", refund.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}

	s.clock.Sleep(processingDelay(s.cfg.Settlement, s.roll()))

	now := s.clock.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", refund.PaymentID).Error; err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}

		refund.Status = models.RefundStatusProcessed
		refund.ProcessedAt = &now
		if err := tx.Save(&refund).Error; err != nil {
			return fmt.Errorf("persist refund: %w", err)
		}

		var all []*models.Refund
		if err := tx.Where("payment_id = ?", locked.ID).Find(&all).Error; err != nil {
			return fmt.Errorf("load refunds: %w", err)
		}
		if processedTotal(all) >= locked.Amount && locked.Status == models.PaymentStatusSuccess {
			locked.Status = models.PaymentStatusRefunded
			locked.UpdatedAt = now
			if err := tx.Save(&locked).Error; err != nil {
				return fmt.Errorf("persist payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	lg.Infow("refund processed", "payment_id", refund.PaymentID, "amount", refund.Amount)

	return s.enqueueWebhook(ctx, &refund)
}

// enqueueWebhook failures propagate so the refund job stays unacked and the
// event is re-emitted on redelivery rather than lost.
func (s *Service) enqueueWebhook(ctx context.Context, r *models.Refund) error {
	payload, err := webhook.RefundEventPayload(webhook.EventRefundProcessed, r, s.clock.Now())
	if err != nil {
		return fmt.Errorf("build webhook payload: %w", err)
	}
	job := &webhook.DeliveryJob{
		MerchantID: r.MerchantID,
		Event:      webhook.EventRefundProcessed,
		Payload:    payload,
		Attempt:    1,
	}
	if err := s.queue.Enqueue(ctx, webhook.JobTypeDeliver, job, 0); err != nil {
		return fmt.Errorf("enqueue webhook %s: %w", webhook.EventRefundProcessed, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, merchantID, refundID string) (*models.Refund, error) {
	var r models.Refund
	err := s.db.WithContext(ctx).
		First(&r, "id = ? AND merchant_id = ?", refundID, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) List(ctx context.Context, merchantID string, limit, offset int) ([]*models.Refund, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	q := s.db.WithContext(ctx).Model(&models.Refund{}).Where("merchant_id = ?", merchantID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var refunds []*models.Refund
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&refunds).Error; err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
