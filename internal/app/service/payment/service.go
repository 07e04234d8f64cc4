package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/app/service/idempotency"
	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/config"
	"github.com/payflow/gateway/pkg/logctx"
	"github.com/payflow/gateway/pkg/tool"
	"github.com/payflow/gateway/pkg/validation"
)

type Service struct {
	db    *gorm.DB
	queue queue.Queue
	idem  *idempotency.Service
	cfg   *config.Config
	clock clock.Clock
	roll  func() float64
	log   *zap.SugaredLogger
}

func New(db *gorm.DB, q queue.Queue, idem *idempotency.Service, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{
		db:    db,
		queue: q,
		idem:  idem,
		cfg:   cfg,
		clock: clock.New(),
		roll:  rand.Float64,
		log:   log,
	}
}

// validateMethod checks method-specific instrument details and derives the
// stored card fields. The PAN itself is never persisted.
func validateMethod(req *CreateRequest, now time.Time) (network, last4 string, err error) {
	switch models.PaymentMethod(req.Method) {
	case models.PaymentMethodUPI:
		if !validation.ValidVPA(req.VPA) {
			return "", "", ErrInvalidVPA
		}
		return "", "", nil
	case models.PaymentMethodCard:
		c := req.Card
		if c == nil || c.CVV == "" || !validation.ValidLuhn(c.Number) ||
			!validation.ValidExpiry(c.ExpiryMonth, c.ExpiryYear, now) {
			return "", "", ErrInvalidCard
		}
		n := c.Number
		return validation.DetectCardNetwork(n), n[len(n)-4:], nil
	default:
		return "", "", ErrUnsupportedMethod
	}
}

// Create accepts an authenticated payment-creation request. When idemKey was
// seen before (and has not expired) the stored response is replayed
// byte-for-byte and no job is enqueued.
func (s *Service) Create(ctx context.Context, merchant *models.Merchant, req *CreateRequest, idemKey string) (json.RawMessage, error) {
	if cached, err := s.idem.GetCached(ctx, merchant.ID, idemKey); err != nil {
		return nil, err
	} else if cached != nil {
		return cached, nil
	}

	var order models.Order
	err := s.db.WithContext(ctx).
		First(&order, "id = ? AND merchant_id = ?", req.OrderID, merchant.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	now := s.clock.Now().UTC()
	network, last4, err := validateMethod(req, now)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:          tool.GenerateToken("pay_"),
		OrderID:     order.ID,
		MerchantID:  merchant.ID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Method:      models.PaymentMethod(req.Method),
		VPA:         req.VPA,
		CardNetwork: network,
		CardLast4:   last4,
		Status:      models.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	resp, err := json.Marshal(&CreateResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    string(p.Status),
		Method:    string(p.Method),
		CreatedAt: tool.RFC3339Micro(now),
	})
	if err != nil {
		return nil, err
	}
	if err := s.idem.Put(ctx, merchant.ID, idemKey, resp); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, JobTypeProcess, &ProcessJob{PaymentID: p.ID}, 0); err != nil {
		return nil, fmt.Errorf("enqueue settlement: %w", err)
	}
	if err := s.enqueueWebhook(ctx, p, webhook.EventPaymentCreated); err != nil {
		return nil, err
	}

	return resp, nil
}

// CreatePublic is the unauthenticated checkout-page variant: no idempotency
// key, no created webhook, merchant resolved through the order.
func (s *Service) CreatePublic(ctx context.Context, req *CreateRequest) (*models.Payment, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, "id = ?", req.OrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	now := s.clock.Now().UTC()
	network, last4, err := validateMethod(req, now)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:          tool.GenerateToken("pay_"),
		OrderID:     order.ID,
		MerchantID:  order.MerchantID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Method:      models.PaymentMethod(req.Method),
		VPA:         req.VPA,
		CardNetwork: network,
		CardLast4:   last4,
		Status:      models.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if err := s.queue.Enqueue(ctx, JobTypeProcess, &ProcessJob{PaymentID: p.ID}, 0); err != nil {
		return nil, fmt.Errorf("enqueue settlement: %w", err)
	}
	return p, nil
}

// Process executes the settlement decision for paymentID. A missing payment
// is a benign no-op (it may be deleted test data); persistence errors
// propagate so the queue redelivers.
func (s *Service) Process(ctx context.Context, paymentID string) error {
	lg := logctx.FromCtx(ctx, s.log).With("payment_id", paymentID)

	var p models.Payment
	err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lg.Debugw("payment vanished before settlement")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if p.Status != models.PaymentStatusPending {
		// redelivered job; the earlier execution settled it but may have
		// died before its webhook made it onto the queue, so emit again
		if event, ok := settlementEvent(p.Status); ok {
			return s.enqueueWebhook(ctx, &p, event)
		}
		return nil
	}

	// external bank latency is modeled while holding nothing
	s.clock.Sleep(settlementDelay(s.cfg.Settlement, s.roll()))

	outcome := decideSettlement(s.cfg.Settlement, p.Method, s.roll())
	event := webhook.EventPaymentSuccess
	if outcome.Success {
		p.Status = models.PaymentStatusSuccess
	} else {
		p.Status = models.PaymentStatusFailed
		p.ErrorCode = outcome.ErrorCode
		p.ErrorDescription = outcome.ErrorDescription
		event = webhook.EventPaymentFailed
	}
	p.UpdatedAt = s.clock.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return fmt.Errorf("persist settlement: %w", err)
	}
	lg.Infow("payment settled", "status", p.Status)

	return s.enqueueWebhook(ctx, &p, event)
}

// settlementEvent maps a settled status to the webhook event announcing it.
// Refunded payments are covered by the refund pipeline's own events.
func settlementEvent(status models.PaymentStatus) (string, bool) {
	switch status {
	case models.PaymentStatusSuccess:
		return webhook.EventPaymentSuccess, true
	case models.PaymentStatusFailed:
		return webhook.EventPaymentFailed, true
	default:
		return "", false
	}
}

// enqueueWebhook failures propagate to the caller; the settlement job stays
// unacked and the event is re-emitted on redelivery rather than lost.
func (s *Service) enqueueWebhook(ctx context.Context, p *models.Payment, event string) error {
	payload, err := webhook.PaymentEventPayload(event, p, s.clock.Now())
	if err != nil {
		return fmt.Errorf("build webhook payload: %w", err)
	}
	job := &webhook.DeliveryJob{
		MerchantID: p.MerchantID,
		Event:      event,
		Payload:    payload,
		Attempt:    1,
	}
	if err := s.queue.Enqueue(ctx, webhook.JobTypeDeliver, job, 0); err != nil {
		return fmt.Errorf("enqueue webhook %s: %w", event, err)
	}
	return nil
}

// Capture marks a settled payment as collected. Only success-state payments
// are capturable.
func (s *Service) Capture(ctx context.Context, merchantID, paymentID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		First(&p, "id = ? AND merchant_id = ?", paymentID, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if p.Status != models.PaymentStatusSuccess {
		return nil, ErrNotCapturable
	}
	p.Captured = true
	p.UpdatedAt = s.clock.Now().UTC()
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, fmt.Errorf("capture payment: %w", err)
	}
	return &p, nil
}

func (s *Service) Get(ctx context.Context, merchantID, paymentID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		First(&p, "id = ? AND merchant_id = ?", paymentID, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) List(ctx context.Context, merchantID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
