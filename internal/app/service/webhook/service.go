package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/config"
	"github.com/payflow/gateway/pkg/logctx"
	"github.com/payflow/gateway/pkg/tool"
)

// JobTypeDeliver is the queue job type for webhook delivery attempts.
const JobTypeDeliver = "webhook.deliver"

// DeliveryJob is the payload of a webhook.deliver job. Payload holds the
// exact event bytes; LogID ties retry attempts to the single log row of the
// delivery sequence (empty on the first attempt).
type DeliveryJob struct {
	MerchantID string          `json:"merchant_id"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	LogID      string          `json:"log_id,omitempty"`
}

var (
	ErrLogNotFound      = errors.New("webhook log not found")
	ErrMerchantNotFound = errors.New("merchant not found")
)

// Store is the persistence surface the engine needs. The gorm implementation
// lives in this package; tests substitute an in-memory one so the full retry
// flow runs against httptest without a database.
type Store interface {
	MerchantByID(ctx context.Context, id string) (*models.Merchant, error)
	CreateLog(ctx context.Context, log *models.WebhookLog) error
	UpdateLog(ctx context.Context, log *models.WebhookLog) error
	LogByID(ctx context.Context, merchantID, id string) (*models.WebhookLog, error)
	ListLogs(ctx context.Context, merchantID string, limit, offset int) ([]*models.WebhookLog, int64, error)
}

const responseBodyLimit = 500

type Service struct {
	store          Store
	httpClient     *http.Client
	clock          clock.Clock
	log            *zap.SugaredLogger
	backoff        []time.Duration
	maxAttempts    int
	fallbackSecret string
}

type Options struct {
	Store          Store
	HTTPClient     *http.Client
	Clock          clock.Clock
	Logger         *zap.SugaredLogger
	Backoff        []time.Duration
	MaxAttempts    int
	FallbackSecret string
}

func New(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &Service{
		store:          opts.Store,
		httpClient:     opts.HTTPClient,
		clock:          opts.Clock,
		log:            opts.Logger,
		backoff:        opts.Backoff,
		maxAttempts:    opts.MaxAttempts,
		fallbackSecret: opts.FallbackSecret,
	}
}

func NewFromConfig(cfg *config.Config, store Store, log *zap.SugaredLogger) *Service {
	return New(Options{
		Store:          store,
		HTTPClient:     &http.Client{Timeout: cfg.WebhookTimeout()},
		Logger:         log,
		Backoff:        cfg.WebhookBackoff(),
		MaxAttempts:    cfg.Webhook.MaxAttempts,
		FallbackSecret: cfg.Webhook.FallbackSecret,
	})
}

// NextBackoff returns the wait before the attempt following attempt, and
// whether another attempt is allowed at all.
func (s *Service) NextBackoff(attempt int) (time.Duration, bool) {
	if attempt >= s.maxAttempts {
		return 0, false
	}
	if attempt < 0 || attempt >= len(s.backoff) {
		return 0, false
	}
	return s.backoff[attempt], true
}

// Deliver executes one delivery attempt. A nil return means the sequence is
// finished (delivered, exhausted, or abandoned); a *queue.RetryDirective
// asks the worker to re-enqueue the next attempt; any other error is a
// persistence failure left to the queue's redelivery.
func (s *Service) Deliver(ctx context.Context, job *DeliveryJob) error {
	lg := logctx.FromCtx(ctx, s.log).With("merchant_id", job.MerchantID, "event", job.Event, "attempt", job.Attempt)

	merchant, err := s.store.MerchantByID(ctx, job.MerchantID)
	if errors.Is(err, ErrMerchantNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load merchant: %w", err)
	}
	if merchant.WebhookURL == "" {
		// merchant opted out of webhooks
		return nil
	}

	secret := merchant.WebhookSecret
	if secret == "" {
		secret = s.fallbackSecret
	}
	signature := Sign(job.Payload, secret)

	now := s.clock.Now().UTC()
	log, err := s.upsertLog(ctx, job, now)
	if err != nil {
		return err
	}
	if log.Terminal() {
		// duplicate delivery after a lost ack; the sequence already ended
		lg.Debugw("skipping settled delivery sequence", "log_id", log.ID, "status", log.Status)
		return nil
	}

	code, body, postErr := s.post(ctx, merchant.WebhookURL, job.Payload, signature)
	log.LastAttemptAt = &now
	if code != 0 {
		c := code
		log.ResponseCode = &c
		log.ResponseBody = body
	}

	if postErr == nil && code >= 200 && code < 300 {
		log.Status = models.WebhookStatusSuccess
		log.NextRetryAt = nil
		if err := s.store.UpdateLog(ctx, log); err != nil {
			return fmt.Errorf("record delivery success: %w", err)
		}
		lg.Infow("webhook delivered", "code", code)
		return nil
	}

	// network errors, timeouts and non-2xx are one failure class
	delay, ok := s.NextBackoff(job.Attempt)
	if !ok {
		log.Status = models.WebhookStatusFailed
		log.NextRetryAt = nil
		if err := s.store.UpdateLog(ctx, log); err != nil {
			return fmt.Errorf("record delivery failure: %w", err)
		}
		lg.Warnw("webhook delivery exhausted", "code", code, "err", postErr)
		return nil
	}

	retryAt := now.Add(delay)
	log.Status = models.WebhookStatusPending
	log.NextRetryAt = &retryAt
	if err := s.store.UpdateLog(ctx, log); err != nil {
		return fmt.Errorf("record delivery retry: %w", err)
	}
	lg.Infow("webhook delivery failed, retry scheduled", "code", code, "err", postErr, "delay", delay)

	return queue.Retry(delay, &DeliveryJob{
		MerchantID: job.MerchantID,
		Event:      job.Event,
		Payload:    job.Payload,
		Attempt:    job.Attempt + 1,
		LogID:      log.ID,
	})
}

// upsertLog creates the sequence's row on the first attempt and updates it
// on retries.
func (s *Service) upsertLog(ctx context.Context, job *DeliveryJob, now time.Time) (*models.WebhookLog, error) {
	if job.LogID != "" {
		log, err := s.store.LogByID(ctx, job.MerchantID, job.LogID)
		if err == nil {
			if !log.Terminal() {
				log.Attempts = job.Attempt
			}
			return log, nil
		}
		if !errors.Is(err, ErrLogNotFound) {
			return nil, fmt.Errorf("load webhook log: %w", err)
		}
		// row deleted under us; fall through and recreate
	}
	log := &models.WebhookLog{
		ID:         tool.GenerateUUIDV7(),
		MerchantID: job.MerchantID,
		Event:      job.Event,
		Payload:    []byte(job.Payload),
		Status:     models.WebhookStatusPending,
		Attempts:   job.Attempt,
		CreatedAt:  now,
	}
	if err := s.store.CreateLog(ctx, log); err != nil {
		return nil, fmt.Errorf("create webhook log: %w", err)
	}
	return log, nil
}

func (s *Service) post(ctx context.Context, url string, payload []byte, signature string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	return resp.StatusCode, string(body), nil
}

// ListLogs returns a merchant's delivery log, newest first.
func (s *Service) ListLogs(ctx context.Context, merchantID string, limit, offset int) ([]*models.WebhookLog, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListLogs(ctx, merchantID, limit, offset)
}

// RetryRequest restarts a delivery sequence from attempt 1 with the stored
// payload, resetting the attempt counter and the full backoff schedule.
// The returned job is for the caller to enqueue.
func (s *Service) RetryRequest(ctx context.Context, merchantID, logID string) (*DeliveryJob, error) {
	log, err := s.store.LogByID(ctx, merchantID, logID)
	if err != nil {
		return nil, err
	}
	log.Attempts = 0
	log.Status = models.WebhookStatusPending
	log.NextRetryAt = nil
	if err := s.store.UpdateLog(ctx, log); err != nil {
		return nil, fmt.Errorf("reset webhook log: %w", err)
	}
	return &DeliveryJob{
		MerchantID: merchantID,
		Event:      log.Event,
		Payload:    json.RawMessage(log.Payload),
		Attempt:    1,
		LogID:      log.ID,
	}, nil
}
