package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/internal/platform/queue"
)

type memStore struct {
	merchants map[string]*models.Merchant
	logs      map[string]*models.WebhookLog
}

func newMemStore(merchants ...*models.Merchant) *memStore {
	s := &memStore{merchants: map[string]*models.Merchant{}, logs: map[string]*models.WebhookLog{}}
	for _, m := range merchants {
		s.merchants[m.ID] = m
	}
	return s
}

func (s *memStore) MerchantByID(_ context.Context, id string) (*models.Merchant, error) {
	m, ok := s.merchants[id]
	if !ok {
		return nil, ErrMerchantNotFound
	}
	return m, nil
}

func (s *memStore) CreateLog(_ context.Context, log *models.WebhookLog) error {
	cp := *log
	s.logs[log.ID] = &cp
	return nil
}

func (s *memStore) UpdateLog(_ context.Context, log *models.WebhookLog) error {
	cp := *log
	s.logs[log.ID] = &cp
	return nil
}

func (s *memStore) LogByID(_ context.Context, merchantID, id string) (*models.WebhookLog, error) {
	log, ok := s.logs[id]
	if !ok || log.MerchantID != merchantID {
		return nil, ErrLogNotFound
	}
	cp := *log
	return &cp, nil
}

func (s *memStore) ListLogs(_ context.Context, merchantID string, limit, offset int) ([]*models.WebhookLog, int64, error) {
	var out []*models.WebhookLog
	for _, l := range s.logs {
		if l.MerchantID == merchantID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *memStore) onlyLog(t *testing.T) *models.WebhookLog {
	t.Helper()
	require.Len(t, s.logs, 1)
	for _, l := range s.logs {
		return l
	}
	return nil
}

var testBackoff = []time.Duration{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}

func newTestService(store Store, client *http.Client) *Service {
	return New(Options{
		Store:          store,
		HTTPClient:     client,
		Clock:          clock.NewMock(),
		Logger:         zap.NewNop().Sugar(),
		Backoff:        testBackoff,
		MaxAttempts:    5,
		FallbackSecret: "whsec_test_abc123",
	})
}

func testMerchant(url string) *models.Merchant {
	return &models.Merchant{
		ID:            "550e8400-e29b-41d4-a716-446655440000",
		WebhookURL:    url,
		WebhookSecret: "whsec_live_s3cret",
	}
}

func testJob(payload string) *DeliveryJob {
	return &DeliveryJob{
		MerchantID: "550e8400-e29b-41d4-a716-446655440000",
		Event:      "payment.success",
		Payload:    json.RawMessage(payload),
		Attempt:    1,
	}
}

func TestSign_DeterministicAndByteSensitive(t *testing.T) {
	payload := []byte(`{"event":"payment.success","timestamp":1700000000,"data":{"payment":{"id":"pay_x"}}}`)

	sig1 := Sign(payload, "whsec_test_abc123")
	sig2 := Sign(payload, "whsec_test_abc123")
	require.Equal(t, sig1, sig2)
	require.Len(t, sig1, 64)

	altered := append([]byte{}, payload...)
	altered[10]++
	require.NotEqual(t, sig1, Sign(altered, "whsec_test_abc123"))
	require.NotEqual(t, sig1, Sign(payload, "other-secret"))
}

func TestDeliver_SuccessRecordsResponse(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody = readAll(r)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"received":true}`))
	}))
	defer srv.Close()

	store := newMemStore(testMerchant(srv.URL))
	svc := newTestService(store, srv.Client())

	job := testJob(`{"event":"payment.success","timestamp":1,"data":{}}`)
	require.NoError(t, svc.Deliver(context.Background(), job))

	log := store.onlyLog(t)
	require.Equal(t, models.WebhookStatusSuccess, log.Status)
	require.Equal(t, 1, log.Attempts)
	require.NotNil(t, log.ResponseCode)
	require.Equal(t, http.StatusOK, *log.ResponseCode)
	require.Equal(t, `{"received":true}`, log.ResponseBody)
	require.Nil(t, log.NextRetryAt)
	// the signature is over exactly the bytes that hit the wire
	require.Equal(t, Sign(job.Payload, "whsec_live_s3cret"), gotSig)
	require.Equal(t, []byte(job.Payload), gotBody)
}

func TestDeliver_FallbackSecretWhenUnconfigured(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := testMerchant(srv.URL)
	m.WebhookSecret = ""
	store := newMemStore(m)
	svc := newTestService(store, srv.Client())

	job := testJob(`{"event":"payment.success"}`)
	require.NoError(t, svc.Deliver(context.Background(), job))
	require.Equal(t, Sign(job.Payload, "whsec_test_abc123"), gotSig)
}

func TestDeliver_NoMerchantOrNoURLAbandonsSilently(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, http.DefaultClient)
	require.NoError(t, svc.Deliver(context.Background(), testJob(`{}`)))
	require.Empty(t, store.logs)

	m := testMerchant("")
	store = newMemStore(m)
	svc = newTestService(store, http.DefaultClient)
	require.NoError(t, svc.Deliver(context.Background(), testJob(`{}`)))
	require.Empty(t, store.logs)
}

func TestDeliver_FailureSchedulesRetryWithBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	store := newMemStore(testMerchant(srv.URL))
	svc := newTestService(store, srv.Client())

	err := svc.Deliver(context.Background(), testJob(`{"event":"payment.success"}`))
	var retry *queue.RetryDirective
	require.ErrorAs(t, err, &retry)
	require.Equal(t, 5*time.Second, retry.After)

	next, ok := retry.Payload.(*DeliveryJob)
	require.True(t, ok)
	require.Equal(t, 2, next.Attempt)
	require.NotEmpty(t, next.LogID)

	log := store.onlyLog(t)
	require.Equal(t, models.WebhookStatusPending, log.Status)
	require.Equal(t, 1, log.Attempts)
	require.NotNil(t, log.NextRetryAt)
	require.NotNil(t, log.ResponseCode)
	require.Equal(t, http.StatusBadGateway, *log.ResponseCode)
	require.Equal(t, "upstream down", log.ResponseBody)
}

// Endpoint down for four attempts, recovering on the fifth: the sequence
// walks the whole backoff table and lands on success with attempts=5.
func TestDeliver_RecoversOnFifthAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 5 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newMemStore(testMerchant(srv.URL))
	svc := newTestService(store, srv.Client())

	job := testJob(`{"event":"payment.success"}`)
	wantDelays := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}

	for i := 0; i < 4; i++ {
		err := svc.Deliver(context.Background(), job)
		var retry *queue.RetryDirective
		require.ErrorAs(t, err, &retry, "attempt %d", i+1)
		require.Equal(t, wantDelays[i], retry.After)
		require.Equal(t, models.WebhookStatusPending, store.onlyLog(t).Status)
		job = retry.Payload.(*DeliveryJob)
	}

	require.NoError(t, svc.Deliver(context.Background(), job))
	log := store.onlyLog(t)
	require.Equal(t, models.WebhookStatusSuccess, log.Status)
	require.Equal(t, 5, log.Attempts)
	require.Equal(t, 5, calls)
}

// Five consecutive failures exhaust the budget; a sixth attempt is never
// scheduled.
func TestDeliver_ExhaustionMarksFailed(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := newMemStore(testMerchant(srv.URL))
	svc := newTestService(store, srv.Client())

	job := testJob(`{"event":"payment.failed"}`)
	for i := 0; i < 4; i++ {
		err := svc.Deliver(context.Background(), job)
		var retry *queue.RetryDirective
		require.ErrorAs(t, err, &retry)
		job = retry.Payload.(*DeliveryJob)
	}
	require.Equal(t, 5, job.Attempt)

	require.NoError(t, svc.Deliver(context.Background(), job))
	log := store.onlyLog(t)
	require.Equal(t, models.WebhookStatusFailed, log.Status)
	require.Equal(t, 5, log.Attempts)
	require.Nil(t, log.NextRetryAt)
	require.Equal(t, 5, calls)
}

func TestDeliver_UnreachableEndpointIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	store := newMemStore(testMerchant(url))
	svc := newTestService(store, &http.Client{Timeout: time.Second})

	err := svc.Deliver(context.Background(), testJob(`{}`))
	var retry *queue.RetryDirective
	require.ErrorAs(t, err, &retry)

	log := store.onlyLog(t)
	require.Equal(t, models.WebhookStatusPending, log.Status)
	require.Nil(t, log.ResponseCode)
}

func TestRetryRequest_ResetsSequence(t *testing.T) {
	store := newMemStore(testMerchant("http://example.invalid/hook"))
	log := &models.WebhookLog{
		ID:         "0192d9f3-0000-7000-8000-000000000001",
		MerchantID: "550e8400-e29b-41d4-a716-446655440000",
		Event:      "payment.success",
		Payload:    []byte(`{"event":"payment.success"}`),
		Status:     models.WebhookStatusFailed,
		Attempts:   5,
	}
	require.NoError(t, store.CreateLog(context.Background(), log))

	svc := newTestService(store, http.DefaultClient)
	job, err := svc.RetryRequest(context.Background(), log.MerchantID, log.ID)
	require.NoError(t, err)
	require.Equal(t, 1, job.Attempt)
	require.Equal(t, log.ID, job.LogID)
	require.JSONEq(t, `{"event":"payment.success"}`, string(job.Payload))

	stored, err := store.LogByID(context.Background(), log.MerchantID, log.ID)
	require.NoError(t, err)
	require.Equal(t, models.WebhookStatusPending, stored.Status)
	require.Equal(t, 0, stored.Attempts)
}

func TestRetryRequest_UnknownLog(t *testing.T) {
	svc := newTestService(newMemStore(), http.DefaultClient)
	_, err := svc.RetryRequest(context.Background(), "m1", "missing")
	require.True(t, errors.Is(err, ErrLogNotFound))
}

func TestDeliver_RedeliveredJobAfterSuccessIsSkipped(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newMemStore(testMerchant(srv.URL))
	svc := newTestService(store, srv.Client())

	job := testJob(`{"event":"payment.success"}`)
	require.NoError(t, svc.Deliver(context.Background(), job))
	require.Equal(t, 1, calls)

	// the queue redelivers the same job when the ack was lost
	job.LogID = store.onlyLog(t).ID
	require.NoError(t, svc.Deliver(context.Background(), job))
	require.Equal(t, 1, calls)
	require.Equal(t, models.WebhookStatusSuccess, store.onlyLog(t).Status)
}

func TestNextBackoff_Bounds(t *testing.T) {
	svc := newTestService(newMemStore(), http.DefaultClient)

	d, ok := svc.NextBackoff(1)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, d)

	d, ok = svc.NextBackoff(4)
	require.True(t, ok)
	require.Equal(t, 20*time.Second, d)

	_, ok = svc.NextBackoff(5)
	require.False(t, ok)
}

func readAll(r *http.Request) []byte {
	defer r.Body.Close()
	buf := make([]byte, 0, 512)
	tmp := make([]byte, 512)
	for {
		n, err := r.Body.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			return buf
		}
	}
}
