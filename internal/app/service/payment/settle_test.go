package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/config"
)

func baseSettlement() config.SettlementConfig {
	return config.SettlementConfig{
		UPISuccessRate:  0.90,
		CardSuccessRate: 0.95,
		MinDelaySec:     5,
		MaxDelaySec:     10,
		TestDelayMillis: 1000,
	}
}

func TestDecideSettlement_MethodRates(t *testing.T) {
	cfg := baseSettlement()

	// upi settles below 0.90, declines at or above
	require.True(t, decideSettlement(cfg, models.PaymentMethodUPI, 0.89).Success)
	require.False(t, decideSettlement(cfg, models.PaymentMethodUPI, 0.90).Success)

	// card gets the higher threshold
	require.True(t, decideSettlement(cfg, models.PaymentMethodCard, 0.94).Success)
	require.False(t, decideSettlement(cfg, models.PaymentMethodCard, 0.96).Success)
}

func TestDecideSettlement_DeclineDetails(t *testing.T) {
	cfg := baseSettlement()
	out := decideSettlement(cfg, models.PaymentMethodUPI, 0.99)
	require.False(t, out.Success)
	require.Equal(t, "BANK_DECLINED", out.ErrorCode)
	require.Equal(t, "The transaction was rejected by the bank.", out.ErrorDescription)
}

func TestDecideSettlement_TestModeForcesOutcome(t *testing.T) {
	cfg := baseSettlement()
	cfg.TestMode = true

	cfg.TestSuccess = true
	require.True(t, decideSettlement(cfg, models.PaymentMethodUPI, 0.999).Success)

	cfg.TestSuccess = false
	out := decideSettlement(cfg, models.PaymentMethodCard, 0.0)
	require.False(t, out.Success)
	require.Equal(t, "BANK_DECLINED", out.ErrorCode)
}

func TestSettlementDelay(t *testing.T) {
	cfg := baseSettlement()

	require.Equal(t, 5*time.Second, settlementDelay(cfg, 0))
	require.Equal(t, 7500*time.Millisecond, settlementDelay(cfg, 0.5))
	require.Less(t, settlementDelay(cfg, 0.999), 10*time.Second)

	cfg.TestMode = true
	require.Equal(t, time.Second, settlementDelay(cfg, 0.5))
}

func TestValidateMethod(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := validateMethod(&CreateRequest{Method: "upi", VPA: "alice@okbank"}, now)
	require.NoError(t, err)

	_, _, err = validateMethod(&CreateRequest{Method: "upi", VPA: "not-a-vpa"}, now)
	require.ErrorIs(t, err, ErrInvalidVPA)

	network, last4, err := validateMethod(&CreateRequest{Method: "card", Card: &CardInput{
		Number: "4111111111111111", ExpiryMonth: 12, ExpiryYear: 28, CVV: "123",
	}}, now)
	require.NoError(t, err)
	require.Equal(t, "visa", network)
	require.Equal(t, "1111", last4)

	_, _, err = validateMethod(&CreateRequest{Method: "card", Card: &CardInput{
		Number: "4111111111111112", ExpiryMonth: 12, ExpiryYear: 28, CVV: "123",
	}}, now)
	require.ErrorIs(t, err, ErrInvalidCard)

	_, _, err = validateMethod(&CreateRequest{Method: "card", Card: &CardInput{
		Number: "4111111111111111", ExpiryMonth: 1, ExpiryYear: 20, CVV: "123",
	}}, now)
	require.ErrorIs(t, err, ErrInvalidCard)

	_, _, err = validateMethod(&CreateRequest{Method: "wallet"}, now)
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}
