package payment

import (
	"time"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/config"
)

// Settled is the outcome of the simulated settlement decision.
type Settled struct {
	Success          bool
	ErrorCode        string
	ErrorDescription string
}

const (
	declineCode        = "BANK_DECLINED"
	declineDescription = "The transaction was rejected by the bank."
)

// decideSettlement resolves a payment's fate. roll is a uniform [0,1)
// sample, compared against the method's success rate; test mode forces the
// configured outcome instead.
func decideSettlement(cfg config.SettlementConfig, method models.PaymentMethod, roll float64) Settled {
	success := roll < rateFor(cfg, method)
	if cfg.TestMode {
		success = cfg.TestSuccess
	}
	if success {
		return Settled{Success: true}
	}
	return Settled{
		Success:          false,
		ErrorCode:        declineCode,
		ErrorDescription: declineDescription,
	}
}

func rateFor(cfg config.SettlementConfig, method models.PaymentMethod) float64 {
	if method == models.PaymentMethodUPI {
		return cfg.UPISuccessRate
	}
	return cfg.CardSuccessRate
}

// settlementDelay models external bank latency. roll is a uniform [0,1)
// sample spread over the configured window; test mode uses the fixed delay.
func settlementDelay(cfg config.SettlementConfig, roll float64) time.Duration {
	if cfg.TestMode {
		return time.Duration(cfg.TestDelayMillis) * time.Millisecond
	}
	min := time.Duration(cfg.MinDelaySec) * time.Second
	max := time.Duration(cfg.MaxDelaySec) * time.Second
	if max <= min {
		return min
	}
	return min + time.Duration(roll*float64(max-min))
}
