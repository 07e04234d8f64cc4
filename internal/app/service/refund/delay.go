package refund

import (
	"time"

	"github.com/payflow/gateway/pkg/config"
)

const (
	minProcessingDelay = 3 * time.Second
	maxProcessingDelay = 5 * time.Second
)

// processingDelay models the refund leg of external bank latency: 3-5
// seconds spread by roll, or the fixed test delay in test mode.
func processingDelay(cfg config.SettlementConfig, roll float64) time.Duration {
	if cfg.TestMode {
		return time.Duration(cfg.TestDelayMillis) * time.Millisecond
	}
	return minProcessingDelay + time.Duration(roll*float64(maxProcessingDelay-minProcessingDelay))
}
