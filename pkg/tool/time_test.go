package tool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRFC3339Micro(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 123456000, time.UTC)
	require.Equal(t, "2026-01-02T15:04:05.123456Z", RFC3339Micro(ts))

	// whole seconds carry no fraction
	whole := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	require.Equal(t, "2026-01-02T15:04:05Z", RFC3339Micro(whole))

	// non-UTC inputs normalize to UTC
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2026, 1, 2, 20, 34, 5, 500000000, ist)
	require.Equal(t, "2026-01-02T15:04:05.5Z", RFC3339Micro(local))
}
