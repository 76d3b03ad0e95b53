package aggregator_test

import (
	"time"

	"github.com/onchainfi/uplink/internal/rpcutil"
)

func rpcRetry(n int) rpcutil.RetryConfig {
	return rpcutil.RetryConfig{MaxRetries: n, BaseDelay: time.Millisecond}
}
