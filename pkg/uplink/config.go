package uplink

import (
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/pkg/x402"
)

// Defaults applied by NewClient to zero-valued Config fields.
const (
	DefaultAPIURL     = "https://api.onchain.fi/v1"
	DefaultNetwork    = "base"
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Config is the client configuration. It is copied into the Client and never
// changed afterwards.
type Config struct {
	APIURL string `validate:"required,url"`
	APIKey string `validate:"required"`

	// MaxRetries bounds repeated preparation and routing calls after a
	// transient failure. Zero uses DefaultMaxRetries; a negative value
	// disables retries.
	MaxRetries int           `validate:"gte=-1,lte=10"`
	RetryDelay time.Duration `validate:"gte=0"` // first backoff, doubled per retry
	Timeout    time.Duration `validate:"gte=0"` // per-call deadline

	// SolanaRPCURL is the RPC endpoint for the default Solana network.
	// Other Solana networks use their public endpoint.
	SolanaRPCURL string `validate:"omitempty,url"`

	// Network is the default source network and the fallback when a
	// destination address has no recognizable shape.
	Network string
}

var validate = validator.New()

func (c Config) withDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Network == "" {
		c.Network = DefaultNetwork
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// retries returns the retry count handed to the aggregator client.
func (c Config) retries() int {
	if c.MaxRetries < 0 {
		return 0
	}
	return c.MaxRetries
}

func (c Config) validate() (x402.Network, error) {
	if err := validate.Struct(c); err != nil {
		return x402.Network{}, apierrors.Wrap(apierrors.ErrCodeConfig, err, "invalid client config")
	}
	network, err := x402.ParseNetwork(c.Network)
	if err != nil {
		return x402.Network{}, apierrors.Wrap(apierrors.ErrCodeConfig, err, "invalid default network")
	}
	return network, nil
}
