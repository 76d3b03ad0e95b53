package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/onchainfi/uplink/internal/keys"
	"github.com/onchainfi/uplink/pkg/x402"
)

var validate = validator.New()

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	// Apply defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	if c.API.Timeout.Duration <= 0 {
		c.API.Timeout = Duration{Duration: 120 * time.Second}
	}
	if c.API.RetryDelay.Duration <= 0 {
		c.API.RetryDelay = Duration{Duration: time.Second}
	}
	if c.Solana.ComputeUnitLimit == 0 {
		c.Solana.ComputeUnitLimit = 200000
	}
	if c.Solana.ComputeUnitPriceMicroLamports == 0 {
		c.Solana.ComputeUnitPriceMicroLamports = 1
	}
	if c.Solana.Commitment == "" {
		c.Solana.Commitment = "finalized"
	}

	return c.validate()
}

// validate checks struct tags first, then the cross-field rules.
func (c *Config) validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed %q validation", fieldPath(fe.Namespace()), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	network, err := x402.ParseNetwork(c.Network)
	if err != nil {
		errs = append(errs, fmt.Sprintf("network: %v", err))
	}

	if c.EVM.PrivateKey == "" && c.Solana.PrivateKey == "" {
		errs = append(errs, "at least one signing key is required (UPLINK_EVM_PRIVATE_KEY or UPLINK_SOLANA_PRIVATE_KEY)")
	}
	if c.EVM.PrivateKey != "" {
		if _, err := keys.ParseEVMKey(c.EVM.PrivateKey); err != nil {
			errs = append(errs, fmt.Sprintf("evm.private_key: %v", err))
		}
	} else if network.IsEVM() {
		errs = append(errs, fmt.Sprintf("evm.private_key is required when network is %s", network))
	}
	if c.Solana.PrivateKey != "" {
		if _, err := keys.ParseSolanaKey(c.Solana.PrivateKey); err != nil {
			errs = append(errs, fmt.Sprintf("solana.private_key: %v", err))
		}
		if c.Solana.RPCURL == "" {
			errs = append(errs, "solana.rpc_url is required when a solana key is set")
		}
	} else if network.IsSolana() {
		errs = append(errs, fmt.Sprintf("solana.private_key is required when network is %s", network))
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, "metrics.address is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// fieldPath turns "Config.API.URL" into "api.url" for error messages.
func fieldPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}
