// Command uplink makes one USDC payment through the onchain.fi aggregator and
// prints the settlement as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/onchainfi/uplink/internal/circuitbreaker"
	"github.com/onchainfi/uplink/internal/config"
	"github.com/onchainfi/uplink/internal/lifecycle"
	"github.com/onchainfi/uplink/internal/logger"
	"github.com/onchainfi/uplink/internal/metrics"
	"github.com/onchainfi/uplink/pkg/uplink"
	"github.com/onchainfi/uplink/pkg/x402"
)

var version = "dev"

type flags struct {
	configPath     string
	to             string
	amount         string
	network        string
	destNetwork    string
	priority       string
	idempotencyKey string
	metadata       string
	metricsAddr    string
	inspect        string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to YAML config file (optional)")
	flag.StringVar(&f.to, "to", "", "recipient address")
	flag.StringVar(&f.amount, "amount", "", "amount to pay, e.g. $10 or 10 USDC")
	flag.StringVar(&f.network, "network", "", "source network (default from config)")
	flag.StringVar(&f.destNetwork, "dest-network", "", "destination network (default detected from -to)")
	flag.StringVar(&f.priority, "priority", "", "facilitator priority: speed, cost, reliability or balanced")
	flag.StringVar(&f.idempotencyKey, "idempotency-key", "", "idempotency key (generated when empty)")
	flag.StringVar(&f.metadata, "metadata", "", "JSON object attached to the payment")
	flag.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while paying")
	flag.StringVar(&f.inspect, "inspect", "", "decode an X-PAYMENT header and exit")
	flag.Parse()

	if err := run(f, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "uplink:", err)
		os.Exit(exitCode(err))
	}
}

func run(f flags, out io.Writer) error {
	if f.inspect != "" {
		return inspect(f.inspect, out)
	}
	if f.to == "" || f.amount == "" {
		return errors.New("-to and -amount are required")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = f.metricsAddr
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "uplink",
		Version:     version,
		Environment: cfg.Logging.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources := lifecycle.NewManager(log)
	defer resources.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)
	if cfg.Metrics.Enabled {
		srv := metricsServer(cfg.Metrics.Address, registry, log)
		resources.RegisterFunc("metrics-server", func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	client, err := uplink.NewClient(clientConfig(cfg), clientOptions(cfg, log, collector)...)
	if err != nil {
		return err
	}
	resources.Register("uplink-client", client)

	var metadata map[string]any
	if f.metadata != "" {
		if err := json.Unmarshal([]byte(f.metadata), &metadata); err != nil {
			return fmt.Errorf("parse -metadata: %w", err)
		}
	}

	result, err := client.Pay(ctx, uplink.PaymentRequest{
		To:                 f.to,
		Amount:             f.amount,
		SourceNetwork:      f.network,
		DestinationNetwork: f.destNetwork,
		IdempotencyKey:     f.idempotencyKey,
		Metadata:           metadata,
		Priority:           uplink.Priority(f.priority),
	})
	if err != nil {
		var e *uplink.Error
		if errors.As(err, &e) && len(e.Details) > 0 {
			details, _ := json.MarshalIndent(e.Details, "", "  ")
			log.Error().RawJSON("details", details).Str("code", string(e.Code)).Msg("payment.failed")
		}
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// clientConfig maps the file configuration onto the library configuration.
func clientConfig(cfg *config.Config) uplink.Config {
	maxRetries := cfg.API.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	return uplink.Config{
		APIURL:       cfg.API.URL,
		APIKey:       cfg.API.Key,
		MaxRetries:   maxRetries,
		RetryDelay:   cfg.API.RetryDelay.Duration,
		Timeout:      cfg.API.Timeout.Duration,
		SolanaRPCURL: cfg.Solana.RPCURL,
		Network:      cfg.Network,
	}
}

func clientOptions(cfg *config.Config, log zerolog.Logger, collector *metrics.Metrics) []uplink.Option {
	opts := []uplink.Option{
		uplink.WithLogger(log),
		uplink.WithMetrics(collector),
		uplink.WithSolanaComputeBudget(cfg.Solana.ComputeUnitLimit, cfg.Solana.ComputeUnitPriceMicroLamports),
	}
	if cfg.CircuitBreaker.Enabled {
		opts = append(opts, uplink.WithCircuitBreaker(circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker,
			circuitbreaker.WithLogger(log),
			circuitbreaker.WithMetrics(collector),
		)))
	}
	if cfg.EVM.PrivateKey != "" {
		opts = append(opts, uplink.WithEVMKey(cfg.EVM.PrivateKey))
	}
	if cfg.Solana.PrivateKey != "" {
		opts = append(opts, uplink.WithSolanaKey(cfg.Solana.PrivateKey))
	}
	if cfg.Solana.Commitment != "" {
		opts = append(opts, uplink.WithSolanaCommitment(cfg.Solana.Commitment))
	}
	return opts
}

func metricsServer(addr string, registry *prometheus.Registry, log zerolog.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("address", addr).Msg("metrics.listen_failed")
		}
	}()
	log.Info().Str("address", addr).Msg("metrics.listening")
	return srv
}

func inspect(header string, out io.Writer) error {
	decoded, err := x402.DecodeHeader(header)
	if err != nil {
		return err
	}

	var payload any
	network, err := x402.ParseNetwork(decoded.Network)
	switch {
	case err != nil:
		return err
	case network.IsEVM():
		payload, err = decoded.EVM()
	default:
		payload, err = decoded.Solana()
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(x402.PaymentPayload{
		X402Version: decoded.X402Version,
		Scheme:      decoded.Scheme,
		Network:     decoded.Network,
		Payload:     payload,
	})
}

func exitCode(err error) int {
	switch uplink.CodeOf(err) {
	case uplink.ErrCodeValidation, uplink.ErrCodeConfig:
		return 2
	case uplink.ErrCodeAuthentication:
		return 3
	case uplink.ErrCodeFeeMismatch, uplink.ErrCodePaymentFailed:
		return 4
	default:
		return 1
	}
}
