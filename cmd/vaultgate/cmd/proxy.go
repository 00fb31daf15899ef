package cmd

import (
	"context"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vaultgate/vaultgate/internal/adapter/inbound/stdio"
	"github.com/vaultgate/vaultgate/internal/audit"
	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/proxy"
	"github.com/vaultgate/vaultgate/internal/vault"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run the mediated tool-call proxy (stdio JSON-RPC)",
	Long: `proxy speaks line-delimited JSON-RPC 2.0 over stdio, enforcing the
blocklist and rate limit from policy config, resolving {ref:<id>} arguments
against the vault, redacting secret-shaped values from responses, and
appending one audit record per tools/call.

The optional Prometheus endpoint is never bound unless metrics.enabled is
set in config.`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	key, err := loadMasterKey(cfg.VaultDir)
	if err != nil {
		return err
	}
	defer crypto.Zero(key)

	v, err := vault.Open(key, vaultJSONPath(cfg.VaultDir))
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	auditLog, err := audit.Open(cfg.Audit.File)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = auditLog.Close() }()

	rateWindow := 1 * time.Minute
	if cfg.Policy.RateWindow != "" {
		d, err := time.ParseDuration(cfg.Policy.RateWindow)
		if err != nil {
			return fmt.Errorf("parse policy.rate_window: %w", err)
		}
		rateWindow = d
	}

	var metrics *proxy.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics = proxy.NewMetrics(reg)

		mux := stdhttp.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &stdhttp.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	lookup := func(id string) (string, bool) {
		_, plaintext, err := v.Get(id)
		if err != nil {
			return "", false
		}
		defer crypto.Zero(plaintext)
		return string(plaintext), true
	}

	server := proxy.NewServer(proxy.Config{
		BlockedTools: cfg.Policy.BlockedTools,
		RateLimit:    cfg.Policy.RateLimit,
		RateWindow:   rateWindow,
	}, lookup, auditLog, metrics)

	transport := stdio.NewTransport(server)

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	logger.Info("vaultgate proxy starting", "vault_dir", cfg.VaultDir)
	if err := transport.Start(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("proxy transport: %w", err)
	}
	logger.Info("vaultgate proxy stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
