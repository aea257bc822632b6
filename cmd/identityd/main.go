package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pulse-chat/go-client/internal/config"
	"pulse-chat/go-client/internal/keystore"
	"pulse-chat/go-client/internal/platform/privacylog"
	"pulse-chat/go-client/internal/platform/ratelimiter"
	"pulse-chat/go-client/internal/storage"
	"pulse-chat/go-client/internal/vault"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	dataDir := flag.String("data-dir", "", "Directory for identity records (optional)")
	tier := flag.String("tier", "", "Password hardening tier override: low | medium | high")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("identityd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg := config.LoadFromPath(*configPath)
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *tier != "" {
		cfg.HardeningTier = *tier
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
		cfg.MetricsEnable = true
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("identityd failed", "error", err)
		os.Exit(1)
	}
	logger.Info("identityd stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	hardeningTier := keystore.Tier(cfg.HardeningTier)
	if _, err := keystore.ParamsForTier(hardeningTier); err != nil {
		return err
	}

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}

	v := vault.New(store,
		vault.WithLogger(logger),
		vault.WithTier(hardeningTier),
		vault.WithAttemptLimiter(ratelimiter.New(cfg.UnlockRate, cfg.UnlockBurst, 5*time.Minute)),
	)

	has, err := v.HasIdentity(ctx)
	if err != nil {
		return err
	}
	if has {
		identity, err := v.CurrentIdentity(ctx)
		if err != nil {
			return err
		}
		logger.Info("identityd starting",
			"version", version,
			"tier", cfg.HardeningTier,
			"identity_id", identity.ID,
		)
	} else {
		logger.Info("identityd starting, no identity stored",
			"version", version,
			"tier", cfg.HardeningTier,
		)
	}

	if cfg.MetricsEnable {
		go serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	done := make(chan struct{})
	go func() {
		commandLoop(ctx, v, os.Stdin, os.Stdout)
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	v.Lock()
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(privacylog.WrapHandler(handler))
}
