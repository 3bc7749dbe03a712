package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agora/internal/identity/crypto"
	identityhandler "agora/internal/identity/handler"
	identityservice "agora/internal/identity/service"
	participationhandler "agora/internal/participation/handler"
	participationservice "agora/internal/participation/service"
	"agora/internal/platform/config"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/logger"
	"agora/internal/platform/metrics"
	httptransport "agora/internal/transport/http"
)

const challengePurgeInterval = time.Minute

// main wires configuration, storage, services, and the HTTP router, then
// runs the server until a shutdown signal. Business logic lives in the
// internal service packages.
func main() {
	log := logger.New(slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := buildBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	var scheme crypto.Scheme
	switch cfg.CredentialScheme {
	case "hmac":
		log.Warn("using the hmac credential scheme; not for production")
		scheme = crypto.NewHMACScheme()
	default:
		scheme = crypto.NewEd25519Scheme()
	}

	identitySvc, err := identityservice.New(b.registry, b.challenges, scheme,
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(b.audit),
		identityservice.WithChallengeTTL(cfg.ChallengeTTL),
	)
	if err != nil {
		return err
	}

	participationSvc, err := participationservice.New(b.topics, b.submissions, identitySvc, b.registry,
		participationservice.WithLogger(log),
		participationservice.WithAuditPublisher(b.audit),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(log, metrics.New(), b.health,
		identityhandler.New(identitySvc, log),
		participationhandler.New(participationSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	go purgeChallenges(ctx, identitySvc, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeChallenges sweeps expired challenges so abandoned ones do not pile up
// in backends without native TTL support.
func purgeChallenges(ctx context.Context, svc *identityservice.Service, log *slog.Logger) {
	ticker := time.NewTicker(challengePurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.PurgeExpiredChallenges(ctx)
			if err != nil {
				log.Warn("challenge purge failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Debug("purged expired challenges", "count", removed)
			}
		}
	}
}
