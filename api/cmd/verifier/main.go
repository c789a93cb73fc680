package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claim-verifier/api/internal/config"
	"claim-verifier/api/internal/handle"
	"claim-verifier/api/internal/httpserver"
	"claim-verifier/api/internal/logger"
	"claim-verifier/api/internal/store"
	"claim-verifier/api/internal/verify"
	"claim-verifier/api/internal/verify/gemini"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLogger(logger.DefaultConfig())
	if err := config.LoadDotEnv(); err != nil {
		log.Error("dotenv", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}
	log = logger.NewLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Output:     os.Stdout,
		JSON:       cfg.LogJSON,
		TimeFormat: time.RFC3339,
	})
	logger.SetDefault(log)
	ctx = logger.ContextWithLogger(ctx, log)

	if err := run(ctx, cfg); err != nil {
		log.Error("verifier stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.FromContext(ctx)

	engine, err := gemini.New(ctx, cfg.Verify)
	if err != nil {
		return err
	}
	defer engine.Close()

	v, err := verify.New(engine, cfg.Verify)
	if err != nil {
		return err
	}
	var cv verify.ClaimVerifier = v

	if cfg.DatabaseURL != "" {
		pool, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("db connected", "dsn", store.SafeDSNSummary(cfg.DatabaseURL))

		repo := store.NewVerdictRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		cv = verify.NewCached(v, repo, cfg.CacheTTL)
		if cfg.CacheTTL > 0 {
			go purgeLoop(ctx, repo, cfg.CacheTTL)
		}
	} else {
		log.Info("DATABASE_URL not set, verdict cache disabled")
	}

	h := handle.New(cv, log)
	log.Info("claim verifier starting", "provider", engine.Name(), "model", engine.GetModel(), "port", cfg.Port)
	return httpserver.Run(ctx, ":"+cfg.Port, h.Routes())
}

// purgeLoop drops cache rows well past their TTL.
func purgeLoop(ctx context.Context, repo *store.VerdictRepo, ttl time.Duration) {
	log := logger.FromContext(ctx)
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeOlderThan(ctx, 2*ttl)
			if err != nil {
				log.Warn("verdict cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("verdict cache purged", "rows", n)
			}
		}
	}
}
