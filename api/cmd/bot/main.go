package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"claim-verifier/api/internal/config"
	"claim-verifier/api/internal/httpserver"
	"claim-verifier/api/internal/logger"
	"claim-verifier/api/internal/store"
	"claim-verifier/api/internal/telegram"
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
	if cfg.TelegramBotToken == "" {
		log.Error("missing required env TELEGRAM_BOT_TOKEN")
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
		log.Error("bot stopped", "error", err)
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
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return err
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:      bot,
		Verifier: cv,
		Model:    engine.GetModel(),
		Timeout:  cfg.Verify.Timeout,
	}

	// health endpoint for the hosting platform; polling does not need it
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		if err := httpserver.Run(ctx, "0.0.0.0:"+cfg.Port, mux); err != nil {
			log.Error("health server", "error", err)
		}
	}()

	log.Info("bot polling", "user", bot.Self.UserName, "provider", engine.Name(), "model", engine.GetModel())
	runPolling(ctx, bot, func(upd tgbotapi.Update) {
		r.HandleUpdate(ctx, upd)
	})
	return nil
}

type updateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return time.Second
}

func runPolling(ctx context.Context, src updateSource, handle func(tgbotapi.Update)) {
	log := logger.FromContext(ctx)
	offset := 0
	baseDelay := time.Second
	maxDelay := 15 * time.Second

	for {
		if ctx.Err() != nil {
			log.Info("polling: context canceled")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := src.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn("polling error", "error", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
