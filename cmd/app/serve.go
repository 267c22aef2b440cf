package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"telegram-ecommerce-bot/internal/application"
	"telegram-ecommerce-bot/internal/config"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
	payAdapters "telegram-ecommerce-bot/internal/infra/adapters/payment"
	"telegram-ecommerce-bot/internal/infra/adapters/shop"
	tele "telegram-ecommerce-bot/internal/infra/adapters/telegram"
	"telegram-ecommerce-bot/internal/infra/api"
	"telegram-ecommerce-bot/internal/infra/bolt"
	"telegram-ecommerce-bot/internal/infra/db/migrate"
	pg "telegram-ecommerce-bot/internal/infra/db/postgres"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/memory"
	"telegram-ecommerce-bot/internal/infra/metrics"
	red "telegram-ecommerce-bot/internal/infra/redis"
	"telegram-ecommerce-bot/internal/infra/scheduler"
	"telegram-ecommerce-bot/internal/infra/worker"
	"telegram-ecommerce-bot/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (long polling) and the ops HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	db, err := pg.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()
	if err := migrate.Run(db, *log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	checks := map[string]api.Check{"postgres": db.PingContext}

	// ---- Redis (optional) ----
	var redisClient red.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		checks["redis"] = redisClient.Ping
	}

	// ---- Repositories ----
	var sessionRepo repository.SessionRepository = pg.NewPostgresSessionRepo(db)
	if redisClient != nil {
		sessionRepo = pg.NewSessionRepoCacheDecorator(sessionRepo, redisClient, cfg.Redis.TTL, log)
	}
	states, closeStates, err := newStateRepo(ctx, cfg, redisClient, log)
	if err != nil {
		return fmt.Errorf("state backend: %w", err)
	}
	defer closeStates()
	log.Info().Str("backend", cfg.State.Backend).Msg("conversation state backend ready")

	// ---- Adapters ----
	shopClient, err := shop.NewClient(cfg.Shop.Host, cfg.Shop.Timeout, log)
	if err != nil {
		return fmt.Errorf("shop client: %w", err)
	}
	payments, err := newPaymentChecker(cfg)
	if err != nil {
		return fmt.Errorf("payment checker: %w", err)
	}
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Locale)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	bot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, translator, log)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	// ---- Use cases ----
	sessions := usecase.NewSessionUseCase(sessionRepo, cfg.Session.LoginLifetimeHours, log)
	engine := usecase.NewConversationEngine(states, shopClient, payments, sessions, bot, translator, log)
	facade := application.NewBotFacade(
		sessions,
		usecase.NewAccountUseCase(shopClient, sessions, bot, translator, log),
		usecase.NewCatalogUseCase(shopClient, bot, translator, log),
		usecase.NewCartUseCase(shopClient, sessions, bot, translator, log),
		engine,
		bot,
		translator,
		log,
	).WithTimeout(cfg.Bot.HandlerTimeout)

	if redisClient != nil {
		facade.WithRateLimiter(red.NewRateLimiter(redisClient), cfg.Bot.RateLimit)
	} else {
		facade.WithRateLimiter(memory.NewRateLimiter(), cfg.Bot.RateLimit)
	}

	if err := bot.SetMenuCommands(ctx); err != nil {
		// the menu is cosmetic; keep serving
		log.Warn().Err(err).Msg("failed to register bot commands")
	}

	// ---- Run ----
	pool := worker.NewKeyedPool(cfg.Bot.Workers, cfg.Bot.QueueSize, log)
	pool.Start(ctx)
	ops := api.NewServer(cfg.Admin.Port, checks, log)

	errc := make(chan error, 2)
	go func() {
		if err := ops.Start(); err != nil {
			errc <- fmt.Errorf("ops http: %w", err)
		}
	}()
	go func() {
		errc <- bot.StartPolling(ctx, facade, pool)
	}()
	log.Info().
		Int("workers", cfg.Bot.Workers).
		Str("shop", cfg.Shop.Host).
		Str("payment", payments.Name()).
		Msg("bot started")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case runErr = <-errc:
		if runErr != nil {
			log.Error().Err(runErr).Msg("component stopped")
		}
	}
	shutdown(ops, pool, log)
	return runErr
}

func shutdown(ops *api.Server, pool *worker.KeyedPool, log *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ops.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("ops http shutdown")
	}
	pool.Stop()
}

func newStateRepo(ctx context.Context, cfg *config.Config, redisClient red.RedisClient, log *zerolog.Logger) (repository.StateRepository, func(), error) {
	switch cfg.State.Backend {
	case "redis":
		if redisClient == nil {
			return nil, nil, errors.New("redis state backend needs redis.enabled")
		}
		return red.NewStateRepo(redisClient, cfg.State.TTL), func() {}, nil
	case "bolt":
		repo, err := bolt.Open(cfg.State.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		repo := memory.NewStateRepo()
		ttl := cfg.State.TTL
		if ttl <= 0 {
			return repo, func() {}, nil
		}
		sweeper := scheduler.NewScheduler("state-sweep", ttl/24, scheduler.JobFunc(func(ctx context.Context) (int, error) {
			return repo.Expire(ctx, time.Now().Add(-ttl)), nil
		}), log)
		sweeper.Start(ctx)
		return repo, sweeper.Stop, nil
	}
}

func newPaymentChecker(cfg *config.Config) (adapter.PaymentChecker, error) {
	switch cfg.Payment.Provider {
	case "noop":
		return payAdapters.NewNoopPaymentChecker(), nil
	default:
		st := cfg.Payment.Stripe
		return payAdapters.NewStripeChecker(st.SecretKey, st.APIBase, st.Timeout)
	}
}
