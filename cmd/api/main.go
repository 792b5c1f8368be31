package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/blob"
	"github.com/spec-kit/helpdesk-service/internal/bot"
	"github.com/spec-kit/helpdesk-service/internal/chat"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/watchdog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, healthChecks, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	healthChecks["redis"] = redis.Ping

	metrics := observability.NewMetrics()
	bus := events.NewBus(logger)

	var telegram *chat.Client
	if cfg.Bot.Token != "" {
		telegram = chat.NewClient(cfg.Bot.Token, 0)
	}

	notifier := notify.NewNotifier(outbound(telegram), cfg.Bot.NotifyChatID, cfg.Bot.SendTimeout(), logger)
	go notifier.Run(ctx)
	notify.NewListener(notifier).Register(bus)

	ticketService := service.NewTicketService(store, bus, nil)
	authService := service.NewAuthService(cfg.Auth, store.Users, logger)
	if err := authService.SeedAdmin(ctx); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	dog := watchdog.New(store.Tickets, notifier, cfg.Watchdog.Interval(), nil, logger)
	go dog.Run(ctx)

	storage, staticDir, err := openBlob(ctx, cfg.Blob)
	if err != nil {
		logger.Fatal("failed to open blob storage", zap.Error(err))
	}

	var center *bot.Center
	var telegramHandler *handlers.TelegramHandler
	if telegram != nil {
		center = bot.NewCenter(ticketService, telegram, logger)
		if cfg.Bot.WebhookURL != "" {
			telegramHandler = handlers.NewTelegramHandler(center, cfg.Bot.Token, logger)
			if err := telegram.SetWebhook(ctx, cfg.Bot.WebhookURL); err != nil {
				logger.Warn("failed to register webhook", zap.Error(err))
			}
		} else {
			poller := chat.NewPoller(telegram, center, cfg.Bot.PollInterval(), logger)
			go poller.Run(ctx)
		}
	}

	authMiddleware := auth.NewMiddleware(authService.TokenManager())
	limiter := auth.NewLoginLimiter(redis.Client, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow(), logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
		BodyLimit:             25 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(healthChecks),
		Auth:             handlers.NewAuthHandler(authService, limiter),
		Tickets:          handlers.NewTicketsHandler(ticketService),
		Attachments:      handlers.NewAttachmentsHandler(ticketService, storage),
		Stats:            handlers.NewStatsHandler(ticketService),
		Events:           handlers.NewEventsHandler(bus, logger),
		Telegram:         telegramHandler,
		AuthMiddleware:   authMiddleware,
		StaticDir:        staticDir,
		StaticPublicPath: cfg.Blob.PublicBasePath,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

// openStore selects the configured row-store backend. Both return identical
// repository behavior.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Store, map[string]handlers.ReadinessCheck, func(), error) {
	checks := map[string]handlers.ReadinessCheck{}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, nil, nil, err
			}
		}
		checks["postgres"] = pg.Ping
		return repository.NewPostgresStore(pg.Pool), checks, pg.Close, nil
	default:
		bunt, err := persistence.NewBunt(cfg.Bunt, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewBuntStore(bunt.Handles), checks, bunt.Close, nil
	}
}

func openBlob(ctx context.Context, cfg config.BlobConfig) (blob.Storage, string, error) {
	if cfg.Driver == config.BlobDriverMinio {
		storage, err := blob.NewMinioStorage(ctx, blob.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, nil)
		return storage, "", err
	}
	storage, err := blob.NewLocalStorage(cfg.LocalDir, cfg.PublicBasePath, nil)
	if err != nil {
		return nil, "", err
	}
	return storage, cfg.LocalDir, nil
}

// outbound avoids a typed-nil interface when the bot is unconfigured.
func outbound(client *chat.Client) notify.Outbound {
	if client == nil {
		return nil
	}
	return client
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
