package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/roadmap/api/handler"
	"github.com/fastygo/roadmap/internal/config"
	"github.com/fastygo/roadmap/internal/infrastructure/monitor"
	"github.com/fastygo/roadmap/internal/infrastructure/outbox"
	pgInfra "github.com/fastygo/roadmap/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/roadmap/internal/infrastructure/redis"
	"github.com/fastygo/roadmap/internal/middleware"
	"github.com/fastygo/roadmap/internal/projector"
	"github.com/fastygo/roadmap/internal/router"
	"github.com/fastygo/roadmap/internal/services"
	"github.com/fastygo/roadmap/internal/services/lifecycle"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	"github.com/fastygo/roadmap/pkg/logger"
	"github.com/fastygo/roadmap/repository/postgres"
	redisRepo "github.com/fastygo/roadmap/repository/redis"
	adminUC "github.com/fastygo/roadmap/usecase/admin"
	identityUC "github.com/fastygo/roadmap/usecase/identity"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.RegisterCloser("postgres", pool.Close)

	// Redis only carries realtime fan-out; the API keeps serving without it
	// and queues changes in the outbox.
	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "changes")
	if err != nil {
		zapLogger.Fatal("failed to open outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.RegisterCloser("monitor", mon.Stop)

	store := postgres.NewStore(pool)
	repos := store.Repos()
	bus := redisRepo.NewChangeBus(redisClient, cfg.Redis.Channel, zapLogger)

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		bus,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	publisher := services.NewChangePublisher(outboxProcessor)

	identityUseCase := identityUC.New(repos.Profiles, cfg.Roadmap.AdminEmails, zapLogger)
	roadmapUseCase := roadmapUC.New(store, repos, publisher, zapLogger)
	adminUseCase := adminUC.New(repos.Profiles, repos.Invites, zapLogger, adminUC.WithInviteTTL(cfg.Roadmap.InviteTTL))

	viewOpts := []projector.Option{
		projector.WithLocale(projector.ParseLocale(cfg.Roadmap.CollationLocale)),
		projector.WithLocation(cfg.Roadmap.Location()),
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		Me:       apiHandler.NewMeHandler(identityUseCase, ctxAdapter, zapLogger),
		Item:     apiHandler.NewItemHandler(roadmapUseCase, identityUseCase, viewOpts, ctxAdapter, zapLogger),
		Comment:  apiHandler.NewCommentHandler(roadmapUseCase, identityUseCase, ctxAdapter, zapLogger),
		Activity: apiHandler.NewActivityHandler(roadmapUseCase, cfg.Roadmap.ActivityLimit, ctxAdapter, zapLogger),
		Admin:    apiHandler.NewAdminHandler(adminUseCase, ctxAdapter, zapLogger),
		Invite:   apiHandler.NewInviteHandler(adminUseCase, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
