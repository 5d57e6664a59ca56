package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/fastygo/roadmap/internal/cli"
	"github.com/fastygo/roadmap/internal/config"
	pgInfra "github.com/fastygo/roadmap/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/roadmap/internal/infrastructure/redis"
	"github.com/fastygo/roadmap/internal/projector"
	"github.com/fastygo/roadmap/internal/services"
	"github.com/fastygo/roadmap/internal/services/lifecycle"
	"github.com/fastygo/roadmap/pkg/logger"
	"github.com/fastygo/roadmap/repository/postgres"
	redisRepo "github.com/fastygo/roadmap/repository/redis"
	identityUC "github.com/fastygo/roadmap/usecase/identity"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg.Database.ApplicationName = cfg.AppName + "-cli"
	cfg.Redis.ClientName = cfg.AppName + "-cli"

	level := os.Getenv("ROADMAP_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	zapLogger, err := logger.New(logger.Config{Level: level, Encoding: "console", Output: os.Stderr})
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)
	defer manager.Shutdown(context.Background())

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	manager.RegisterCloser("postgres", pool.Close)

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	manager.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})

	store := postgres.NewStore(pool)
	repos := store.Repos()
	bus := redisRepo.NewChangeBus(redisClient, cfg.Redis.Channel, zapLogger)

	app := &cli.App{
		Roadmap:  roadmapUC.New(store, repos, services.NewDirectPublisher(bus, zapLogger), zapLogger),
		Bus:      bus,
		Identity: identityUC.New(repos.Profiles, cfg.Roadmap.AdminEmails, zapLogger),
		Out:      os.Stdout,
		Err:      os.Stderr,
		Styled:   isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		ViewOptions: []projector.Option{
			projector.WithLocale(projector.ParseLocale(cfg.Roadmap.CollationLocale)),
			projector.WithLocation(cfg.Roadmap.Location()),
		},
		ActivityLimit: cfg.Roadmap.ActivityLimit,
		Logger:        zapLogger,
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
