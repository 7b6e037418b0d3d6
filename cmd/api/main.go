package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/smartcity-api/internal/api/http"
	"github.com/spec-kit/smartcity-api/internal/api/http/handlers"
	"github.com/spec-kit/smartcity-api/internal/config"
	"github.com/spec-kit/smartcity-api/internal/events"
	"github.com/spec-kit/smartcity-api/internal/observability"
	"github.com/spec-kit/smartcity-api/internal/persistence"
	"github.com/spec-kit/smartcity-api/internal/repository"
	"github.com/spec-kit/smartcity-api/internal/service"
	"github.com/spec-kit/smartcity-api/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	users   repository.UserRepository
	reports repository.ReportRepository
	pinger  handlers.Pinger
	close   func()
}

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

	st := openStores(ctx, cfg, logger)
	defer st.close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.Publisher
	if redis != nil {
		publisher = redis
	}
	worker.StartEventRelay(service.NewEventRelay(dispatcher, publisher, cfg.Redis.EventsChannel, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   st.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo: st.reports,
		UserRepo:   st.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	deps := map[string]handlers.Pinger{cfg.Store.Driver: st.pinger}
	if redis != nil {
		deps["redis"] = redis
	}

	app := httptransport.NewApp(cfg.App, logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:     handlers.NewUsersHandler(authService),
		Reports:   handlers.NewReportsHandler(reportService),
		StaticDir: cfg.App.StaticDir,
	})

	keepAlive, err := worker.StartKeepAlive(cfg.KeepAlive, logger)
	if err != nil {
		logger.Error("keep-alive disabled", zap.Error(err))
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if keepAlive != nil {
		<-keepAlive.Stop().Done()
	}
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// openStores connects the configured backend. Connection failures are logged and the
// repositories answer every call with a store error until the process is restarted.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) stores {
	if cfg.Store.Driver == config.StoreDriverPostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect postgres", zap.Error(err))
		}
		if pg != nil && cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Error("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		return stores{
			users:   repository.NewPostgresUserRepository(pool),
			reports: repository.NewPostgresReportRepository(pool),
			pinger:  pg,
			close:   pg.Close,
		}
	}

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Error("failed to connect mongo", zap.Error(err))
	}
	if mongo != nil {
		indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout())
		if err := mongo.EnsureIndexes(indexCtx); err != nil {
			logger.Warn("failed to ensure indexes", zap.Error(err))
		}
		cancel()
	}
	db := mongo.DB()
	return stores{
		users:   repository.NewMongoUserRepository(db),
		reports: repository.NewMongoReportRepository(db),
		pinger:  mongo,
		close: func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			mongo.Close(closeCtx)
		},
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
