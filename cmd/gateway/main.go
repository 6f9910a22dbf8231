package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/gatewatch/ui-gateway/config"
	"github.com/gatewatch/ui-gateway/internal/bootstrap"
	"github.com/gatewatch/ui-gateway/internal/data"
	httpx "github.com/gatewatch/ui-gateway/internal/http"
	"github.com/gatewatch/ui-gateway/internal/service"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting gatewatch ui gateway",
		"auth_mode", string(cfg.Auth.Mode),
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"http_addr", cfg.HTTP.Addr)

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	auditRepo := data.NewSignInAuditRepo(db)

	authSvc, err := bootstrap.BuildAuthService(ctx, bootstrap.AuthConfig{
		Auth:        cfg.Auth,
		Session:     cfg.Session,
		RedisClient: redisClient,
		Audit:       auditRepo,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	server, err := bootstrap.StartHTTPServer(bootstrap.HTTPServerConfig{
		HTTP: cfg.HTTP,
		Services: httpx.RouterServices{
			Auth:         authSvc,
			Audit:        auditRepo,
			CookieDomain: cfg.HTTP.CookieDomain,
			Logger:       logger,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	retention := &service.AuditRetention{
		Pruner:    auditRepo,
		Retention: cfg.Audit.Retention,
		Interval:  cfg.Audit.PruneInterval,
		Logger:    logger,
	}

	return serveUntilSignal(ctx, server, retention, logger)
}

// serveUntilSignal runs the server and the audit retention job until
// SIGINT/SIGTERM, then drains the server.
func serveUntilSignal(ctx context.Context, server *bootstrap.HTTPServer, retention *service.AuditRetention, logger *slog.Logger) error {
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(server.Serve)
	g.Go(func() error { return retention.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.WithoutCancel(gctx))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// initInfrastructure connects the shared dependencies.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	db, err := bootstrap.ConnectDB(dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	redisClient, err := bootstrap.ConnectRedis(dbCfg)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database after redis connect failure", "error", cerr)
			err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return db, redisClient, nil
}
