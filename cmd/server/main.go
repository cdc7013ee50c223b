package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/config"
	"github.com/coworkdir/admin-api/internal/database"
	"github.com/coworkdir/admin-api/internal/handler"
	"github.com/coworkdir/admin-api/internal/logging"
	"github.com/coworkdir/admin-api/internal/mailer"
	"github.com/coworkdir/admin-api/internal/middleware"
	"github.com/coworkdir/admin-api/internal/queue"
	"github.com/coworkdir/admin-api/internal/repository"
	"github.com/coworkdir/admin-api/internal/router"
	"github.com/coworkdir/admin-api/internal/service"
	"github.com/coworkdir/admin-api/internal/storage"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(db, logging.Printf{L: log.Sugar()}); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	// ---- Repositories ----
	var ids repository.IDGenerator = repository.NewScanGenerator(db)
	if cfg.IDStrategy == config.IDStrategyCounter {
		ids = repository.NewCounterGenerator(db)
	}
	spaces := repository.NewSpaceRepo(db, ids)
	leads := repository.NewLeadRepo(db, ids)
	locations := repository.NewLocationRepo(db)
	users := repository.NewUserRepo(db)

	// ---- Infrastructure ----
	var blobs storage.BlobStore
	switch st, err := storage.New(cfg.Storage); {
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn("object storage not configured: uploads disabled")
	case err != nil:
		return fmt.Errorf("storage: %w", err)
	default:
		blobs = st
	}

	cacheCfg := config.LoadCacheConfig()
	var purger service.Purger
	if p := middleware.NewCachePurger(cacheCfg, rdb); p != nil {
		purger = p
	}

	pub := notifications(ctx, cfg, log)

	// ---- Services and handlers ----
	authSvc := service.NewAuthService(users, repository.NewResetTokenRepo(db), pub, service.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		AccessTTLMin: cfg.AccessTTLMin,
		BcryptCost:   cfg.BcryptCost,
		FrontendURL:  cfg.FrontendURL,
	}, log)

	h := router.Handlers{
		Health:    handler.Health(db),
		Auth:      handler.NewAuthHandler(authSvc),
		Spaces:    handler.NewSpaceHandler(service.NewSpaceService(spaces, locations, log)),
		Leads:     handler.NewLeadHandler(service.NewLeadService(leads, pub, log)),
		Locations: handler.NewLocationHandler(service.NewLocationService(locations, spaces, purger, log)),
		Uploads:   handler.NewUploadHandler(service.NewUploadService(blobs, cfg.Upload, log)),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(repository.NewDashboardRepo(db), leads, locations)),
	}

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log, cfg.IsProduction())

	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(log))
	e.Use(echomw.Recover())
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderXRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.Register(e, h, router.Middleware{
		Auth:      middleware.JWTAuth(authSvc),
		AuthLimit: middleware.NewTokenBucket(config.LoadAuthRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(cacheCfg, rdb, log),
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// notifications picks the mail sender and the event transport.  With a
// queue configured, events go through RabbitMQ and a consumer goroutine
// mails them; otherwise the notifier runs inline.
func notifications(ctx context.Context, cfg config.Config, log *zap.Logger) queue.Publisher {
	var sender mailer.Sender = mailer.LogSender{Log: log}
	if cfg.Mail.Enabled {
		sender = mailer.NewSMTPSender(cfg.Mail)
	}
	notifier := mailer.NewNotifier(sender, cfg.Mail.AdminEmail, log)

	if !cfg.Queue.Enabled {
		return queue.NewDirectPublisher(notifier)
	}

	consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, notifier, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notification consumer stopped", zap.Error(err))
		}
	}()
	return queue.NewAMQPPublisher(cfg.Queue.URL, cfg.Queue.Name, log)
}
