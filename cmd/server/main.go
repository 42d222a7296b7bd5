package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/melody-camp/internal/config"
	"github.com/iliyamo/melody-camp/internal/database"
	"github.com/iliyamo/melody-camp/internal/handler"
	"github.com/iliyamo/melody-camp/internal/middleware"
	"github.com/iliyamo/melody-camp/internal/queue"
	"github.com/iliyamo/melody-camp/internal/repository"
	"github.com/iliyamo/melody-camp/internal/router"
	"github.com/iliyamo/melody-camp/internal/service"
	"github.com/iliyamo/melody-camp/internal/utils"
)

func logLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	}
	return log.INFO
}

func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Logger.SetPrefix("melody-camp")

	client, err := database.OpenMongo(cfg.MongoURI)
	if err != nil {
		e.Logger.Fatal(err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	e.Logger.Info("pinged document store")

	db := client.Database(cfg.MongoDB)
	ictx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureIndexes(ictx, db); err != nil {
		e.Logger.Fatal(err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	classes := repository.NewClassRepo(db)
	instructors := repository.NewInstructorRepo(db)
	tx := repository.NewTxRunner(client, cfg.MongoTransactions)

	bg, stopBg := context.WithCancel(context.Background())
	defer stopBg()

	var (
		events service.EventPublisher
		audit  handler.AuditLister
	)
	if cfg.AuditEnabled {
		ledger, err := openLedger(cfg)
		if err != nil {
			e.Logger.Fatal(err)
		}
		defer ledger.Close()
		auditRepo := repository.NewAuditRepo(ledger)
		audit = auditRepo
		events = service.NewAMQPPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartEnrollmentConsumer(bg, cfg.RabbitURL, auditRepo); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("enrollment consumer stopped: %v", err)
			}
		}()
	}

	userSvc := service.NewUserService(users, classes)
	catalogSvc := service.NewCatalogService(users, classes, instructors)
	enrollSvc := service.NewEnrollmentService(users, classes, tx, events)
	tokens := utils.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

	rdb := config.NewRedisClient()
	if rdb == nil {
		e.Logger.Warn("redis unreachable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
	}))

	router.Register(e, router.Deps{
		Tokens:     tokens,
		Roles:      userSvc,
		Auth:       handler.NewAuthHandler(tokens),
		Catalog:    handler.NewCatalogHandler(catalogSvc),
		Users:      handler.NewUserHandler(userSvc, enrollSvc),
		Instructor: handler.NewInstructorHandler(catalogSvc),
		Admin:      handler.NewAdminHandler(userSvc, audit),
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.InvalidateCache(cacheCfg, rdb),
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	stopBg()

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := e.Shutdown(sctx); err != nil {
		e.Logger.Error(err)
	}
}

func openLedger(cfg config.Config) (*sql.DB, error) {
	ledger, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.MigrateAudit(ctx, ledger); err != nil {
		_ = ledger.Close()
		return nil, err
	}
	return ledger, nil
}
