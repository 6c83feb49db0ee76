package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/iliyamo/campus-housing/internal/config"
	"github.com/iliyamo/campus-housing/internal/database"
	"github.com/iliyamo/campus-housing/internal/handler"
	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/notification"
	"github.com/iliyamo/campus-housing/internal/queue"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/router"
	"github.com/iliyamo/campus-housing/internal/service"
	"github.com/iliyamo/campus-housing/internal/storage"
	"github.com/iliyamo/campus-housing/internal/utils"
)

func main() {
	utils.InitLogger("housing-api")
	config.LoadDotEnv()
	cfg := config.Load()
	log := utils.Logger

	db, err := database.Open(database.Options{
		User:         cfg.DBUser,
		Pass:         cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	if cfg.Env != "prod" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("migrate failed")
		}
		log.WithField("statements", n).Info("schema up to date")
	}

	files, err := storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	if err != nil {
		log.WithError(err).Fatal("upload dir unavailable")
	}
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	props := repository.NewPropertyRepo(db)
	rooms := repository.NewRoomRepo(db)
	requests := repository.NewRentalRequestRepo(db)

	// Services
	notes := notification.NewCenter(notification.DefaultLimit)
	publisher := service.NewRabbitPublisher(cfg.RabbitURL)
	propertySvc := service.NewPropertyService(props, rooms, requests, files, notes)
	rentalSvc := service.NewRentalService(requests, props, profiles, notes, publisher)
	accountSvc := service.NewAccountService(profiles, users)
	cleanup := service.NewTokenCleanupService(tokens, 24*time.Hour)

	handler.RequestTimeout = cfg.RequestTimeout

	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.BodyLimit("64M"))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Static("/uploads", files.Root())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(propertySvc), middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterAccount(e,
		handler.NewAccountHandler(profiles, accountSvc),
		handler.NewNotificationHandler(rentalSvc, notes),
		cfg.JWTSecret)
	router.RegisterStudent(e, handler.NewStudentHandler(rentalSvc), cfg.JWTSecret)

	var purger handler.Purger
	if p := middleware.NewCachePurger(cacheCfg, rdb); p != nil {
		purger = p
	}
	router.RegisterLandlord(e,
		handler.NewLandlordHandler(propertySvc, rentalSvc, purger, cfg.MaxUploadBytes),
		cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartRentalEventConsumer(ctx, cfg.RabbitURL, queue.DefaultLogPath); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("rental event consumer stopped")
			}
		}()
	}

	var sched *cron.Cron
	if cfg.TokenCleanupCron != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(cfg.TokenCleanupCron, cleanup.CleanupDaily); err != nil {
			log.WithError(err).Fatal("invalid TOKEN_CLEANUP_CRON")
		}
		sched.Start()
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
	}).Handler(e)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", srv.Addr).WithField("env", cfg.Env).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if sched != nil {
		<-sched.Stop().Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
