package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/database"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/handler"
	"github.com/noah-isme/scholar-ledger-api/internal/middleware"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
	"github.com/noah-isme/scholar-ledger-api/internal/router"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, ranking cache disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not set, domain events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := events.NewNATSPublisher(natsConn, cfg.EventSubjectBase)
	rankings := service.NewRankingCache(redisClient, cfg.RankingCacheTTL, logger)

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	feeRepo := repository.NewFeeHeadRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	settingsService := service.NewSettingsService(settingsRepo, service.SettingsDefaults{
		SchoolName: cfg.SchoolName,
		Session:    cfg.DefaultSession,
		Term:       cfg.DefaultTerm,
	}, validate, activityService, logger)
	rosterService := service.NewRosterService(classRepo, studentRepo, settingsService, rankings, publisher, validate, activityService, logger)
	scoreService := service.NewScoreService(scoreRepo, studentRepo, classRepo, settingsService, rankings, publisher, cfg.ScoreLimits, validate, activityService, logger)
	reportService := service.NewReportService(scoreRepo, studentRepo, classRepo, settingsService, rankings, cfg.TiePolicy, logger)
	bursaryService := service.NewBursaryService(feeRepo, paymentRepo, studentRepo, classRepo, settingsService, publisher, validate, activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedCORSOrigin})
	router.Register(app, cfg, router.Dependencies{
		SettingsHandler: handler.NewSettingsHandler(settingsService, logger),
		ClassHandler:    handler.NewClassHandler(rosterService, logger),
		StudentHandler:  handler.NewStudentHandler(rosterService, logger),
		ScoreHandler:    handler.NewScoreHandler(scoreService, logger),
		ReportHandler:   handler.NewReportHandler(reportService, logger),
		BursaryHandler:  handler.NewBursaryHandler(bursaryService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
		HealthChecks:    healthChecks(db, redisClient, natsConn),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.HealthDependency {
	checks := []handler.HealthDependency{{
		Name: "database",
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		checks = append(checks, handler.HealthDependency{
			Name: "ranking_cache",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	if natsConn != nil {
		checks = append(checks, handler.HealthDependency{
			Name: "events",
			Ping: func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("nats " + natsConn.Status().String())
				}
				return nil
			},
		})
	}
	return checks
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
