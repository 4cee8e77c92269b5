package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/hearthschool/goaltrack/internal/adapters/cache"
	adapterHTTP "github.com/hearthschool/goaltrack/internal/adapters/handler/http"
	"github.com/hearthschool/goaltrack/internal/adapters/repository"
	"github.com/hearthschool/goaltrack/internal/config"
	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/schedule"
	"github.com/hearthschool/goaltrack/internal/core/services"
	"github.com/hearthschool/goaltrack/internal/core/workers"
	"github.com/hearthschool/goaltrack/internal/logger"
)

func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, cfg.Environment)

	loc, err := schedule.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Log.WithError(err).Fatalf("Invalid TIMEZONE %q", cfg.Timezone)
	}
	weekStartDay := time.Weekday(cfg.WeekStartDay)

	logger.Log.Info("Connecting to database...")

	db, err := sqlx.Connect("pgx", cfg.DatabaseDSN())
	if err != nil {
		logger.Log.WithError(err).Fatal("Critical: Failed to connect to database")
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Log.Info("Database connected successfully.")

	redisClient, err := cache.NewRedisClient(cache.Options{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, running without cache and rate limiting")
		redisClient = nil
	}

	var goalRepo domain.GoalRepository = repository.NewPostgresGoalRepository(db)
	if redisClient != nil {
		goalRepo = repository.NewCachedGoalRepository(goalRepo, redisClient)
	}
	instanceRepo := repository.NewPostgresInstanceRepository(db)
	activityRepo := repository.NewPostgresActivityRepository(db)
	personRepo := repository.NewPostgresPersonRepository(db.DB)

	auditWorker := workers.NewDayAuditWorker(goalRepo, instanceRepo, loc, !cfg.AllowMultipleRecordsPerDay)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	auditWorker.Start(workerCtx)

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour)
	goalService := services.NewGoalService(goalRepo, activityRepo)
	activityService := services.NewActivityService(activityRepo)
	personService := services.NewPersonService(personRepo)
	recordService := services.NewRecordService(instanceRepo, goalRepo, auditWorker, loc, cfg.AllowMultipleRecordsPerDay)
	progressService := services.NewProgressService(goalRepo, activityRepo, instanceRepo, loc, weekStartDay)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		GoalHandler:     adapterHTTP.NewGoalHandler(goalService),
		ActivityHandler: adapterHTTP.NewActivityHandler(activityService),
		PersonHandler:   adapterHTTP.NewPersonHandler(personService),
		InstanceHandler: adapterHTTP.NewInstanceHandler(recordService),
		ProgressHandler: adapterHTTP.NewProgressHandler(progressService),
		TokenService:    tokenService,
		DB:              db,
		Redis:           redisClient,
		StartTime:       startTime,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.Infof("Goaltrack API running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Critical server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Stop signal received. Shutting down...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Fatal("Forced shutdown error")
	}

	logger.Log.Info("Server stopped gracefully.")
}
