package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"skintracker/internal/cache"
	"skintracker/internal/config"
	"skintracker/internal/logger"
	"skintracker/internal/mailer"
	"skintracker/internal/repositories"
	"skintracker/internal/scheduler"
	"skintracker/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	gormLevel := gormlogger.Warn
	if strings.EqualFold(cfg.LogLevel, "debug") {
		gormLevel = gormlogger.Info
	}
	db, err := repositories.Open(cfg.DBDriver, cfg.DatabaseDSN, logger.NewGormLogger(zlog, gormLevel))
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repositories.Migrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	// --- Page cache ---
	var pages cache.PageCache = cache.NewMemoryCache()
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, zlog)
		if err != nil {
			zlog.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		pages = redisCache
	}

	// --- Mail delivery ---
	var delivery mailer.Sender = mailer.NewLogSender(zlog)
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			zlog.Fatal("Failed to configure SMTP", zap.Error(err))
		}
		delivery = smtp
	}

	mail := delivery
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.MailQueue}, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mq.Close()
		if err := mq.Consume(mailer.Handler(ctx, delivery)); err != nil {
			zlog.Fatal("Failed to start mail consumer", zap.Error(err))
		}
		mail = mailer.NewQueueSender(mq)
	}

	svc := newServices(cfg, db, pages, mail, zlog)
	app := NewApp(cfg, db, svc, zlog)

	// --- Scheduled catalog sync ---
	var sched *scheduler.Scheduler
	if cfg.SyncSchedule != "" {
		sched = scheduler.New(10*time.Minute, zlog)
		err := sched.Add("skin-sync", cfg.SyncSchedule, func(ctx context.Context) error {
			_, err := svc.Sync.Run(ctx)
			return err
		})
		if err != nil {
			zlog.Fatal("Invalid SYNC_SCHEDULE", zap.Error(err))
		}
		sched.Start()
	}

	go func() {
		zlog.Info("Starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := app.Listen(cfg.AppPort); err != nil {
			zlog.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("Error during Fiber shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	zlog.Info("Server gracefully stopped")
}
