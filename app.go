package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skintracker/internal/cache"
	"skintracker/internal/config"
	"skintracker/internal/handlers"
	"skintracker/internal/mailer"
	"skintracker/internal/metrics"
	"skintracker/internal/middleware"
	"skintracker/internal/render"
	"skintracker/internal/repositories"
	"skintracker/internal/services"
	"skintracker/internal/skinsource"
)

// Services bundles the business layer the HTTP routes are built on.
type Services struct {
	Auth        *services.AuthService
	Accounts    *services.AccountService
	Skins       *services.SkinService
	Memberships *services.MembershipService
	Loadouts    *services.LoadoutService
	Sync        *services.SyncService
}

// newServices wires repositories and services on top of an open database.
func newServices(cfg config.Config, db *gorm.DB, pages cache.PageCache, mail mailer.Sender, logger *zap.Logger) Services {
	userRepo := repositories.NewGORMUserRepository(db)
	tokenRepo := repositories.NewGORMTokenRepository(db)
	skinRepo := repositories.NewGORMSkinRepository(db)
	memberRepo := repositories.NewGORMMembershipRepository(db)
	loadoutRepo := repositories.NewGORMLoadoutRepository(db)

	auth := services.NewAuthService(userRepo, tokenRepo, mail, services.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		BaseURL:    cfg.AppBaseURL,
	}, logger)

	recordSync := func(stats services.SyncStats, err error) {
		metrics.RecordSync(stats.New, stats.Updated, stats.Skipped, stats.Elapsed(), err)
	}

	return Services{
		Auth:        auth,
		Accounts:    services.NewAccountService(userRepo, auth, pages, logger),
		Skins:       services.NewSkinService(skinRepo, memberRepo, pages, cfg.CacheTTL, logger),
		Memberships: services.NewMembershipService(memberRepo, skinRepo, pages, cfg.CacheTTL, logger),
		Loadouts: services.NewLoadoutService(loadoutRepo, skinRepo,
			render.NewRenderer(render.NewHTTPFetcher(cfg.SkinAPITimeout), logger), logger),
		Sync: services.NewSyncService(skinsource.NewClient(cfg.SkinAPIBaseURL, cfg.SkinAPITimeout), skinRepo, recordSync, logger),
	}
}

// NewApp builds the Fiber application with middleware and every route.
func NewApp(cfg config.Config, db *gorm.DB, svc Services, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "skintracker",
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AppBaseURL,
		AllowCredentials: true,
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if err := ping(c.UserContext(), db); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	secure := cfg.IsProduction()
	auth := middleware.AuthRequired(svc.Auth, logger)

	var authGuards []fiber.Handler
	if cfg.AuthRateLimit > 0 {
		authGuards = append(authGuards, limiter.New(limiter.Config{
			Max:        cfg.AuthRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}))
	}

	handlers.NewAuthHandler(svc.Auth, logger, secure).RegisterRoutes(app, authGuards...)
	handlers.NewUserHandler(svc.Accounts, logger, secure).RegisterRoutes(app, auth)
	handlers.NewSkinHandler(svc.Skins, logger).RegisterRoutes(app, middleware.OptionalAuth(svc.Auth))
	handlers.NewMembershipHandler(svc.Memberships, logger).RegisterRoutes(app, auth)
	handlers.NewLoadoutHandler(svc.Loadouts, logger).RegisterRoutes(app, auth)
	handlers.NewSyncHandler(svc.Sync, logger).RegisterRoutes(app, middleware.SyncSecret(cfg.CronSecret, logger))

	return app
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// errorHandler answers unrouted and panicking requests in the API's JSON shape.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
