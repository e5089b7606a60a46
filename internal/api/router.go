package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/habitkit/identity-service/internal/api/handler"
	"github.com/habitkit/identity-service/internal/api/middleware"
	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
	"github.com/habitkit/identity-service/internal/core/service"
	"github.com/habitkit/identity-service/internal/infrastructure/config"
	mongodb "github.com/habitkit/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/habitkit/identity-service/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	cfg *config.Config,
	sender ports.EmailSender,
	storage ports.ObjectStorage,
	tasks ports.TaskRunner,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	dataRepos := mongodb.NewUserDataRepositories(db)
	deviceRepo := mongodb.NewDeviceRepository(db)
	mediaRepo := mongodb.NewMediaAssetRepository(db)

	revocation := redisdb.NewRevocationStore(rdb)
	codes := redisdb.NewVerificationCodeStore(rdb, cfg.Code.TTL)

	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		TTL:    cfg.Token.TTL,
	}, userRepo, revocation, log)
	perms := service.NewPermissionService()
	auth := service.NewAuthService(service.AuthServiceDeps{
		Users:   userRepo,
		Data:    dataRepos,
		Devices: deviceRepo,
		Media:   mediaRepo,
		Tokens:  tokens,
		Codes:   codes,
		Perms:   perms,
		Email:   sender,
		Storage: storage,
		Tasks:   tasks,
		Logger:  log,
	})

	authHandler := handler.NewAuthHandler(auth)
	requireAuth := middleware.Auth(tokens)
	optionalAuth := middleware.OptionalAuth(tokens)

	// --- Auth routes ---
	e.POST("/auth/signin/initiate", authHandler.InitiateSignIn)
	e.POST("/auth/signin/complete", authHandler.CompleteSignIn, optionalAuth)
	e.POST("/auth/anonymous", authHandler.SignInAnonymously)
	e.POST("/auth/signout", authHandler.SignOut, requireAuth)
	e.DELETE("/auth/account", authHandler.DeleteAccount, requireAuth)
	e.POST("/auth/email/initiate", authHandler.InitiateEmailUpdate, requireAuth)
	e.POST("/auth/email/complete", authHandler.CompleteEmailUpdate, requireAuth)

	// --- Admin routes (dashboard operators only) ---
	adminHandler := handler.NewAdminHandler(userRepo)
	admin := e.Group("/admin", requireAuth, middleware.RequirePermission(perms, domain.PermissionManageUsers))
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PUT("/users/:id/role", adminHandler.UpdateRole)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
