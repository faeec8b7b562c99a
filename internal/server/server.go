// Package server contains the HTTP handlers and wiring for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/gateway"
	"murmur/internal/middleware"
	"murmur/internal/oauth"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SessionCookie is the http-only cookie carrying the session ID.
const SessionCookie = "murmur_session"

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	provider       oauth.Provider

	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	noteRepo    repository.NoteRepository
	sessionRepo repository.SessionRepository

	authService    *service.AuthService
	userService    *service.UserService
	messageService *service.MessageService
	noteService    *service.NoteService

	responseCache *cache.ResponseCache
	gateway       *gateway.Gateway
}

// NewServer creates a server instance, establishing its own database and
// Redis connections.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	provider := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	return NewServerWithDeps(cfg, db, redisClient, provider)
}

// NewServerWithDeps creates a Server using already-initialized
// dependencies. Tests use it with an in-memory database, miniredis, and
// a stub provider.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, provider oauth.Provider) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	prom := middleware.InitMetrics("murmur-api")

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		provider:       provider,
		userRepo:       userRepo,
		messageRepo:    messageRepo,
		noteRepo:       noteRepo,
		sessionRepo:    sessionRepo,
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	s.authService = service.NewAuthService(userRepo, sessionRepo, sessionTTL)
	s.userService = service.NewUserService(userRepo)
	s.messageService = service.NewMessageService(messageRepo, userRepo)
	s.noteService = service.NewNoteService(noteRepo)

	s.responseCache = cache.NewResponseCache(redisClient, cachePolicies())
	s.gateway = gateway.New(cfg.Env, s.responseCache)
	s.registerOperations()

	if cfg.PersistedOpsPath != "" {
		if err := s.gateway.LoadPersistedOperations(cfg.PersistedOpsPath); err != nil {
			if cfg.IsProduction() {
				return nil, err
			}
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("persisted operations not loaded", "error", err)
			}
		}
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(s.SessionMiddleware())
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Murmur Backend Metrics Dashboard",
	}))

	// Browser login flow
	app.Get("/login/google", s.GoogleLogin)
	app.Get("/login/google/callback", s.GoogleCallback)
	app.Post("/logout", s.Logout)

	// Password auth
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// The operation gateway is the single API surface for domain reads
	// and writes.
	api.Get("/operations", s.ExecuteOperation)
	api.Post("/operations", middleware.RateLimit(
		s.redis, 60, time.Minute, "operations"), s.ExecuteOperation)
}

// SessionMiddleware resolves the session cookie to a user and stores it
// in request locals. Requests without a valid session proceed as
// anonymous.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookie)
		if sessionID == "" {
			return c.Next()
		}

		user, err := s.authService.ValidateSession(c.UserContext(), sessionID)
		if err != nil {
			slog.Warn("session validation failed", "error", err)
			return c.Next()
		}
		if user == nil {
			return c.Next()
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.Locals("sessionID", sessionID)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID))
		return c.Next()
	}
}

// Shutdown releases server-held resources. The Fiber app itself is shut
// down by the caller before this runs.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The database must be
// reachable; Redis is reported but the cache is optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": map[string]string{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
