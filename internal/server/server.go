// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"devlink/internal/cache"
	"devlink/internal/config"
	"devlink/internal/database"
	"devlink/internal/github"
	"devlink/internal/middleware"
	"devlink/internal/models"
	"devlink/internal/repository"
	"devlink/internal/token"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	cache          *cache.Cache
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *token.Service
	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	postRepo       repository.PostRepository
	github         *github.Client
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	c := cache.New(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, c)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, c *cache.Cache) (*Server, error) {
	tokens, err := token.NewService(cfg.JWTSecret, cfg.JWTExpirySeconds)
	if err != nil {
		return nil, fmt.Errorf("token service init failed: %w", err)
	}

	prom := middleware.InitMetrics("devlink-api")

	return &Server{
		config:         cfg,
		db:             db,
		cache:          c,
		promMiddleware: prom,
		tokens:         tokens,
		userRepo:       repository.NewUserRepository(db, c),
		profileRepo:    repository.NewProfileRepository(db, c),
		postRepo:       repository.NewPostRepository(db),
		github:         github.NewClient(cfg.GithubAPIURL, cfg.GithubClientID, cfg.GithubSecret),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing before logging so trace IDs land in log records
	app.Use(middleware.TracingMiddleware())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS before middlewares that can short-circuit so browser clients
	// still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	auth := s.AuthRequired()
	rdb := s.cache.Client()

	// Registration and session
	api.Post("/users", middleware.RateLimit(rdb, 3, 10*time.Minute, "register"), s.Register)
	api.Post("/auth", middleware.RateLimit(rdb, 10, 5*time.Minute, "login"), s.Login)
	api.Get("/auth", auth, s.GetCurrentUser)

	// Profiles. Specific /profile sub-routes are declared before the
	// generic /profile/:userId route.
	api.Get("/profile/me", auth, s.GetMyProfile)
	api.Get("/profile/github/:username", s.GetGithubRepos)
	api.Get("/profile", s.ListProfiles)
	api.Post("/profile", auth, s.UpsertProfile)
	api.Delete("/profile", auth, s.DeleteAccount)
	api.Put("/profile/experience", auth, s.AddExperience)
	api.Delete("/profile/experience/:id", auth, s.RemoveExperience)
	api.Put("/profile/education", auth, s.AddEducation)
	api.Delete("/profile/education/:id", auth, s.RemoveEducation)
	api.Get("/profile/:userId", s.GetProfileByUserID)

	// Posts
	api.Get("/posts", auth, s.GetPosts)
	api.Post("/posts", auth, s.CreatePost)
	api.Put("/posts/like/:id", auth, s.LikePost)
	api.Put("/posts/unlike/:id", auth, s.UnlikePost)
	api.Post("/posts/:id/comment", auth, s.AddComment)
	api.Delete("/posts/:id/comment/:commentId", auth, s.RemoveComment)
	api.Get("/posts/:id", auth, s.GetPost)
	api.Delete("/posts/:id", auth, s.DeletePost)
}

// AuthRequired returns the authorization gate middleware. Missing or
// malformed credentials are 401; a credential the token service rejects
// (expired or bad signature) is 403.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("No token specified."))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token bad formated."))
		}
		if !strings.EqualFold(parts[0], "Bearer") {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token not valid."))
		}

		userID, err := s.tokens.Verify(parts[1])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Token expired or not valid."))
		}

		// Store user ID in locals and sync to the request context for
		// logging and downstream layers.
		c.Locals("userID", userID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// parseID reads a numeric route parameter. A malformed identifier cannot
// match any record, so it is normalized to the same not-found response.
func (s *Server) parseID(c *fiber.Ctx, param, notFoundMsg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(notFoundMsg))
		return 0, false
	}
	return uint(id), true
}

// respondAppError maps a repository error onto the matching HTTP status.
func respondAppError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if appErr, ok := err.(*models.AppError); ok {
		switch appErr.Code {
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusUnauthorized
		case "FORBIDDEN":
			status = fiber.StatusForbidden
		case "CONFLICT":
			status = fiber.StatusConflict
		}
	}
	return models.RespondWithError(c, status, err)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
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
	if rdb := s.cache.Client(); rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The cache is optional; report its absence without failing readiness.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// ErrorHandler is the Fiber app-level error handler for errors that escape
// the handlers, including the router's own 404/405 responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return models.RespondWithError(c, fiberErr.Code, taxonomize(fiberErr))
	}
	log.Printf("unhandled error: %v", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// taxonomize maps an escaped fiber error onto the application error codes.
func taxonomize(e *fiber.Error) *models.AppError {
	switch {
	case e.Code == fiber.StatusNotFound:
		return models.NewNotFoundError(e.Message)
	case e.Code == fiber.StatusUnauthorized:
		return models.NewUnauthorizedError(e.Message)
	case e.Code == fiber.StatusForbidden:
		return models.NewForbiddenError(e.Message)
	case e.Code == fiber.StatusConflict:
		return models.NewConflictError(e.Message)
	case e.Code >= fiber.StatusInternalServerError:
		return models.NewInternalError(e)
	default:
		return models.NewValidationError(e.Message)
	}
}

// Shutdown releases server resources after the HTTP listener has stopped.
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if err := s.cache.Close(); err != nil {
		log.Printf("error closing redis: %v", err)
	}

	log.Println("Server shutdown complete")
	return nil
}
