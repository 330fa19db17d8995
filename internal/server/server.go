// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "socialpost/docs" // swagger docs
	"socialpost/internal/auth"
	"socialpost/internal/cache"
	"socialpost/internal/config"
	"socialpost/internal/database"
	"socialpost/internal/featureflags"
	"socialpost/internal/middleware"
	"socialpost/internal/models"
	"socialpost/internal/notifications"
	"socialpost/internal/repository"
	"socialpost/internal/seed"
	"socialpost/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "socialpost-api"

// Readiness deadlines stay under typical orchestrator probe timeouts.
const (
	readinessTimeout = 2 * time.Second
	redisPingTimeout = 1500 * time.Millisecond
)

// Server holds all dependencies and provides handlers
type Server struct {
	config        *config.Config
	db            *gorm.DB
	redis         *redis.Client
	app           *fiber.App
	authn         middleware.TokenAuthenticator
	limiter       *middleware.RateLimiter
	effects       *notifications.Dispatcher
	featureFlags  *featureflags.Flags
	authService   *service.AuthService
	userService   *service.UserService
	relationships *service.RelationshipService
	notifications *service.NotificationService
	messaging     *service.MessagingService
	unread        *service.UnreadService
	postService   *service.PostService
}

// NewServer connects to the database and Redis and builds a Server around them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client leaves revocation, publishing and per-route limits degraded but running.
	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL())
	revocations := auth.NewRevocations(redisClient)

	s := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		authn:        auth.NewAuthenticator(issuer, revocations, middleware.Logger),
		limiter:      middleware.NewRateLimiter(redisClient, cfg.Env),
		effects:      notifications.NewDispatcher(cfg.NotificationTimeout()),
		featureFlags: featureflags.Parse(cfg.FeatureFlags),
	}

	var publisher service.EventPublisher
	if redisClient != nil {
		publisher = notifications.NewNotifier(redisClient)
	}

	s.notifications = service.NewNotificationService(notificationRepo, publisher)
	s.relationships = service.NewRelationshipService(followRepo, userRepo, s.notifications, s.effects)
	s.messaging = service.NewMessagingService(chatRepo, userRepo, s.relationships)
	s.unread = service.NewUnreadService(s.notifications, s.messaging)
	s.authService = service.NewAuthService(userRepo, issuer, revocations)
	s.userService = service.NewUserService(userRepo, followRepo)
	s.postService = service.NewPostService(
		postRepo, commentRepo, followRepo, userRepo,
		s.notifications, s.effects, s.featureFlags,
	)

	return s, nil
}

// SeedServices exposes the service layer so seeded data goes through the same rules as requests.
func (s *Server) SeedServices() seed.Services {
	return seed.Services{
		Auth:          s.authService,
		Relationships: s.relationships,
		Messaging:     s.messaging,
		Posts:         s.postService,
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request and user identifiers into the request context
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus metrics, also serves /metrics
	middleware.InitMetrics(app, serviceName)

	// Security headers
	app.Use(helmet.New())

	// Structured logging after requestid and context middleware
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses keep their headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
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
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	api.Get("/test", s.TestRoute)

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "socialpost Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	authRoutes.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)

	// Everything registered below requires a bearer token
	protected := api.Group("", middleware.AuthRequired(s.authn))

	protected.Post("/auth/logout", s.Logout)
	protected.Get("/unread", s.GetUnreadCounts)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	// User routes, specific paths before /:userId
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/current/user", s.GetMyProfile)
	users.Put("/profile", s.UpdateMyProfile)
	users.Put("/update", s.UpdateMyProfile)
	users.Get("/search/query/:query", s.SearchUsers)
	users.Get("/search", s.SearchUsers)
	users.Get("/", s.ListUsers)
	users.Get("/:userId/stats", s.GetRelationshipStats)
	users.Get("/:userId/followers", s.GetFollowers)
	users.Get("/:userId/following", s.GetFollowing)
	users.Get("/:userId/relationship", s.GetRelationship)
	users.Post("/:userId/follow", s.limiter.Limit("follow", 60, time.Minute, middleware.FailOpen), s.ToggleFollow)
	users.Get("/:userId", s.GetUser)

	// Post routes
	posts := protected.Group("/posts")
	posts.Get("/", s.GetFeed)
	posts.Post("/", s.limiter.Limit("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Get("/user/:userId", s.GetUserPosts)
	posts.Post("/:postId/like", s.LikePost)
	posts.Post("/:postId/unlike", s.UnlikePost)
	posts.Delete("/:postId/like", s.UnlikePost)
	posts.Post("/:postId/comments", s.limiter.Limit("create_comment", 20, time.Minute, middleware.FailOpen), s.AddComment)
	posts.Delete("/:postId/comments/:commentId", s.DeleteComment)
	posts.Get("/:postId", s.GetPost)
	posts.Delete("/:postId", s.DeletePost)

	// Message routes
	messages := protected.Group("/messages")
	messages.Get("/", s.GetConversations)
	messages.Get("/unread/count", s.GetUnreadMessageCount)
	messages.Post("/", s.limiter.Limit("send_message", 30, time.Minute, middleware.FailClosed), s.SendMessage)
	messages.Get("/:userId", s.OpenConversation)
	messages.Delete("/:messageId", s.DeleteMessage)

	// Notification routes
	notificationRoutes := protected.Group("/notifications")
	notificationRoutes.Get("/", s.GetNotifications)
	notificationRoutes.Get("/unread/count", s.GetUnreadNotificationCount)
	notificationRoutes.Put("/read-all", s.MarkAllNotificationsRead)
	notificationRoutes.Put("/:notificationId/read", s.MarkNotificationRead)
	notificationRoutes.Delete("/:notificationId", s.DeleteNotification)
}

// TestRoute handles GET /api/test
func (s *Server) TestRoute(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Backend is working"})
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
	dbCtx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(dbCtx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else {
		redisCtx, cancelRedis := context.WithTimeout(c.UserContext(), redisPingTimeout)
		defer cancelRedis()
		if err := s.redis.Ping(redisCtx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
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

// NewApp builds the Fiber app with the shared error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   serviceName,
		BodyLimit: s.config.BodyLimitMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, drains side effects and closes connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	drained := make(chan struct{})
	go func() {
		s.effects.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		middleware.Logger.Warn("side effects still running at shutdown")
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
