// Package server contains the HTTP handlers for the recipe API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "recipebox/docs" // swagger docs
	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/service"
	"recipebox/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "recipebox-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config            *config.Config
	db                *gorm.DB
	redis             *redis.Client
	app               *fiber.App
	promMiddleware    *fiberprometheus.FiberPrometheus
	images            *storage.LocalImageStore
	userService       *service.UserService
	authService       *service.AuthService
	recipeService     *service.RecipeService
	tagService        *service.AttributeService[models.Tag]
	ingredientService *service.AttributeService[models.Ingredient]
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and the bootstrap layer use it after establishing DB and Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	images := storage.NewLocalImageStore(cfg)

	return &Server{
		config:            cfg,
		db:                db,
		redis:             redisClient,
		promMiddleware:    middleware.InitMetrics(serviceName),
		images:            images,
		userService:       service.NewUserService(userRepo),
		authService:       service.NewAuthService(cfg, userRepo),
		recipeService:     service.NewRecipeService(repository.NewRecipeRepository(db), images),
		tagService:        service.NewTagService(repository.NewTagRepository(db)),
		ingredientService: service.NewIngredientService(repository.NewIngredientRepository(db)),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagates request, trace and user IDs into the request context for the logger.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Media files are fetched cross-origin by the web client.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
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
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.images != nil {
		app.Static(s.mediaPrefix(), s.images.Root(), fiber.Static{
			Browse:        false,
			CacheDuration: time.Hour,
		})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	user := api.Group("/user")
	user.Post("/create", middleware.RateLimit(s.redis, 10, 10*time.Minute, "user_create"), s.CreateUser)
	user.Post("/token", middleware.RateLimit(s.redis, 10, 5*time.Minute, "user_token"), s.CreateToken)
	user.Get("/me", s.AuthRequired(), s.GetMe)
	user.Put("/me", s.AuthRequired(), s.UpdateMe(false))
	user.Patch("/me", s.AuthRequired(), s.UpdateMe(true))
	user.Post("/logout", s.AuthRequired(), s.Logout)

	recipe := api.Group("/recipe", s.AuthRequired())

	recipes := recipe.Group("/recipes")
	recipes.Get("/", s.ListRecipes)
	recipes.Post("/", s.CreateRecipe)
	recipes.Get("/:id", s.GetRecipe)
	recipes.Put("/:id", s.UpdateRecipe(false))
	recipes.Patch("/:id", s.UpdateRecipe(true))
	recipes.Delete("/:id", s.DeleteRecipe)
	recipes.Post("/:id/upload-image", s.UploadRecipeImage)

	mountAttributeRoutes[models.Tag](recipe.Group("/tags"), s.tagService)
	mountAttributeRoutes[models.Ingredient](recipe.Group("/ingredients"), s.ingredientService)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the database and Redis state. Redis is optional:
// without it the API still serves requests, only revocation and rate limits
// are skipped.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// AuthRequired resolves the bearer token to an active user and stores the
// user ID in locals. The verified token identity is kept for logout.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := middleware.BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authentication credentials were not provided."))
		}

		user, ident, err := s.authService.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, mapServiceError(c, err), err)
		}

		middleware.SetCurrentUser(c, user.ID)
		c.Locals(identityLocal, ident)
		return c.Next()
	}
}

// App builds the Fiber application with middleware and routes on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimitMB := storage.DefaultImageMaxUploadSizeMB
	if s.config != nil && s.config.ImageMaxUploadSizeMB > 0 {
		bodyLimitMB = s.config.ImageMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName: "Recipe API",
		// Multipart overhead on top of the largest accepted image.
		BodyLimit:    (bodyLimitMB + 1) * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
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

func (s *Server) mediaPrefix() string {
	if s.config != nil && s.config.MediaURLPrefix != "" {
		return s.config.MediaURLPrefix
	}
	return storage.DefaultMediaURLPrefix
}

// errorHandler answers errors that escaped a handler. Routing errors keep
// their status; anything else is a STORE_FAILURE.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := models.CodeStoreFailure
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = models.CodeFieldValidation
		}
		if fiberErr.Code < fiber.StatusInternalServerError {
			return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message, Code: code})
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewStoreError(err))
}
