package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"storefront-service/internal/cache"
	"storefront-service/internal/clients"
	"storefront-service/internal/config"
	"storefront-service/internal/events"
	"storefront-service/internal/handlers"
	"storefront-service/internal/middleware"
	"storefront-service/internal/services"
	"storefront-service/internal/workers"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Storefront Session API
// @version 1.0.0
// @description Keeps each shopper's cart, review panel and login state in sync with the storefront API

// @host localhost:8095
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
	entry := logrus.NewEntry(logger).WithField("service", "storefront-service")

	// Initialize Redis client for the product cache
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("Failed to parse Redis URL, using localhost:6379")
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	if cfg.RedisPassword != "" {
		redisOpts.Password = cfg.RedisPassword
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Failed to connect to Redis (product caching disabled)")
		_ = redisClient.Close()
		redisClient = nil
	} else {
		logger.Info("✓ Redis connected successfully")
	}
	cancel()

	productCache := cache.NewProductCache(redisClient, cfg.ProductCacheTTL)
	logger.WithField("enabled", productCache.IsAvailable()).Info("Product cache initialized")

	// Storefront API client
	storefrontClient := clients.NewStorefrontClient(clients.Config{
		BaseURL:   cfg.StorefrontAPIURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     cfg.APIRateBurst,
	}, productCache, entry)

	registry := services.NewStorefrontRegistry(storefrontClient, cfg.ReviewPageSize, entry)

	// Idle browser sessions
	sessionWorker := workers.NewSessionExpirationWorker(registry, cfg.SessionSweepInterval, cfg.SessionIdleTimeout, logger)
	sessionWorker.Start()

	// Product events keep the product cache fresh, only if NATS_URL is set
	var productSubscriber *events.ProductSubscriber
	if cfg.NATSURL != "" {
		productSubscriber, err = events.NewProductSubscriber(cfg.NATSURL, storefrontClient, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize product subscriber (cached products expire by TTL only)")
		} else if err := productSubscriber.Start(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to start product subscriber")
		} else {
			logger.Info("✓ Product event subscriber started")
			// Changes made while the service was down were never delivered
			if err := productCache.InvalidateAll(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to flush product cache")
			}
		}
	} else {
		logger.Info("NATS_URL not set, skipping product event subscription")
	}

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.IsProduction() {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("storefront-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("storefront-service"))
	}
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize tracing (continuing without tracing)")
	} else {
		logger.Info("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "storefront_service")

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(redisClient)
	sessionHandler := handlers.NewSessionHandler(cfg.SessionCookieSecure, entry)
	cartHandler := handlers.NewCartHandler()
	productHandler := handlers.NewProductHandler()
	reviewHandler := handlers.NewReviewHandler()
	streamHandler := handlers.NewStreamHandler(handlers.DefaultHeartbeatInterval, entry)

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("storefront-service"))
	router.Use(gosharedmw.SecurityHeaders())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Rate limiting middleware (uses Redis for distributed rate limiting)
	if redisClient != nil {
		router.Use(gosharedmw.RedisRateLimitMiddlewareWithProfile(redisClient, "standard"))
	} else {
		router.Use(gosharedmw.RateLimit())
	}

	// Health check endpoints
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")
	api.Use(middleware.Session(registry, cfg.SessionCookieSecure))
	api.Use(middleware.TokenLogin(entry))
	{
		session := api.Group("/session")
		{
			session.GET("", sessionHandler.GetSession)
			session.POST("/token", sessionHandler.LoginWithToken)
			session.POST("/login", sessionHandler.Login)
			session.POST("/register", sessionHandler.Register)
			session.POST("/logout", sessionHandler.Logout)
		}

		cart := api.Group("/cart")
		cart.Use(middleware.RequireIdentity())
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("/refresh", cartHandler.RefreshCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.POST("/items/:productId/reduce", cartHandler.ReduceItem)
			cart.DELETE("/items/:productId", cartHandler.RemoveItem)
		}

		products := api.Group("/products")
		products.Use(gosharedmw.CompressionMiddleware())
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id/selection", productHandler.UpdateSelection)
			products.POST("/:id/add-to-cart", productHandler.AddToCart)

			products.GET("/:id/reviews", reviewHandler.GetReviews)
			products.POST("/:id/reviews", reviewHandler.SubmitReview)
			products.DELETE("/:id/reviews", reviewHandler.DeleteReview)
			products.POST("/:id/reviews/open", reviewHandler.OpenReviews)
			products.POST("/:id/reviews/close", reviewHandler.CloseReviews)
			products.POST("/:id/reviews/more", reviewHandler.LoadMore)
			products.POST("/:id/reviews/edit", reviewHandler.BeginEdit)
			products.DELETE("/:id/reviews/edit", reviewHandler.CancelEdit)
		}

		// Server-sent events are not compressed so each event is flushed as written
		api.GET("/stream", streamHandler.Stream)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithField("port", cfg.Port).Info("Storefront service starting")
		if err := router.Run(":" + cfg.Port); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-quit
	logger.Info("Shutting down storefront-service...")

	sessionWorker.Stop()
	if productSubscriber != nil {
		productSubscriber.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Error shutting down tracer provider")
		}
	}

	logger.Info("Storefront service stopped")
}
