package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagecrm/booking-core/internal/apperrors"
	"github.com/voyagecrm/booking-core/internal/config"
	"github.com/voyagecrm/booking-core/internal/database"
	"github.com/voyagecrm/booking-core/internal/handlers"
	"github.com/voyagecrm/booking-core/internal/middleware"
	"github.com/voyagecrm/booking-core/internal/pricing"
	"github.com/voyagecrm/booking-core/internal/retry"
	"github.com/voyagecrm/booking-core/internal/services"
	"github.com/voyagecrm/booking-core/pkg/documents"
	"github.com/voyagecrm/booking-core/pkg/jwt"
	"github.com/voyagecrm/booking-core/pkg/tracking"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting VoyageCRM booking core")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// ============================================================================
	// STORAGE
	// ============================================================================
	var (
		store  services.BookingStore
		pinger func(ctx context.Context) error
	)
	if cfg.Database.UseRemote {
		logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := database.NewConnection(ctx, cfg.Database)
		if err != nil {
			cancel()
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			logger.Fatalf("Failed to apply schema: %v", err)
		}
		cancel()
		defer db.Close()

		store = database.NewBookingRepository(db)
		pinger = db.PingContext
		logger.Info("Database connection established")
	} else {
		logger.Warn("USE_REMOTE_STORAGE is disabled, bookings are kept in memory")
		store = database.NewMemoryStore()
	}

	// ============================================================================
	// SERVICES
	// ============================================================================
	logger.Info("Initializing services...")

	var tracker apperrors.Tracker
	if cfg.Errors.TrackingURL != "" {
		tracker = tracking.NewClient(tracking.Config{
			URL:         cfg.Errors.TrackingURL,
			APIKey:      cfg.Errors.TrackingAPIKey,
			Service:     "booking-core",
			Environment: cfg.Server.Environment,
		})
	}
	classifier := apperrors.NewClassifier(
		apperrors.ClassifierConfig{
			DedupWindow:    cfg.Errors.DedupWindow,
			DedupThreshold: cfg.Errors.DedupThreshold,
			Production:     cfg.IsProduction() && tracker != nil,
		},
		logger,
		tracker,
	)

	executor := retry.NewExecutor(
		retry.Config{
			MaxRetries:        cfg.Retry.MaxAttempts,
			InitialDelay:      cfg.Retry.InitialDelay,
			BackoffMultiplier: cfg.Retry.BackoffMultiplier,
			AttemptTimeout:    cfg.Retry.AttemptTimeout,
		},
		logger,
	)

	var docs services.DocumentGenerator
	if cfg.Documents.ServiceURL != "" {
		docs = documents.NewClient(cfg.Documents.ServiceURL)
	} else {
		docs = documents.NewLinkGenerator(cfg.Documents.BaseURL)
	}

	bookingService := services.NewBookingService(
		store,
		executor,
		classifier,
		docs,
		services.NewTransitionPolicy(cfg.Bookings.StrictStatusTransitions),
		logger,
	)

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	pricingHandler := handlers.NewPricingHandler(pricing.NewEngine(time.UTC))
	validationHandler := handlers.NewValidationHandler()

	logger.WithFields(logrus.Fields{
		"strict_transitions": cfg.Bookings.StrictStatusTransitions,
		"retry_attempts":     cfg.Retry.MaxAttempts,
		"retry_budget":       cfg.Retry.Budget().String(),
		"tracking_enabled":   tracker != nil,
	}).Info("Services initialized")

	// ============================================================================
	// ROUTER
	// ============================================================================
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// wildcard origins and credentials cannot be combined
	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(pinger))

	v1 := router.Group("/api/v1")
	handlers.RegisterRoutes(
		v1,
		middleware.AuthMiddleware(jwtService, logger),
		bookingHandler,
		pricingHandler,
		validationHandler,
	)

	// document requests run two retried calls back to back
	writeTimeout := 2*cfg.Retry.Budget() + 5*time.Second

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// let in-flight tracking posts finish
	classifier.WaitForTracking()

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}

		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["roles"] = userCtx.Roles
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler reports storage health. ping is nil for the in-memory store.
func healthCheckHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage := "memory"
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": "unhealthy",
					"error":    err.Error(),
				})
				return
			}
			storage = "healthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  storage,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
