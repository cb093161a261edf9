package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	catalogapp "github.com/shop/backend/internal/application/catalog"
	identityapp "github.com/shop/backend/internal/application/identity"
	orderapp "github.com/shop/backend/internal/application/order"
	paymentapp "github.com/shop/backend/internal/application/payment"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/logger"
	mp "github.com/shop/backend/internal/infrastructure/payment"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"github.com/shop/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync() //nolint:errcheck

	appLogger.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Database
	gormLogger := logger.NewGormLogger(appLogger, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// Token blacklist: Redis in normal operation, in-memory fallback so a
	// Redis outage does not take the whole API down with it
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		defer redisBlacklist.Close() //nolint:errcheck
		blacklist = redisBlacklist
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Payment gateway
	gateway, err := mp.NewMercadoPagoAdapter(&mp.MercadoPagoConfig{
		AccessToken: cfg.Payment.AccessToken,
		BaseURL:     cfg.Payment.BaseURL,
		Timeout:     cfg.Payment.Timeout,
	})
	if err != nil {
		appLogger.Fatal("Failed to configure payment gateway", zap.Error(err))
	}

	shipping, err := shippingPolicyFromConfig(cfg.Shipping)
	if err != nil {
		appLogger.Fatal("Invalid shipping configuration", zap.Error(err))
	}

	// Application services
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, appLogger)
	catalogService := catalogapp.NewCatalogService(categoryRepo, productRepo)
	orderService := orderapp.NewOrderService(orderRepo, txScope, shipping)
	preferenceService := paymentapp.NewPreferenceService(paymentapp.PreferenceServiceConfig{
		Gateway:     gateway,
		OrderRepo:   orderRepo,
		UserRepo:    userRepo,
		FrontendURL: cfg.App.FrontendURL,
		BackendURL:  cfg.App.BackendURL,
		Logger:      appLogger,
	})
	reconciliationService := paymentapp.NewReconciliationService(paymentapp.ReconciliationServiceConfig{
		Gateway:   gateway,
		OrderRepo: orderRepo,
		TxScope:   txScope,
		Logger:    appLogger,
	})

	// Handlers
	systemHandler := handler.NewSystemHandler(db)
	authHandler := handler.NewAuthHandler(authService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(preferenceService, reconciliationService, appLogger)

	engine := buildEngine(cfg, appLogger, jwtService, blacklist)

	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	registerRoutes(engine, cfg, authHandler, catalogHandler, orderHandler, paymentHandler)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

// buildEngine assembles the gin engine with the shared middleware stack
func buildEngine(cfg *config.Config, appLogger *zap.Logger, jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			appLogger.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(appLogger))
	engine.Use(logger.RequestLogger(appLogger))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = appLogger
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	return engine
}

// registerRoutes wires every API endpoint onto the engine
func registerRoutes(
	engine *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	catalogHandler *handler.CatalogHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
) {
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	authGroup := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authGroup.Use(middleware.RateLimit(authLimiter))
	}
	authGroup.
		POST("/register", authHandler.Register).
		POST("/login", authHandler.Login).
		POST("/refresh", authHandler.RefreshToken).
		POST("/logout", authHandler.Logout).
		GET("/me", authHandler.GetCurrentUser).
		POST("/change-password", authHandler.ChangePassword)
	r.Register(authGroup)

	catalogGroup := router.NewDomainGroup("catalog", "/catalog")
	catalogGroup.
		GET("/categories", catalogHandler.ListCategories).
		GET("/products", catalogHandler.ListProducts).
		GET("/products/featured", catalogHandler.ListFeatured).
		GET("/products/:slug", catalogHandler.GetProductBySlug)
	r.Register(catalogGroup)

	orderGroup := router.NewDomainGroup("orders", "/orders")
	orderGroup.
		POST("", orderHandler.Create).
		GET("", orderHandler.List).
		GET("/:id", orderHandler.GetByID).
		POST("/:id/cancel", orderHandler.Cancel).
		POST("/:id/payment-preference", paymentHandler.CreatePreference).
		POST("/:id/sync-payment", paymentHandler.SyncPayment)
	r.Register(orderGroup)

	paymentGroup := router.NewDomainGroup("payments", "/payments")
	paymentGroup.
		POST("/webhook", paymentHandler.Webhook).
		GET("/webhook", paymentHandler.Webhook)
	r.Register(paymentGroup)

	r.Setup()
}

// shippingPolicyFromConfig parses the flat-rate shipping settings
func shippingPolicyFromConfig(cfg config.ShippingConfig) (orderapp.ShippingPolicy, error) {
	flatRate, err := decimal.NewFromString(cfg.FlatRate)
	if err != nil {
		return orderapp.ShippingPolicy{}, fmt.Errorf("invalid shipping.flat_rate %q: %w", cfg.FlatRate, err)
	}

	threshold := decimal.Zero
	if cfg.FreeOverThreshold != "" {
		threshold, err = decimal.NewFromString(cfg.FreeOverThreshold)
		if err != nil {
			return orderapp.ShippingPolicy{}, fmt.Errorf("invalid shipping.free_over_threshold %q: %w", cfg.FreeOverThreshold, err)
		}
	}

	return orderapp.ShippingPolicy{
		FlatRate:          flatRate,
		FreeOverThreshold: threshold,
	}, nil
}
