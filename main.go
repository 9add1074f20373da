package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medicare-backend/controllers"
	"medicare-backend/database"
	"medicare-backend/events"
	"medicare-backend/middleware"
	"medicare-backend/repository"
	"medicare-backend/routes"
	"medicare-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := LoadConfig()

	var logger *zap.Logger
	var err error
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// --- Databases ---
	mongoDB, err := database.ConnectMongo(cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		logger.Fatal("MongoDB connection failed", zap.Error(err))
	}
	if err := mongoDB.EnsureIndexes(context.Background()); err != nil {
		logger.Fatal("Index creation failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	// --- Event publishing (best-effort) ---
	var publisher events.Publisher
	if cfg.OrderEventsTopicARN != "" {
		snsPublisher, err := events.NewSNSPublisher(context.Background())
		if err != nil {
			logger.Warn("SNS publisher init failed, events disabled", zap.Error(err))
		} else {
			publisher = snsPublisher
		}
	}

	// --- Dependency injection ---
	productRepo := repository.NewMongoProductRepository(mongoDB.DB)
	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	orderRepo := repository.NewMongoOrderRepository(mongoDB.DB)
	voucherRepo := repository.NewMongoVoucherRepository(mongoDB.DB)

	pricing := services.PricingConfig{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		StandardShippingFee:   cfg.StandardShippingFee,
	}

	cartService := services.NewCartService(cartRepo, productRepo, logger)
	voucherService := services.NewVoucherService(voucherRepo, logger)
	checkoutService := services.NewCheckoutService(
		cartService, productRepo, orderRepo, voucherService,
		pricing, cfg.OrderNumberPrefix, publisher, cfg.OrderEventsTopicARN, logger)
	orderService := services.NewOrderService(
		orderRepo, productRepo, publisher, cfg.OrderEventsTopicARN, logger)

	cartController := controllers.NewCartController(cartService)
	orderController := controllers.NewOrderController(checkoutService, orderService)
	voucherController := controllers.NewVoucherController(voucherService)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestTimeout(30 * time.Second))

	routes.Register(r, cartController, orderController, voucherController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "medicare-backend"})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("MediCare backend started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}
	if err := mongoDB.Close(); err != nil {
		logger.Error("MongoDB close error", zap.Error(err))
	}

	logger.Info("MediCare backend stopped gracefully")
}
