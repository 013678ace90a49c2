package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/adapter/handler"
	"github.com/oelbekkali/retail-core/internal/adapter/storage"
	"github.com/oelbekkali/retail-core/internal/config"
	"github.com/oelbekkali/retail-core/internal/core/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLConnMaxAge)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	// Services
	catalogService := service.NewCatalogService(mysqlAdapter, redisAdapter, logger)
	customerService := service.NewCustomerService(mysqlAdapter, logger)
	promoService := service.NewPromoService(mysqlAdapter, logger)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, mysqlAdapter, mysqlAdapter, redisAdapter, logger)
	paymentService := service.NewPaymentService(mysqlAdapter, redisAdapter, logger)

	// Warm the stock display mirror from the authoritative catalog.
	products, err := mysqlAdapter.ListActiveProducts(ctx)
	if err != nil {
		logger.Fatal("failed to list products", zap.Error(err))
	}
	for _, p := range products {
		if err := redisAdapter.SetStock(ctx, p.ID, p.Stock); err != nil {
			logger.Warn("failed to seed stock mirror", zap.String("product_id", p.ID), zap.Error(err))
		}
	}
	logger.Info("stock mirror seeded", zap.Int("products", len(products)))

	// HTTP server
	httpHandler := handler.NewHTTPHandler(catalogService, customerService, promoService, orderService, paymentService, logger)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
