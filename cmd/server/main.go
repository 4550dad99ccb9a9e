package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/1lorincer/nomad-task/internal/config"
	httpctrl "github.com/1lorincer/nomad-task/internal/controllers/http"
	"github.com/1lorincer/nomad-task/internal/infra"
	mmysql "github.com/1lorincer/nomad-task/internal/infra/mysql"
	"github.com/1lorincer/nomad-task/internal/infra/rabbitmq"
	mysqlrepo "github.com/1lorincer/nomad-task/internal/repository/mysql"
	"github.com/1lorincer/nomad-task/internal/services"
)

func main() {
	cfg := config.FromEnv()

	var log *zap.Logger
	var err error
	if cfg.Env == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mmysql.NewMySQL(cfg)
	if err != nil {
		log.Fatal("db: connect", zap.Error(err))
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	store := mysqlrepo.NewStore(db)

	notifier, err := rabbitmq.NewEmailNotifier(cfg.RabbitURL, cfg.NotificationExchange)
	if err != nil {
		log.Fatal("failed to init notifier", zap.Error(err))
	}
	defer notifier.Close()

	queue := services.NewNotificationQueue(store, notifier, log, cfg.QueueInterval, cfg.QueueMaxAttempts)
	queue.Start(ctx)
	defer queue.Stop()

	shippingClient := infra.NewShippingClient(cfg.ShippingURL, cfg.ShippingTimeout)
	orderService := services.NewOrderService(store, shippingClient, queue, log, cfg.ShippingTimeout)
	productService := services.NewProductService(store, log)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost + ":6379",
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	productService.SetRedisClient(redisClient)

	go func() {
		time.Sleep(5 * time.Second)
		products, err := store.Products(ctx)
		if err != nil {
			log.Warn("failed to load products for cache warmup", zap.Error(err))
			return
		}
		ids := make([]uint64, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		if err := productService.WarmupProductCache(ctx, ids); err != nil {
			log.Warn("failed to warm up product cache", zap.Error(err))
		}
	}()

	handler := httpctrl.NewHandler(orderService, productService, queue, redisClient, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("starting shop service", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server run", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
}
