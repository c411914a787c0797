package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/postgres"
	"github.com/YelzhanWeb/restaurant/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/restaurant/internal/adapter/redis"
	"github.com/YelzhanWeb/restaurant/internal/app/catalog"
	"github.com/YelzhanWeb/restaurant/internal/app/kitchen"
	"github.com/YelzhanWeb/restaurant/internal/app/order"
	"github.com/YelzhanWeb/restaurant/internal/app/tracking"
	"github.com/YelzhanWeb/restaurant/internal/config"
	"github.com/YelzhanWeb/restaurant/migrations"

	amqpAdapter "github.com/YelzhanWeb/restaurant/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/restaurant/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: order-service, catalog-service, kitchen-worker, tracking-service, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	workerName := flag.String("worker-name", "", "Worker name (for kitchen-worker)")
	prefetch := flag.Int("prefetch", 0, "RabbitMQ prefetch count (overrides config)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.HTTP.Port = *port
	}
	if *prefetch > 0 {
		cfg.Kitchen.Prefetch = *prefetch
	}

	lgr, err := logger.New(*mode, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "order-service":
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runOrderService(ctx, cfg, db, mqConn, lgr)

	case "catalog-service":
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		rdb := connectRedis(ctx, cfg, lgr)
		defer rdb.Close()
		runCatalogService(ctx, cfg, db, rdb, lgr)

	case "kitchen-worker":
		if *workerName == "" {
			log.Fatal("--worker-name is required for kitchen-worker mode")
		}
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runKitchenWorker(ctx, cfg, db, mqConn, lgr, *workerName)

	case "tracking-service":
		db := connectPostgres(ctx, cfg, lgr)
		defer db.Close()
		runTrackingService(ctx, cfg, db, lgr)

	case "notification-subscriber":
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()
		runNotificationSubscriber(ctx, cfg, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config, lgr logger.Logger) *pgxpool.Pool {
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	if err := postgres.Migrate(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return pool
}

func connectRabbitMQ(cfg *config.Config, lgr logger.Logger) rabbitmq.Connection {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return mqConn
}

func connectRedis(ctx context.Context, cfg *config.Config, lgr logger.Logger) *goredis.Client {
	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	lgr.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
		"addr": cfg.Redis.Addr,
	})
	return rdb
}

func runOrderService(ctx context.Context, cfg *config.Config, db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger) {
	orderService := order.NewService(postgres.NewOrderRepository(db), rabbitmq.NewPublisher(mqConn), lgr)
	handler := httpAdapter.NewOrderRouter(httpAdapter.NewOrderHandler(orderService, lgr), lgr)

	serve(ctx, cfg.HTTP, "Order Service", handler, lgr)
}

func runCatalogService(ctx context.Context, cfg *config.Config, db postgres.DB, rdb *goredis.Client, lgr logger.Logger) {
	catalogService := catalog.NewService(
		postgres.NewDishRepository(db),
		postgres.NewMenuRepository(db),
		postgres.NewCategoryRepository(db),
		redis.NewCatalogCache(rdb, cfg.Redis.CatalogTTL),
		lgr,
	)
	handler := httpAdapter.NewCatalogRouter(httpAdapter.NewCatalogHandler(catalogService, lgr), lgr)

	serve(ctx, cfg.HTTP, "Catalog Service", handler, lgr)
}

func runKitchenWorker(ctx context.Context, cfg *config.Config, db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, workerName string) {
	orderRepo := postgres.NewOrderRepository(db)
	workerRepo := postgres.NewWorkerRepository(db)

	orderService := order.NewService(orderRepo, rabbitmq.NewPublisher(mqConn), lgr)
	kitchenService := kitchen.NewService(orderRepo, workerRepo, orderService, lgr, workerName, cfg.Kitchen.HeartbeatInterval)
	consumer := rabbitmq.NewConsumer(mqConn, cfg.Kitchen.Prefetch, lgr)
	orderHandler := amqpAdapter.NewOrderHandler(kitchenService, lgr)

	if err := kitchenService.Start(ctx); err != nil {
		log.Fatalf("Failed to start kitchen worker: %v", err)
	}

	lgr.Info("service_started", fmt.Sprintf("Kitchen Worker %s started", workerName), "startup", map[string]interface{}{
		"worker_name": workerName,
		"prefetch":    cfg.Kitchen.Prefetch,
	})

	if err := consumer.ConsumeOrders(ctx, orderHandler.HandleOrder); err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error("consumer_error", "Error consuming orders", "runtime", nil, err)
	}

	lgr.Info("graceful_shutdown", "Shutting down Kitchen Worker", "shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := kitchenService.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
	}
}

func runTrackingService(ctx context.Context, cfg *config.Config, db postgres.DB, lgr logger.Logger) {
	trackingService := tracking.NewService(
		postgres.NewOrderRepository(db),
		postgres.NewWorkerRepository(db),
		lgr,
		2*cfg.Kitchen.HeartbeatInterval,
	)
	handler := httpAdapter.NewTrackingRouter(httpAdapter.NewTrackingHandler(trackingService, lgr), lgr)

	serve(ctx, cfg.HTTP, "Tracking Service", handler, lgr)
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, cfg.Kitchen.Prefetch, lgr)
	handler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	if err := consumer.ConsumeNotifications(ctx, handler.HandleNotification); err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("graceful_shutdown", "Shutting down Notification Subscriber", "shutdown", nil)
}

// serve runs handler until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg config.HTTPConfig, name string, handler http.Handler, lgr logger.Logger) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", name, cfg.Port), "startup", map[string]interface{}{
		"port": cfg.Port,
	})

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}
