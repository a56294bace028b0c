package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"chow-down/internal/chow"
	"chow-down/internal/config"
	"chow-down/internal/database"
	"chow-down/internal/eateries"
	"chow-down/internal/logger"
	"chow-down/internal/messaging"
	"chow-down/internal/services/api"
	"chow-down/internal/services/eatery"
	"chow-down/internal/services/order"
)

func main() {
	var (
		configPath   = flag.String("config", "config.yaml", "Path to configuration file")
		port         = flag.Int("port", 0, "HTTP port (overrides config)")
		clearOrders  = flag.Bool("clear-orders", false, "Clear all orders and reset the order-id base on startup")
		eateriesPath = flag.String("eateries", "", "JSON file of eateries replacing the whole eatery set on startup")
	)
	flag.Parse()

	// A .env file, if present, feeds the config env overrides
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New("chow-down")
	requestID := logger.GenerateRequestID()

	log.Info("service_started", "Starting chow-down", requestID, map[string]interface{}{
		"port":         cfg.Server.Port,
		"clear_orders": *clearOrders,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	if err := run(ctx, cfg, log, *clearOrders, *eateriesPath); err != nil {
		log.Error("service_failed", "Service failed", requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, clearOrders bool, eateriesPath string) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, os.DirFS("migrations"), requestID); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var cache *eatery.Cache
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		cache = eatery.NewCache(client, log)
		log.Info("redis_connected", "Connected to Redis", requestID, nil)
	}

	var publisher *messaging.Publisher
	if cfg.RabbitMQ.Host != "" {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		publisher = messaging.NewPublisher(conn, log)
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
	}

	eateryRepo := eatery.NewRepository(db, cache, log)
	orderRepo := order.NewRepository(db, log)

	if clearOrders {
		exitOnErrors(orderRepo.Clear(ctx))
		log.Info("orders_cleared", "Cleared all orders", requestID, nil)
	}

	if eateriesPath != "" {
		defs, err := eateries.LoadFile(eateriesPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		exitOnErrors(eateryRepo.LoadAll(ctx, defs))
		log.Info("eateries_loaded", "Replaced eatery set", requestID, map[string]interface{}{
			"count": len(defs),
		})
	}

	var handler *api.Handler
	if publisher != nil {
		handler = api.NewHandler(eateryRepo, orderRepo, publisher, db, log)
	} else {
		handler = api.NewHandler(eateryRepo, orderRepo, nil, db, log)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.SetupRoutes(),
	}

	go func() {
		log.Info("server_started", fmt.Sprintf("HTTP server listening on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// exitOnErrors prints each domain error message to stderr and exits
// non-zero, the contract for CLI-driven operations.
func exitOnErrors(errs chow.Errors) {
	if errs == nil {
		return
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Message)
	}
	os.Exit(1)
}
