package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/rathod-sahaab/elide/internal/auth"
	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/config"
	"github.com/rathod-sahaab/elide/internal/database"
	"github.com/rathod-sahaab/elide/internal/gateway"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/store"
	"github.com/rathod-sahaab/elide/internal/sweeper"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting elide",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"bridge_workers", cfg.Bridge.Workers,
	)
	if cfg.Session.Generated {
		logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	// Initialize database connection. The pool must cover every bridge worker
	// plus a little headroom for migrations and health checks.
	db, err := database.Open(cfg.Database.ConnectionString(), cfg.Bridge.Workers+5, cfg.Bridge.Workers)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database.URL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize the dispatch bridge over the Postgres pool
	pool := store.NewPostgresPool(db)
	dispatch := bridge.New(pool, cfg.Bridge.Workers, cfg.Bridge.QueueSize, logger)

	// Initialize sessions and the auth service
	sessions := auth.NewRedisSessionStore(redisClient, cfg.Session.Secret, cfg.Session.TTL)
	authService := auth.NewService(dispatch, sessions, logger)
	authHandler := auth.NewHandler(
		authService,
		logger,
		cfg.Session.TTL,
		!cfg.Server.IsDevelopment(), // secure cookies
	)

	// Initialize HTTP handlers and router
	linkHandler := gateway.NewLinkHandler(dispatch, logger)
	redirectHandler := gateway.NewRedirectHandler(dispatch, cfg.Server.ConsoleURL, logger)
	router := gateway.NewRouter(cfg, authService, authHandler, linkHandler, redirectHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := gateway.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start the orphan sweeper
	sweep := sweeper.New(dispatch, cfg.Sweeper.Schedule, cfg.Sweeper.Retention, logger)
	if err := sweep.Start(); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		sweep.Stop()
		dispatch.Close()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout. The server drains first so no new
		// work reaches the bridge, then the sweeper, then the bridge itself.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		sweep.Stop()
		dispatch.Close()
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
