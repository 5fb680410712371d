package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api/handlers"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/infrastructure/client"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	serviceName = "payment-service"
	leaderKey   = "payment-service:leader"
)

func main() {
	log := logger.New()
	log.Info("Starting payment service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	db := utils.InitializeMySQL(ctx, cfg, log)
	defer db.Close()

	txRepo := mysql.NewMySQLTransactionRepository(db)
	outboxRepo := mysql.NewMySQLOutboxRepository(db)
	leaderElection := leader.NewRedisLeaderElection(rdb, leaderKey, cfg.Leader.TTL)

	auctionGateway := client.NewAuctionClient(
		cfg.Services.AuctionURL,
		serviceName,
		cfg.Auth.JWTSecret,
		cfg.Services.ClientTimeout,
		cfg.Auth.ServiceTokenTTL,
	)

	paymentService := services.NewPaymentService(
		txRepo,
		auctionGateway,
		services.NewSimulatedProcessor(),
		outboxRepo,
		log,
	)
	outboxRelay := services.NewOutboxRelay(
		outboxRepo,
		auctionGateway,
		leaderElection,
		cfg.Instance.ID,
		cfg.Outbox.PollInterval,
		cfg.Outbox.BaseBackoff,
		cfg.Outbox.MaxBackoff,
		cfg.Outbox.BatchSize,
		log,
	)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	paymentHandler.Register(e, cfg.Auth.JWTSecret)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   serviceName,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()

	go outboxRelay.Start(relayCtx)
	go runLeaderLoop(leaderElection, cfg.Instance.ID, log)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("Payment service listening", "address", serverAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down payment service...")
	relayCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Payment service stopped")
}

func runLeaderLoop(election *leader.RedisLeaderElection, instanceID string, log logger.Logger) {
	for {
		became, err := election.BecomeLeader(context.Background(), instanceID)
		if err != nil {
			log.Error("Failed to attempt leadership", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if became {
			log.Info("Became leader", "instance_id", instanceID)
		}
		time.Sleep(10 * time.Second)
	}
}
