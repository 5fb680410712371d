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
	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/infrastructure/client"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
)

const (
	serviceName = "bidding-service"
	leaderKey   = "bidding-service:leader"
)

func main() {
	log := logger.New()
	log.Info("Starting bidding service")

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

	bidRepo := mysql.NewMySQLBidRepository(db)
	outboxRepo := mysql.NewMySQLOutboxRepository(db)
	eventPublisher := redis.NewRedisEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, leaderKey, cfg.Leader.TTL)

	auctionGateway := client.NewAuctionClient(
		cfg.Services.AuctionURL,
		serviceName,
		cfg.Auth.JWTSecret,
		cfg.Services.ClientTimeout,
		cfg.Auth.ServiceTokenTTL,
	)

	bidService := services.NewBidService(bidRepo, auctionGateway, outboxRepo, eventPublisher, log)
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

	// Live feed
	connManager := websocket.NewConnectionManager(log)
	feedHandler := websocket.NewFeedHandler(connManager, log)
	eventListener := services.NewEventListener(connManager, log)

	router := mux.NewRouter()
	router.Use(middleware.CORS)

	bidHandler := handlers.NewBidHandler(bidService, log)
	bidHandler.Register(router, cfg.Auth.JWTSecret)

	router.HandleFunc("/ws/auctions/{auctionId}", feedHandler.HandleConnection)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":%q,"timestamp":%q}`, serviceName, time.Now().Format(time.RFC3339))
	}).Methods(http.MethodGet)

	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()

	go outboxRelay.Start(relayCtx)
	go func() {
		if err := eventListener.Start(relayCtx, eventSubscriber); err != nil {
			log.Error("Event listener stopped", "error", err)
		}
	}()
	go runLeaderLoop(leaderElection, cfg.Instance.ID, log)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("Bidding service listening", "address", serverAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")
	relayCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bidding service stopped")
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
