package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.settlers/internal/config"
	"sudooom.settlers/internal/game"
	"sudooom.settlers/internal/game/settlers"
	"sudooom.settlers/internal/handler"
	"sudooom.settlers/internal/health"
	"sudooom.settlers/internal/jwt"
	settlersNats "sudooom.settlers/internal/nats"
	"sudooom.settlers/internal/repository"
	"sudooom.settlers/internal/router"
	"sudooom.settlers/internal/store"
	"sudooom.settlers/internal/task"
)

func main() {
	configPath := os.Getenv("SETTLERS_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// 初始化日志
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := settlersNats.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	gameRepo := repository.NewGameRepository(db)
	if err := gameRepo.Migrate(ctx); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// 超时调度
	scheduler := task.NewScheduler(cfg.Game.SchedulerWorkers, cfg.Game.SchedulerTick)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// 规则引擎与对局服务
	engines, err := settlers.NewService(settlers.Options{
		ShuffleBoard:     cfg.Game.ShuffleBoard,
		ShuffleTurnOrder: cfg.Game.ShuffleTurnOrder,
		BoardFile:        cfg.Game.BoardFile,
		VictoryPoints:    cfg.Game.VictoryPoints,
		Seed:             cfg.Game.Seed,
	})
	if err != nil {
		logger.Error("Failed to create rules engine", "error", err)
		os.Exit(1)
	}

	manager := game.NewGameManager(game.ManagerConfig{
		MaxGames:      cfg.Game.MaxGames,
		EvictTimeout:  cfg.Game.EvictTimeout,
		CheckInterval: cfg.Game.EvictCheckInterval,
	}, nil)

	publisher := settlersNats.NewEventPublisher(natsClient.Conn())
	gameService := game.NewGameService(
		manager,
		engines,
		publisher,
		store.NewRoomStore(redisClient, cfg.Game.SnapshotTTL),
		gameRepo,
		scheduler,
		game.ServiceConfig{
			TradeTimeout:    cfg.Game.TradeTimeout,
			DiscardTimeout:  cfg.Game.DiscardTimeout,
			FinishedRoomTTL: cfg.Game.FinishedRoomTTL,
		},
	)

	// 启动订阅者
	subscriber := settlersNats.NewRequestSubscriber(
		natsClient.Conn(),
		handler.NewGameHandler(gameService, publisher),
		settlersNats.SubscriberConfig{
			WorkerCount: cfg.Game.WorkerCount,
			BufferSize:  cfg.Game.BufferSize,
		},
	)
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		os.Exit(1)
	}

	// HTTP 服务
	checker := health.NewChecker(natsClient.Conn(), redisClient, db, func() int64 {
		return int64(manager.Count())
	})
	var jwtService *jwt.Service
	if cfg.HTTP.JWTSecret != "" {
		jwtService = jwt.NewService(cfg.HTTP.JWTSecret)
	} else {
		logger.Info("No jwt secret configured, serving spectator views only")
	}
	engine := router.SetupRouter(&cfg.HTTP, checker, jwtService,
		handler.NewStateHandler(gameService, gameRepo),
		handler.NewWatchHandler(gameService, settlersNats.NewRoomWatcher(natsClient.Conn()), cfg.HTTP.AllowedOrigins),
	)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	logger.Info("Settlers logic service started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", "error", err)
	}
	subscriber.Stop()
	scheduler.Stop()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to persist games on shutdown", "error", err)
	}
	cancel()

	logger.Info("Settlers logic service stopped")
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
