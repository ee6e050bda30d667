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
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/config"
	"github.com/Shivansh47201/vartalap/internal/database"
	authHandler "github.com/Shivansh47201/vartalap/internal/handler/http/auth"
	calllogHandler "github.com/Shivansh47201/vartalap/internal/handler/http/calllog"
	conversationHandler "github.com/Shivansh47201/vartalap/internal/handler/http/conversation"
	messageHandler "github.com/Shivansh47201/vartalap/internal/handler/http/message"
	statusHandler "github.com/Shivansh47201/vartalap/internal/handler/http/status"
	storageHandler "github.com/Shivansh47201/vartalap/internal/handler/http/storage"
	userHandler "github.com/Shivansh47201/vartalap/internal/handler/http/user"
	wsHandler "github.com/Shivansh47201/vartalap/internal/handler/ws"
	"github.com/Shivansh47201/vartalap/internal/middleware"
	"github.com/Shivansh47201/vartalap/internal/repository/cassandra"
	"github.com/Shivansh47201/vartalap/internal/repository/cockroach"
	redisRepo "github.com/Shivansh47201/vartalap/internal/repository/redis"
	authService "github.com/Shivansh47201/vartalap/internal/service/auth"
	calllogService "github.com/Shivansh47201/vartalap/internal/service/calllog"
	chatService "github.com/Shivansh47201/vartalap/internal/service/chat"
	conversationService "github.com/Shivansh47201/vartalap/internal/service/conversation"
	statusService "github.com/Shivansh47201/vartalap/internal/service/status"
	storageService "github.com/Shivansh47201/vartalap/internal/service/storage"
	userService "github.com/Shivansh47201/vartalap/internal/service/user"
	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/jwt"
	"github.com/Shivansh47201/vartalap/pkg/logger"
	"github.com/Shivansh47201/vartalap/pkg/metrics"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Log.Sync()

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		logger.Log.Fatal("JWT_SECRET must be at least 32 characters")
	}

	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	ctx := context.Background()

	cockroachDB, err := database.NewCockroachDB(ctx, &database.CockroachConfig{
		Host:     cfg.CockroachHost,
		Port:     cfg.CockroachPort,
		User:     cfg.CockroachUser,
		Password: cfg.CockroachPassword,
		Database: cfg.CockroachDatabase,
		SSLMode:  cfg.CockroachSSLMode,
	})
	if err != nil {
		logger.Log.Fatal("failed to connect to CockroachDB", zap.Error(err))
	}
	defer cockroachDB.Close()
	logger.Log.Info("connected to CockroachDB")

	cassandraDB, err := database.NewCassandraDB(&database.CassandraConfig{
		Hosts:    cfg.CassandraHosts,
		Keyspace: cfg.CassandraKeyspace,
		Username: cfg.CassandraUser,
		Password: cfg.CassandraPassword,
		Timeout:  database.DefaultCassandraQueryTimeout,
	})
	if err != nil {
		logger.Log.Fatal("failed to connect to Cassandra", zap.Error(err))
	}
	defer cassandraDB.Close()
	logger.Log.Info("connected to Cassandra")

	redisDB, err := database.NewRedisDB(&database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisDB.Close()
	logger.Log.Info("connected to Redis")

	// Repositories
	userRepo := cockroach.NewUserRepository(cockroachDB.Pool)
	conversationRepo := cockroach.NewConversationRepository(cockroachDB.Pool)
	callLogRepo := cockroach.NewCallLogRepository(cockroachDB.Pool)
	statusRepo := cockroach.NewStatusRepository(cockroachDB.Pool)
	messageRepo := cassandra.NewMessageRepository(cassandraDB.Session)
	presenceRepo := redisRepo.NewPresenceRepository(redisDB.Client)
	tokenRepo := redisRepo.NewTokenRepository(redisDB.Client)

	// Metrics and WebSocket hub
	appMetrics := metrics.New("vartalap-server")
	hub := wsHandler.NewHub(presenceRepo, appMetrics)

	// Services
	authSvc := authService.NewService(userRepo, tokenRepo, jwtManager)
	userSvc := userService.NewService(userRepo)
	conversationSvc := conversationService.NewService(conversationRepo, userRepo, messageRepo)
	chatSvc := chatService.NewService(messageRepo, conversationRepo, userRepo, hub)
	callLogSvc := calllogService.NewService(callLogRepo, userRepo, appMetrics)
	statusSvc := statusService.NewService(statusRepo, userRepo)
	storageSvc, err := storageService.NewService(storageService.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		logger.Log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	// Handlers
	authHdlr := authHandler.NewHandler(authSvc)
	userHdlr := userHandler.NewHandler(userSvc)
	conversationHdlr := conversationHandler.NewHandler(conversationSvc)
	messageHdlr := messageHandler.NewHandler(chatSvc)
	callLogHdlr := calllogHandler.NewHandler(callLogSvc)
	statusHdlr := statusHandler.NewHandler(statusSvc)
	storageHdlr := storageHandler.NewHandler(storageSvc)
	socketHdlr := wsHandler.NewHandler(hub)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.ClientURL))
	router.Use(middleware.Prometheus(appMetrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "vartalap-server",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHdlr.Register)
		api.POST("/auth/login", authHdlr.Login)

		authed := api.Group("")
		authed.Use(middleware.Auth(authSvc))
		{
			authed.POST("/auth/logout", authHdlr.Logout)
			authed.GET("/auth/me", authHdlr.Me)

			authed.GET("/users/search", userHdlr.Search)
			authed.PUT("/users/me", userHdlr.UpdateProfile)
			authed.GET("/users/:id", userHdlr.Get)

			authed.POST("/conversations", conversationHdlr.Create)
			authed.GET("/conversations", conversationHdlr.List)
			authed.GET("/conversations/:id", conversationHdlr.Get)
			authed.DELETE("/conversations/:id", conversationHdlr.Delete)

			authed.POST("/messages", messageHdlr.Send)
			authed.POST("/messages/read", messageHdlr.MarkRead)
			authed.GET("/messages/:conversationId", messageHdlr.History)

			authed.POST("/call-logs", callLogHdlr.Create)
			authed.GET("/call-logs", callLogHdlr.List)

			authed.POST("/statuses", statusHdlr.Publish)
			authed.GET("/statuses", statusHdlr.List)
			authed.DELETE("/statuses/:id", statusHdlr.Delete)

			authed.POST("/storage/upload-url", storageHdlr.UploadURL)
			authed.GET("/storage/download-url", storageHdlr.DownloadURL)
		}
	}

	// Clients authenticate in-band with a register event after upgrading.
	router.GET("/ws", socketHdlr.ServeWS)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Log.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
	logger.Log.Info("server stopped")
}
