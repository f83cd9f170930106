package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-manager/cache"
	"task-manager/config"
	"task-manager/handlers"
	"task-manager/logging"
	"task-manager/repositories"
	"task-manager/services"
	"task-manager/tracing"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type store struct {
	tasks repositories.TaskRepository
	users repositories.UserRepository
	close func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logging.Logger.Warn("Event ID: STORE_MEMORY, Description: Using in-memory store, data is lost on restart")
		return &store{
			tasks: repositories.NewMemoryTaskRepository(),
			users: repositories.NewMemoryUserRepository(),
			close: func(context.Context) error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB database %s", cfg.MongoDBName)

	db := client.Database(cfg.MongoDBName)
	usersCollection := db.Collection(cfg.MongoUsersCollection)
	tasksCollection := db.Collection(cfg.MongoTasksCollection)
	if err := repositories.EnsureIndexes(connectCtx, usersCollection, tasksCollection); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &store{
		tasks: repositories.NewMongoTaskRepository(tasksCollection),
		users: repositories.NewMongoUserRepository(usersCollection),
		close: client.Disconnect,
	}, nil
}

func openDashboardCache(ctx context.Context, cfg *config.Config) (services.DashboardCache, func() error) {
	if cfg.RedisURL == "" {
		logging.Logger.Info("Event ID: CACHE_DISABLED, Description: REDIS_URL not set, dashboards are computed on every request")
		return nil, func() error { return nil }
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logging.Logger.Warnf("Event ID: CACHE_CONFIG_INVALID, Description: Invalid REDIS_URL, dashboard cache disabled: %v", err)
		return nil, func() error { return nil }
	}
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.Logger.Warnf("Event ID: CACHE_UNREACHABLE, Description: Redis not reachable at startup, cache will retry through the breaker: %v", err)
	}
	logging.Logger.Infof("Event ID: CACHE_ENABLED, Description: Dashboard cache enabled with TTL %s", cfg.DashboardCacheTTL)
	return cache.NewDashboardCache(client, cfg.DashboardCacheTTL), client.Close
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		logrus.Fatalf("Event ID: CONFIG_ERROR, Description: Invalid configuration: %v", err)
	}

	if err := logging.InitLogger(logging.Options{SystemName: "task-manager", File: cfg.LogFile, Level: cfg.LogLevel}); err != nil {
		logrus.Fatalf("Event ID: LOGGER_INIT_FAILED, Description: %v", err)
	}
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Setup(logging.Logger, cfg.TraceLog)

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection failed: %v", err)
	}
	dashboardCache, closeCache := openDashboardCache(ctx, cfg)

	aggregator := services.NewAggregator(st.tasks)
	authService := services.NewAuthService(st.users, services.NewJWTService(cfg.JWTSecret, cfg.TokenTTL), cfg.AdminInviteToken)

	router := handlers.Router{
		Auth:          handlers.NewAuthHandler(authService),
		Users:         handlers.NewUserHandler(services.NewUserService(st.users, aggregator)),
		Tasks:         handlers.NewTaskHandler(services.NewTaskService(st.tasks, st.users, aggregator, dashboardCache)),
		Reports:       handlers.NewReportHandler(services.NewReportService(st.tasks, st.users, aggregator)),
		Authenticator: authService,
	}.Build()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         86400,
	}).Handler(router)

	accessLog := logging.Logger.WriterLevel(logrus.InfoLevel)
	defer accessLog.Close()

	recovered := gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(logging.Logger),
		gorillahandlers.PrintRecoveryStack(true),
	)(corsHandler)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      gorillahandlers.CombinedLoggingHandler(accessLog, recovered),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Event ID: SERVICE_STOP, Description: Shutting down Task Manager...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_ERROR, Description: %v", err)
	}
	if err := closeCache(); err != nil {
		logging.Logger.Warnf("Event ID: CACHE_CLOSE_ERROR, Description: %v", err)
	}
	if err := st.close(shutdownCtx); err != nil {
		logging.Logger.Warnf("Event ID: DB_DISCONNECT_ERROR, Description: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Logger.Warnf("Event ID: TRACING_SHUTDOWN_ERROR, Description: %v", err)
	}
}
