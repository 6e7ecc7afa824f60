package main

import (
	"context"
	"log"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/accounts/api/handler"
	"github.com/fastygo/accounts/internal/config"
	"github.com/fastygo/accounts/internal/credential"
	"github.com/fastygo/accounts/internal/infrastructure/buffer"
	"github.com/fastygo/accounts/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/accounts/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/accounts/internal/infrastructure/redis"
	"github.com/fastygo/accounts/internal/middleware"
	"github.com/fastygo/accounts/internal/router"
	"github.com/fastygo/accounts/internal/services"
	"github.com/fastygo/accounts/internal/services/lifecycle"
	"github.com/fastygo/accounts/pkg/httpcontext"
	"github.com/fastygo/accounts/pkg/logger"
	"github.com/fastygo/accounts/pkg/password"
	"github.com/fastygo/accounts/repository"
	"github.com/fastygo/accounts/repository/postgres"
	redisRepo "github.com/fastygo/accounts/repository/redis"
	activityUC "github.com/fastygo/accounts/usecase/activity"
	adminUC "github.com/fastygo/accounts/usecase/admin"
	authUC "github.com/fastygo/accounts/usecase/auth"
	profileUC "github.com/fastygo/accounts/usecase/profile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(appCtx, cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, cfg.AppName, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.RegisterFunc("postgres", func() { pgInfra.Close(pool, zapLogger) })

	// Redis only backs the recent sign-ins feed; without it the dashboard
	// reads from postgres.
	var (
		redisClient *goRedis.Client
		redisCheck  monitor.Check
		feed        repository.RecentLoginFeed
	)
	redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Warn("redis unavailable, recent logins feed disabled", zap.Error(err))
	} else {
		manager.RegisterFunc("redis", func() { redisInfra.Close(redisClient, zapLogger) })
		redisCheck = monitor.RedisCheck(redisClient)
		feed = redisRepo.NewRecentLoginFeed(redisClient, cfg.Auth.RecentLoginsPrefix, activityUC.RecentLimit)
	}

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "", cfg.Buffer.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(monitor.PostgresCheck(pool), redisCheck, bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.RegisterFunc("monitor", mon.Stop)

	userRepo := postgres.NewUserRepository(pool)
	activityRepo := postgres.NewLoginActivityRepository(pool)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		activityRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", bufferProcessor.Stop)

	recorder := activityUC.New(activityRepo, feed, services.NewBufferBridge(bufferProcessor), zapLogger)

	codec, err := credential.NewCodec(credential.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		zapLogger.Fatal("credential codec", zap.Error(err))
	}
	credTransport := credential.NewTransport(cfg.Auth.AccessCookieName, cfg.Auth.RefreshCookieName)
	hasher := password.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLength)
	observer := authUC.NewLogObserver(zapLogger)

	authUseCase := authUC.New(userRepo, codec, hasher, recorder, observer, zapLogger)
	if _, err := authUseCase.Bootstrap(appCtx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		zapLogger.Fatal("superuser bootstrap failed", zap.Error(err))
	}
	profileUseCase := profileUC.New(userRepo, hasher, recorder, zapLogger)
	adminUseCase := adminUC.New(userRepo, hasher, recorder, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, credTransport, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, recorder, ctxAdapter, zapLogger),
		Admin:   apiHandler.NewAdminHandler(adminUseCase, recorder, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authenticator := middleware.NewAuthenticator(credTransport, authUC.NewResolver(codec, userRepo, observer), ctxAdapter, zapLogger)
	r := router.New(handlers, authenticator.Authenticate)

	server := &fasthttp.Server{
		Handler:      middleware.RequestLog(zapLogger)(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
