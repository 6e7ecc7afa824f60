package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/fastygo/accounts/internal/config"
	pgInfra "github.com/fastygo/accounts/internal/infrastructure/postgres"
	"github.com/fastygo/accounts/pkg/logger"
	"github.com/fastygo/accounts/pkg/password"
	"github.com/fastygo/accounts/repository/postgres"
	authUC "github.com/fastygo/accounts/usecase/auth"
)

// createadmin creates the superuser, or rotates its password when the account
// already exists. Flags override ADMIN_EMAIL and ADMIN_PASSWORD.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	email := flag.String("email", cfg.Bootstrap.AdminEmail, "superuser email")
	pass := flag.String("password", cfg.Bootstrap.AdminPassword, "superuser password")
	flag.Parse()

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     "createadmin",
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	if *email == "" || *pass == "" {
		zapLogger.Error("both email and password are required (-email/-password or ADMIN_EMAIL/ADMIN_PASSWORD)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Context.ShutdownTimeout)
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, "createadmin", zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pgInfra.Close(pool, zapLogger)

	hasher := password.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLength)
	accounts := authUC.NewAccounts(postgres.NewUserRepository(pool), hasher, zapLogger)

	user, created, err := accounts.CreateSuperuser(ctx, *email, *pass)
	if err != nil {
		zapLogger.Fatal("create superuser failed", zap.Error(err))
	}
	if created {
		zapLogger.Info("superuser created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		return
	}
	zapLogger.Info("superuser password rotated", zap.String("user_id", user.ID), zap.String("email", user.Email))
}
