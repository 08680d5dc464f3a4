package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/auth"
	"swiftpolicy/internal/cache"
	"swiftpolicy/internal/config"
	"swiftpolicy/internal/db"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/logger"
	"swiftpolicy/internal/repository"
	"swiftpolicy/internal/service"
)

const seedAdminName = "SwiftPolicy Administrator"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("seed")
	log.Info("starting seed script")

	// Connect to database
	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.SQLitePath, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed", zap.String("driver", cfg.DBDriver))

	var idOpts []idgen.Option
	if cfg.PricingSeed != 0 {
		idOpts = append(idOpts, idgen.WithSeed(cfg.PricingSeed))
	}
	ids, err := idgen.New(idOpts...)
	if err != nil {
		log.Fatal("id generator", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()

	store := repository.NewRegistry(gormDB, cacheClient, log, nil)
	recorder := audit.NewRecorder(store, ids, audit.WithLogger(log))
	deps := service.Deps{Store: store, Recorder: recorder, IDs: ids, Log: log}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	initial, err := config.LoadRiskConfig(cfg.RiskConfigFile)
	if err != nil {
		log.Fatal("failed to read risk config", zap.Error(err))
	}
	seeded, err := service.NewRiskConfigService(deps).Seed(ctx, initial)
	if err != nil {
		log.Fatal("failed to seed risk config", zap.Error(err))
	}
	log.Info("risk configuration", zap.Bool("seeded", seeded), zap.String("file", cfg.RiskConfigFile))

	if cfg.AdminSeedEmail == "" || cfg.AdminSeedPassword == "" {
		log.Warn("ADMIN_SEED_EMAIL or ADMIN_SEED_PASSWORD not set; skipping administrator")
		return
	}

	identity := service.NewIdentityService(deps, auth.NewHasher(cfg.BcryptCost), auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL()), auth.NewTokenStore(cacheClient))
	admin, err := identity.ProvisionAdmin(ctx, seedAdminName, cfg.AdminSeedEmail, cfg.AdminSeedPassword)
	if err != nil {
		log.Fatal("failed to provision administrator", zap.Error(err))
	}
	log.Info("seed completed successfully",
		zap.String("admin_id", admin.ID),
		zap.String("admin_email", admin.Email),
	)
}
