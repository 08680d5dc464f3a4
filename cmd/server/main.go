package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/auth"
	"swiftpolicy/internal/cache"
	"swiftpolicy/internal/config"
	"swiftpolicy/internal/db"
	"swiftpolicy/internal/handler"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/logger"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/pricing"
	"swiftpolicy/internal/repository"
	"swiftpolicy/internal/router"
	"swiftpolicy/internal/service"
	"swiftpolicy/internal/vehicle"
)

// @title SwiftPolicy API
// @version 1.0
// @description Motor insurance policy administration: quotes, vehicle lookup, policy lifecycle and an audited admin console.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.SQLitePath, log)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	m := metrics.New(prometheus.DefaultRegisterer)

	var idOpts []idgen.Option
	var engineOpts []pricing.Option
	if cfg.PricingSeed != 0 {
		idOpts = append(idOpts, idgen.WithSeed(cfg.PricingSeed))
		engineOpts = append(engineOpts, pricing.WithSeed(cfg.PricingSeed))
	}
	ids, err := idgen.New(idOpts...)
	if err != nil {
		log.Fatal("id generator", zap.Error(err))
	}

	store := repository.NewRegistry(gormDB, cacheClient, log, m)
	recorder := audit.NewRecorder(store, ids, audit.WithLogger(log), audit.WithMetrics(m))
	deps := service.Deps{Store: store, Recorder: recorder, IDs: ids, Log: log, Metrics: m}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL())
	tokenStore := auth.NewTokenStore(cacheClient)

	var provider vehicle.Provider
	if cfg.VehicleProviderURL != "" || cfg.VehicleVINURL != "" {
		provider = vehicle.NewHTTPProvider(cfg.VehicleProviderURL, cfg.VehicleProviderAPIKey, cfg.ProviderTimeout(),
			vehicle.WithVINEndpoint(cfg.VehicleVINURL))
	}
	if cfg.VehicleProviderURL == "" {
		log.Warn("VEHICLE_PROVIDER_URL not set; lookups fall back to reference data")
	}
	if cfg.VehicleVINURL == "" {
		log.Warn("VEHICLE_VIN_URL not set; VIN lookups fall back to manual entry")
	}

	// Initialize services
	identityService := service.NewIdentityService(deps, auth.NewHasher(cfg.BcryptCost), jwtService, tokenStore)
	riskService := service.NewRiskConfigService(deps)
	vehicleService := service.NewVehicleService(deps, provider)
	policyService := service.NewPolicyService(deps)
	quoteService := service.NewQuoteService(deps, pricing.NewEngine(engineOpts...))

	initial, err := config.LoadRiskConfig(cfg.RiskConfigFile)
	if err != nil {
		log.Fatal("risk config", zap.Error(err))
	}
	seeded, err := riskService.Seed(context.Background(), initial)
	if err != nil {
		log.Fatal("seed risk config", zap.Error(err))
	}
	if seeded {
		log.Info("risk configuration seeded", zap.String("file", cfg.RiskConfigFile))
	}

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(e, router.Options{
		JWT:        jwtService,
		TokenStore: tokenStore,
		Accounts:   identityService,
		Log:        log,
	}, router.Handlers{
		Auth:   handler.NewAuthHandler(identityService),
		Users:  handler.NewUserHandler(service.NewUserAdminService(deps)),
		Policy: handler.NewPolicyHandler(policyService, service.NewCheckoutService(policyService, quoteService)),
		Quotes: handler.NewQuoteHandler(quoteService, vehicleService),
		Admin: handler.NewAdminHandler(
			service.NewOperationsService(deps, cacheClient, provider),
			riskService,
			recorder,
		),
	})

	log.Info("swagger documentation available", zap.String("url", swaggerURL(cfg.SwaggerHost)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := cacheClient.Close(); err != nil {
		log.Warn("cache close", zap.Error(err))
	}
}

// swaggerURL builds the docs address. SwaggerHost may already carry a scheme.
func swaggerURL(host string) string {
	switch {
	case host == "":
		// docker-compose maps the container's 8080 to 5000
		return "http://localhost:5000/swagger/index.html"
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return host + "/swagger/index.html"
	default:
		return "http://" + host + "/swagger/index.html"
	}
}
