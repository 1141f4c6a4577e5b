package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hsdfat8/drivetrack/internal/adapters/cache"
	"github.com/hsdfat8/drivetrack/internal/adapters/factory"
	httpAdapter "github.com/hsdfat8/drivetrack/internal/adapters/http"
	"github.com/hsdfat8/drivetrack/internal/config"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/domain/service"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

func main() {
	log := logger.New("drivetrack-main", "info")

	cfg, err := config.Load(os.Getenv("DRIVETRACK_CONFIG"))
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}
	logger.SetLevel(cfg.Logging.Level)

	ctx := context.Background()

	db, err := factory.NewDatabaseAdapterFactory().CreateAndConnectAdapter(ctx, cfg.DatabaseAdapterConfig())
	if err != nil {
		log.Fatalw("Failed to initialize database", "type", cfg.Database.Type, "error", err)
	}
	log.Infow("Database connected", "type", db.GetType())

	store, err := factory.CreatePerformanceStore(ctx, ports.PerformanceStoreType(cfg.Performance.Store), cfg.MongoDBAdapterConfig(), db)
	if err != nil {
		log.Fatalw("Failed to initialize performance store", "store", cfg.Performance.Store, "error", err)
	}

	attention, err := factory.CreateAttentionCache(ctx, cfg.Cache.Enabled, cache.Config{
		Host:     cfg.Cache.Redis.Host,
		Port:     cfg.Cache.Redis.Port,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		PoolSize: cfg.Cache.Redis.PoolSize,
		TTL:      cfg.Cache.TTL,
	})
	if err != nil {
		log.Fatalw("Failed to initialize attention cache", "error", err)
	}
	var attentionCache ports.AttentionCache
	if attention != nil {
		attentionCache = attention
		log.Infow("Attention cache enabled", "ttl", cfg.Cache.TTL)
	}

	users := db.GetUserDirectory()
	equipment := db.GetEquipmentLookup()
	perfDefaults := service.WithPerformanceDefaults(cfg.Performance.WindowDays, cfg.Performance.InactivityDays)

	routes := httpAdapter.RouterConfig{
		Services: httpAdapter.Services{
			Inspections: service.NewInspectionService(db, users, equipment),
			Scheduler:   service.NewSchedulerService(db, equipment),
			Performance: service.NewPerformanceService(db, store.Repository, users, attentionCache, perfDefaults),
			Maintenance: service.NewMaintenanceService(db, equipment),
		},
		Database: db,
		Users:    users,
	}
	if cfg.Metrics.Enabled {
		logger.InitMetrics()
		routes.MetricsHandler = logger.MetricsHandler()
		routes.MetricsPath = cfg.Metrics.Path
	}

	httpServer := httpAdapter.NewServer(httpAdapter.ServerConfig{
		ListenAddr:      cfg.ListenAddr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		EnableH2C:       cfg.Server.EnableH2C,
	}, routes)

	if err := httpServer.Start(); err != nil {
		log.Fatalw("Failed to start HTTP server", "error", err)
	}
	log.Infow("HTTP server listening", "address", httpServer.GetAddr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("Shutting down")

	if err := httpServer.Stop(); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}
	if attention != nil {
		if err := attention.Close(); err != nil {
			log.Warnw("Redis close error", "error", err)
		}
	}
	if err := store.Close(ctx); err != nil {
		log.Warnw("Performance store close error", "error", err)
	}
	if err := db.Disconnect(ctx); err != nil {
		log.Errorw("Database disconnect error", "error", err)
	}

	log.Infow("Stopped gracefully")
}
