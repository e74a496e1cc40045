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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pokerlog/internal/config"
	cronrunner "pokerlog/internal/cron"
	"pokerlog/internal/db"
	"pokerlog/internal/handler"
	"pokerlog/internal/livesession"
	"pokerlog/internal/logger"
	gormrepository "pokerlog/internal/repository/gorm"
	"pokerlog/internal/service"
)

func main() {
	cfgPath := os.Getenv("PT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	importSvc := &service.ImportService{
		Repo:   store,
		Config: cfg.Import,
		Logger: logger,
	}
	sweepSvc := &service.DedupSweepService{Repo: store, Logger: logger}
	statsSvc := &service.StatsService{Repo: store}
	controller := &livesession.Controller{
		Repo:   store,
		Clock:  livesession.SystemClock(),
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	recordHandler := &handler.RecordHandler{Repo: store, Stats: statsSvc}
	recordHandler.Register(engine)
	importHandler := &handler.ImportHandler{Service: importSvc, Repo: store}
	importHandler.Register(engine)
	liveHandler := &handler.LiveHandler{Controller: controller}
	liveHandler.Register(engine)
	dedupHandler := &handler.DedupHandler{Service: sweepSvc}
	dedupHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && cfg.Dedup.SweepEnabled {
		_, err := cronRunner.Add(cfg.Cron.DedupSweep, func(ctx context.Context) {
			if err := sweepSvc.SweepAll(ctx, cfg.Dedup.SweepDryRun); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Warn("cron dedup sweep failed", zap.Error(err))
				}
			}
		})
		if err != nil {
			logger.Warn("cron register dedup sweep failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
