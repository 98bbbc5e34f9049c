package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/internal/cache"
	"relief_backend/internal/config"
	"relief_backend/internal/database"
	"relief_backend/internal/repositories"
	"relief_backend/internal/router"
	"relief_backend/internal/services"
	"relief_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	utils.InitLogger("info")

	cfg, err := config.Load()
	if err != nil {
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.LogLevel)
	utils.InitJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	base := allocation.DefaultThresholds()
	if err := base.Validate(); err != nil {
		utils.LogError(err, "Built-in safety thresholds are invalid")
		os.Exit(1)
	}

	var cacheOpts []cache.Option
	if cfg.Redis.Enabled() {
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			utils.LogError(err, "Redis unavailable, using in-process threshold cache only")
		} else {
			defer rdb.Close()
			cacheOpts = append(cacheOpts, cache.WithSharedStore(cache.NewRedisStore(rdb, "relief:")))
			utils.LogInfo("Redis threshold cache enabled", map[string]interface{}{"addr": cfg.Redis.Addr})
		}
	}
	thresholdRepo := repositories.NewThresholdRepository(db)
	thresholds := cache.NewThresholdCache(base, services.ThresholdOverridesLoader(thresholdRepo, base), cfg.Thresholds.CacheTTL, cacheOpts...)
	// Overrides that break the table stop startup.
	if _, err := thresholds.Get(ctx); err != nil {
		utils.LogError(err, "Failed to load safety thresholds")
		os.Exit(1)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", utils.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{utils.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	err = router.Setup(engine, db, router.Options{
		LoginRateLimit:      cfg.Auth.LoginRateLimit,
		AutoApproveRequests: cfg.Requests.AutoApprove,
		Thresholds:          thresholds,
	})
	if err != nil {
		utils.LogError(err, "Failed to set up routes")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "auto_approve_requests": cfg.Requests.AutoApprove})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
	utils.LogInfo("Server exited")
}
