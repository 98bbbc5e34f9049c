package router

import (
	"database/sql"
	"fmt"

	"relief_backend/internal/handlers"
	"relief_backend/internal/middleware"
	"relief_backend/internal/repositories"
	"relief_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Options carries the runtime settings the routes need.
type Options struct {
	LoginRateLimit      string // limiter format, e.g. "10-M"
	AutoApproveRequests bool
	Thresholds          services.ThresholdSource
}

// Setup wires repositories, services and handlers and registers all /api routes.
func Setup(engine *gin.Engine, db *sql.DB, opts Options) error {
	// Repositories
	tx := repositories.NewTransactor(db)
	authRepo := repositories.NewAuthRepository(db)
	beneficiaryRepo := repositories.NewBeneficiaryRepository(db)
	requestRepo := repositories.NewRequestRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	movementRepo := repositories.NewInventoryMovementRepository(db)
	distributionRepo := repositories.NewDistributionRepository(db)
	thresholdRepo := repositories.NewThresholdRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, tx)
	beneficiaryService := services.NewBeneficiaryService(beneficiaryRepo, tx)
	requestService := services.NewRequestService(requestRepo, tx, opts.AutoApproveRequests)
	inventoryService := services.NewInventoryService(inventoryRepo, movementRepo, opts.Thresholds, tx)
	thresholdService := services.NewThresholdService(thresholdRepo, opts.Thresholds, tx)
	distributionService := services.NewDistributionService(distributionRepo, requestRepo, inventoryRepo, movementRepo, opts.Thresholds, tx)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	beneficiaryHandler := handlers.NewBeneficiaryHandler(beneficiaryService, requestService)
	requestHandler := handlers.NewRequestHandler(requestService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	movementHandler := handlers.NewInventoryMovementHandler(inventoryService)
	reportHandler := handlers.NewReportHandler(inventoryService)
	thresholdHandler := handlers.NewThresholdHandler(thresholdService)
	distributionHandler := handlers.NewDistributionHandler(distributionService)

	loginLimiter, err := middleware.RateLimitMiddleware(opts.LoginRateLimit)
	if err != nil {
		return fmt.Errorf("login rate limiter: %w", err)
	}

	api := engine.Group("/api")
	SetupAuthRoutes(api, authHandler, loginLimiter)

	authenticated := api.Group("")
	authenticated.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(roleAdmin, roleStaff))
	{
		SetupBeneficiaryRoutes(authenticated, beneficiaryHandler, requestHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler, movementHandler, reportHandler, thresholdHandler)
		SetupDistributionRoutes(authenticated, distributionHandler)
	}
	return nil
}
