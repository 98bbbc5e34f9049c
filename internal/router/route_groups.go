package router

import (
	"relief_backend/internal/handlers"
	"relief_backend/internal/middleware"
	"relief_backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	roleAdmin = models.RoleAdmin
	roleStaff = models.RoleStaff
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, loginLimiter gin.HandlerFunc) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", middleware.OptionalAuthMiddleware(), authHandler.RegisterUser)
		authRoutes.POST("/login", loginLimiter, authHandler.LoginUser)
		authRoutes.GET("/me", middleware.AuthMiddleware(), authHandler.GetCurrentUser)
	}
}

// SetupBeneficiaryRoutes sets up beneficiary and request routes.
// Static request paths are registered before /:id.
func SetupBeneficiaryRoutes(authenticatedGroup *gin.RouterGroup, beneficiaryHandler *handlers.BeneficiaryHandler, requestHandler *handlers.RequestHandler) {
	beneficiaryRoutes := authenticatedGroup.Group("/beneficiaries")
	{
		requestRoutes := beneficiaryRoutes.Group("/requests")
		{
			requestRoutes.POST("", requestHandler.CreateRequest)
			requestRoutes.GET("/all", requestHandler.GetRequests)
			requestRoutes.GET("/:id", requestHandler.GetRequestByID)
			requestRoutes.PATCH("/:id/status", requestHandler.UpdateRequestStatus)
			requestRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleAdmin), requestHandler.DeleteRequest)
		}

		beneficiaryRoutes.POST("", beneficiaryHandler.CreateBeneficiary)
		beneficiaryRoutes.GET("", beneficiaryHandler.GetBeneficiaries)
		beneficiaryRoutes.GET("/:id", beneficiaryHandler.GetBeneficiaryByID)
		beneficiaryRoutes.PUT("/:id", beneficiaryHandler.UpdateBeneficiary)
		beneficiaryRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleAdmin), beneficiaryHandler.DeleteBeneficiary)
		beneficiaryRoutes.GET("/:id/requests", beneficiaryHandler.GetBeneficiaryRequests)
	}
}

// SetupInventoryRoutes sets up stock, catalogue, threshold and ledger routes.
func SetupInventoryRoutes(
	authenticatedGroup *gin.RouterGroup,
	inventoryHandler *handlers.InventoryHandler,
	movementHandler *handlers.InventoryMovementHandler,
	reportHandler *handlers.ReportHandler,
	thresholdHandler *handlers.ThresholdHandler,
) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	{
		inventoryRoutes.GET("/categories", inventoryHandler.GetCategories)
		inventoryRoutes.GET("/item-types", inventoryHandler.GetItemTypes)
		inventoryRoutes.GET("/stats", reportHandler.GetInventoryStats)
		inventoryRoutes.GET("/movements", movementHandler.GetInventoryMovements)

		thresholdRoutes := inventoryRoutes.Group("/thresholds")
		{
			thresholdRoutes.GET("", thresholdHandler.GetThresholds)
			thresholdRoutes.PUT("/:name", middleware.RoleAuthMiddleware(roleAdmin), thresholdHandler.UpsertThreshold)
			thresholdRoutes.DELETE("/:name", middleware.RoleAuthMiddleware(roleAdmin), thresholdHandler.DeleteThreshold)
		}

		inventoryRoutes.POST("", inventoryHandler.CreateInventoryItem)
		inventoryRoutes.GET("", inventoryHandler.GetInventoryItems)
		inventoryRoutes.GET("/:id", inventoryHandler.GetInventoryItemByID)
		inventoryRoutes.PUT("/:id", inventoryHandler.UpdateInventoryItem)
		inventoryRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleAdmin), inventoryHandler.DeleteInventoryItem)
	}
}

// SetupDistributionRoutes sets up recommendation and plan routes. Lifecycle changes are Admin only.
func SetupDistributionRoutes(authenticatedGroup *gin.RouterGroup, distributionHandler *handlers.DistributionHandler) {
	distributionRoutes := authenticatedGroup.Group("/distribution")
	{
		distributionRoutes.POST("/recommendations", distributionHandler.Recommend)

		planRoutes := distributionRoutes.Group("/plans")
		{
			planRoutes.POST("", distributionHandler.CreatePlans)
			planRoutes.GET("", distributionHandler.GetPlans)
			planRoutes.GET("/:id", distributionHandler.GetPlanByID)

			adminOnly := planRoutes.Group("")
			adminOnly.Use(middleware.RoleAuthMiddleware(roleAdmin))
			{
				adminOnly.PATCH("/:id/status", distributionHandler.UpdatePlanStatus)
				adminOnly.POST("/:id/execute", distributionHandler.ExecutePlan)
				adminOnly.DELETE("/:id", distributionHandler.DeletePlan)
			}
		}
	}
}
