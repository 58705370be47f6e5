package api

import (
	"net/http"
	"nutricoach/coach-app/internal/domain" // Needed for RoleMiddleware
	"nutricoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	consumptionService service.ConsumptionService,
	trackingService service.TrackingService,
	trainerService service.TrainerService,
	foodService service.FoodService,
) {

	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService, consumptionService, trackingService)
	trainerHandler := NewTrainerHandler(trainerService, planService)
	foodHandler := NewFoodHandler(foodService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Template Browsing ---
		// Any authenticated user can browse the free templates.
		protected.GET("/templates", planHandler.GetTemplates)

		// --- Trainee Routes ---
		traineeGroup := protected.Group("/trainee")
		traineeGroup.Use(RoleMiddleware(domain.RoleTrainee))
		{
			// Assessment intake
			// POST /api/v1/trainee/assessments
			traineeGroup.POST("/assessments", planHandler.SubmitAssessment)
			// GET /api/v1/trainee/assessments/latest
			traineeGroup.GET("/assessments/latest", planHandler.GetLatestAssessment)

			// Plan provisioning
			// POST /api/v1/trainee/plans - create a customized plan from an assessment
			traineeGroup.POST("/plans", planHandler.CreateCustomizedPlan)
			// POST /api/v1/trainee/plans/subscribe - clone a free template
			traineeGroup.POST("/plans/subscribe", planHandler.SubscribeToTemplate)
			// PUT /api/v1/trainee/plans/{planId}/start-date
			traineeGroup.PUT("/plans/:planId/start-date", planHandler.SetStartDate)

			// Plan reads
			// GET /api/v1/trainee/plans
			traineeGroup.GET("/plans", planHandler.GetMyPlans)
			// GET /api/v1/trainee/plans/current
			traineeGroup.GET("/plans/current", planHandler.GetCurrentPlan)
			// GET /api/v1/trainee/plans/{planId}
			traineeGroup.GET("/plans/:planId", planHandler.GetPlan)

			// Consumption tracking
			// PUT /api/v1/trainee/plans/{planId}/consumption
			traineeGroup.PUT("/plans/:planId/consumption", planHandler.UpdateConsumption)

			// Tracking window
			// GET /api/v1/trainee/tracking?days=7
			traineeGroup.GET("/tracking", planHandler.GetTrackingWindow)
		}

		// --- Trainer Routes ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			// POST /api/v1/trainer/trainees
			trainerApiGroup.POST("/trainees", trainerHandler.AddTrainee)
			// GET /api/v1/trainer/trainees
			trainerApiGroup.GET("/trainees", trainerHandler.GetManagedTrainees)

			// --- Trainee Oversight ---
			// GET /api/v1/trainer/trainees/{traineeId}/plans
			trainerApiGroup.GET("/trainees/:traineeId/plans", trainerHandler.GetTraineePlans)
			// GET /api/v1/trainer/trainees/{traineeId}/assessment
			trainerApiGroup.GET("/trainees/:traineeId/assessment", trainerHandler.GetTraineeAssessment)

			// --- Plan Authoring ---
			// POST /api/v1/trainer/templates
			trainerApiGroup.POST("/templates", trainerHandler.CreateTemplate)
			// PUT /api/v1/trainer/plans/{planId}/days
			trainerApiGroup.PUT("/plans/:planId/days", trainerHandler.SetPlanDays)

			// --- Food Catalog ---
			// POST /api/v1/trainer/foods
			trainerApiGroup.POST("/foods", foodHandler.CreateFood)
			// GET /api/v1/trainer/foods
			trainerApiGroup.GET("/foods", foodHandler.GetFoods)
			// PUT /api/v1/trainer/foods/{foodId}
			trainerApiGroup.PUT("/foods/:foodId", foodHandler.UpdateFood)
			// DELETE /api/v1/trainer/foods/{foodId}
			trainerApiGroup.DELETE("/foods/:foodId", foodHandler.DeleteFood)

			// --- Food Image Upload Flow ---
			// POST /api/v1/trainer/foods/{foodId}/image/upload-url
			trainerApiGroup.POST("/foods/:foodId/image/upload-url", foodHandler.RequestUploadURL)
			// POST /api/v1/trainer/foods/{foodId}/image/confirm
			trainerApiGroup.POST("/foods/:foodId/image/confirm", foodHandler.ConfirmUpload)
		}

		// --- Shared Food Reads ---
		// Trainees see catalog items referenced from their plans.
		foodGroup := protected.Group("/foods")
		{
			// GET /api/v1/foods/{foodId}
			foodGroup.GET("/:foodId", foodHandler.GetFood)
			// GET /api/v1/foods/{foodId}/image
			foodGroup.GET("/:foodId/image", foodHandler.GetImageDownloadURL)
		}
	}
}
