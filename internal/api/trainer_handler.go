package api

import (
	"errors"
	"fmt"
	"net/http"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler handles trainer-facing endpoints: trainee roster, plan
// authoring and oversight of coached trainees.
type TrainerHandler struct {
	trainerService service.TrainerService
	planService    service.PlanService
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(trainerService service.TrainerService, planService service.PlanService) *TrainerHandler {
	return &TrainerHandler{
		trainerService: trainerService,
		planService:    planService,
	}
}

// --- Request Structs ---

type AddTraineeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type FoodEntryRequest struct {
	FoodID string  `json:"foodId" binding:"required"`
	Amount float64 `json:"amount"` // serving multiplier, defaults to 1
}

type MealRequest struct {
	Name  string             `json:"name" binding:"required"`
	Type  domain.MealType    `json:"type" binding:"required,oneof=breakfast lunch snack dinner"`
	Note  string             `json:"note"`
	Foods []FoodEntryRequest `json:"foods"`
}

type DayRequest struct {
	Name  string        `json:"name"`
	Meals []MealRequest `json:"meals"`
}

type CreateTemplateRequest struct {
	Name       string             `json:"name" binding:"required"`
	PlanMacros domain.MacroTarget `json:"planMacros"`
	Days       []DayRequest       `json:"days"`
}

type SetPlanDaysRequest struct {
	Days []DayRequest `json:"days" binding:"required"`
}

// --- Handler Methods ---

// AddTrainee assigns an existing trainee account to the trainer by email.
func (h *TrainerHandler) AddTrainee(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AddTraineeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	trainee, err := h.trainerService.AddTraineeByEmail(c.Request.Context(), trainerID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTraineeNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTraineeNotRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTraineeAlreadyAssigned):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add trainee")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(trainee))
}

// GetManagedTrainees lists the trainees coached by the trainer.
func (h *TrainerHandler) GetManagedTrainees(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	trainees, err := h.trainerService.GetManagedTrainees(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve trainees")
		return
	}

	resp := make([]UserResponse, len(trainees))
	for i := range trainees {
		resp[i] = MapUserToResponse(&trainees[i])
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTemplate authors a new free template with a full day tree.
func (h *TrainerHandler) CreateTemplate(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	days, err := mapDayRequests(req.Days)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planService.CreateTemplate(c.Request.Context(), trainerID, req.Name, req.PlanMacros, days)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create template")
		}
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// SetPlanDays replaces the day tree of a plan the trainer authored.
func (h *TrainerHandler) SetPlanDays(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	var req SetPlanDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	days, err := mapDayRequests(req.Days)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planService.SetPlanDays(c.Request.Context(), trainerID, planID, days)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrFoodNotFound), errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to set plan days")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// GetTraineePlans lists the plans the trainer authored for a coached trainee.
func (h *TrainerHandler) GetTraineePlans(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	traineeID, ok := parseIDParam(c, "traineeId")
	if !ok {
		return
	}

	plans, err := h.trainerService.GetPlansForTrainee(c.Request.Context(), trainerID, traineeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTraineeNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTraineeNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// GetTraineeAssessment returns the latest assessment of a coached trainee.
func (h *TrainerHandler) GetTraineeAssessment(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	traineeID, ok := parseIDParam(c, "traineeId")
	if !ok {
		return
	}

	assessment, err := h.trainerService.GetTraineeAssessment(c.Request.Context(), trainerID, traineeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTraineeNotFound), errors.Is(err, service.ErrAssessmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTraineeNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve assessment")
		}
		return
	}

	c.JSON(http.StatusOK, MapAssessmentToResponse(assessment))
}

// mapDayRequests converts authoring DTOs into service inputs, parsing the
// catalog food IDs.
func mapDayRequests(days []DayRequest) ([]service.DayInput, error) {
	mapped := make([]service.DayInput, len(days))
	for i, day := range days {
		dayIn := service.DayInput{
			Name:  day.Name,
			Meals: make([]service.MealInput, len(day.Meals)),
		}
		for j, meal := range day.Meals {
			mealIn := service.MealInput{
				Name:  meal.Name,
				Type:  meal.Type,
				Note:  meal.Note,
				Foods: make([]service.FoodEntryInput, len(meal.Foods)),
			}
			for k, food := range meal.Foods {
				foodID, err := primitive.ObjectIDFromHex(food.FoodID)
				if err != nil {
					return nil, fmt.Errorf("invalid food ID format: %s", food.FoodID)
				}
				mealIn.Foods[k] = service.FoodEntryInput{FoodID: foodID, Amount: food.Amount}
			}
			dayIn.Meals[j] = mealIn
		}
		mapped[i] = dayIn
	}
	return mapped, nil
}
