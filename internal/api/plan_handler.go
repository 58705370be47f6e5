package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"
	"nutricoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler handles trainee-facing plan endpoints: assessment intake,
// provisioning, consumption tracking and the tracking window.
type PlanHandler struct {
	planService        service.PlanService
	consumptionService service.ConsumptionService
	trackingService    service.TrackingService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(
	planService service.PlanService,
	consumptionService service.ConsumptionService,
	trackingService service.TrackingService,
) *PlanHandler {
	return &PlanHandler{
		planService:        planService,
		consumptionService: consumptionService,
		trackingService:    trackingService,
	}
}

// --- Request Structs ---

type SubmitAssessmentRequest struct {
	Gender        domain.Gender        `json:"gender" binding:"required,oneof=male female"`
	BirthDate     time.Time            `json:"birthDate" binding:"required"`
	WeightKg      float64              `json:"weightKg" binding:"required,gt=0"`
	HeightCm      float64              `json:"heightCm" binding:"required,gt=0"`
	Goal          domain.FitnessGoal   `json:"goal" binding:"omitempty,oneof=lose_weight build_muscle healthy_lifestyle"`
	ActivityLevel domain.ActivityLevel `json:"activityLevel" binding:"omitempty,oneof=sedentary light moderate active very_active"`
	Restrictions  []string             `json:"restrictions"`
}

type CreateCustomizedPlanRequest struct {
	AssessmentID string `json:"assessmentId" binding:"required"`
}

type SubscribeToTemplateRequest struct {
	TemplateID string    `json:"templateId" binding:"required"`
	StartDate  time.Time `json:"startDate" binding:"required"`
}

type SetStartDateRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
}

type FoodConsumptionChangeRequest struct {
	FoodIndex int  `json:"foodIndex"`
	Consumed  bool `json:"consumed"`
}

type UpdateConsumptionRequest struct {
	DayIndex      int                            `json:"dayIndex"`
	MealIndex     int                            `json:"mealIndex"`
	Foods         []FoodConsumptionChangeRequest `json:"foods" binding:"required,min=1"`
	MarkWholeMeal bool                           `json:"markWholeMeal"`
}

// --- Response Structs (DTOs) ---

type FoodEntryResponse struct {
	FoodID      string             `json:"foodId"`
	Name        string             `json:"name"`
	Image       string             `json:"image,omitempty"`
	ServingUnit string             `json:"servingUnit,omitempty"`
	Amount      float64            `json:"amount"`
	Macros      domain.MacroTarget `json:"macros"`
	Consumed    bool               `json:"consumed"`
}

type MealResponse struct {
	Name       string              `json:"name"`
	Type       domain.MealType     `json:"type"`
	Note       string              `json:"note,omitempty"`
	MealMacros domain.MacroTarget  `json:"mealMacros"`
	Foods      []FoodEntryResponse `json:"foods"`
}

type DayResponse struct {
	Name           string             `json:"name"`
	StartDate      time.Time          `json:"startDate"`
	DayMacros      domain.MacroTarget `json:"dayMacros"`
	EatenDayMacros domain.MacroTarget `json:"eatenDayMacros"`
	Meals          []MealResponse     `json:"meals"`
}

type PlanResponse struct {
	ID             string             `json:"id"`
	TraineeID      *string            `json:"traineeId,omitempty"`
	TrainerID      string             `json:"trainerId"`
	Name           string             `json:"name"`
	PlanType       domain.PlanType    `json:"planType"`
	Status         domain.PlanStatus  `json:"status"`
	StartDate      time.Time          `json:"startDate"`
	PlanMacros     domain.MacroTarget `json:"planMacros"`
	OriginalPlanID *string            `json:"originalPlanId,omitempty"`
	Days           []DayResponse      `json:"days"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type AssessmentResponse struct {
	ID           string                  `json:"id"`
	TraineeID    string                  `json:"traineeId"`
	Profile      domain.BiometricProfile `json:"profile"`
	Restrictions []string                `json:"restrictions,omitempty"`
	Result       domain.MacroTarget      `json:"result"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// --- Handler Methods ---

// SubmitAssessment stores a biometric intake and returns the computed macro
// target alongside it.
func (h *PlanHandler) SubmitAssessment(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubmitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile := domain.BiometricProfile{
		Gender:        req.Gender,
		BirthDate:     req.BirthDate,
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		Goal:          req.Goal,
		ActivityLevel: req.ActivityLevel,
	}

	assessment, err := h.planService.SubmitAssessment(c.Request.Context(), traineeID, profile, req.Restrictions)
	if err != nil {
		if errors.Is(err, service.ErrIncompleteProfile) || errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to store assessment")
		}
		return
	}

	c.JSON(http.StatusCreated, MapAssessmentToResponse(assessment))
}

// GetLatestAssessment returns the trainee's most recent assessment.
func (h *PlanHandler) GetLatestAssessment(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	assessment, err := h.planService.GetLatestAssessment(c.Request.Context(), traineeID)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve assessment")
		}
		return
	}

	c.JSON(http.StatusOK, MapAssessmentToResponse(assessment))
}

// CreateCustomizedPlan provisions a new Current plan from an assessment,
// archiving whatever plan was Current before.
func (h *PlanHandler) CreateCustomizedPlan(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateCustomizedPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	assessmentID, err := primitive.ObjectIDFromHex(req.AssessmentID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assessment ID format")
		return
	}

	plan, err := h.planService.CreateCustomizedPlan(c.Request.Context(), traineeID, assessmentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrIncompleteProfile), errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan")
		}
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// SubscribeToTemplate clones a free template into a dated Current plan for the
// trainee.
func (h *PlanHandler) SubscribeToTemplate(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubscribeToTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.TemplateID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	plan, err := h.planService.SubscribeToTemplate(c.Request.Context(), traineeID, templateID, req.StartDate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotTemplate), errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrOverlappingSchedule):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to subscribe to template")
		}
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// SetStartDate re-dates an existing plan of the trainee.
func (h *PlanHandler) SetStartDate(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	var req SetStartDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.SetStartDate(c.Request.Context(), traineeID, planID, req.StartDate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrOverlappingSchedule), errors.Is(err, repository.ErrConflict):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to set start date")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// UpdateConsumption flips consumed flags on one meal of the trainee's plan.
func (h *PlanHandler) UpdateConsumption(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	var req UpdateConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	changes := make([]service.FoodConsumptionChange, len(req.Foods))
	for i, f := range req.Foods {
		changes[i] = service.FoodConsumptionChange{FoodIndex: f.FoodIndex, Consumed: f.Consumed}
	}

	plan, err := h.consumptionService.UpdateConsumption(c.Request.Context(), traineeID, planID, req.DayIndex, req.MealIndex, changes, req.MarkWholeMeal)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidIndex), errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrConflict):
			abortWithError(c, http.StatusConflict, "Plan was modified concurrently, retry the request")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update consumption")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// GetCurrentPlan returns the trainee's Current plan.
func (h *PlanHandler) GetCurrentPlan(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetCurrentPlan(c.Request.Context(), traineeID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve current plan")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// GetPlan returns one plan the trainee owns.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	plan, err := h.planService.GetPlanForTrainee(c.Request.Context(), traineeID, planID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// GetMyPlans returns every plan the trainee owns, newest first.
func (h *PlanHandler) GetMyPlans(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	plans, err := h.planService.GetPlansForTrainee(c.Request.Context(), traineeID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans")
		return
	}

	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// GetTemplates lists the free templates available for subscription.
func (h *PlanHandler) GetTemplates(c *gin.Context) {
	templates, err := h.planService.GetTemplates(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, MapPlansToResponse(templates))
}

// GetTrackingWindow returns the trainee's gap-filled daily series. The window
// size comes from the "days" query parameter, default 7.
func (h *PlanHandler) GetTrackingWindow(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}

	windowDays := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			abortWithError(c, http.StatusBadRequest, "Query parameter 'days' must be a positive integer")
			return
		}
		windowDays = parsed
	}

	window, err := h.trackingService.GetTrackingWindow(c.Request.Context(), traineeID, windowDays)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to build tracking window")
		}
		return
	}

	c.JSON(http.StatusOK, window)
}

// --- Mapping Functions ---

// MapPlanToResponse converts a domain Plan to a PlanResponse DTO.
func MapPlanToResponse(plan *domain.Plan) PlanResponse {
	if plan == nil {
		return PlanResponse{}
	}

	resp := PlanResponse{
		ID:         plan.ID.Hex(),
		TrainerID:  plan.TrainerID.Hex(),
		Name:       plan.Name,
		PlanType:   plan.PlanType,
		Status:     plan.Status,
		StartDate:  plan.StartDate,
		PlanMacros: plan.PlanMacros,
		Days:       make([]DayResponse, len(plan.Days)),
		CreatedAt:  plan.CreatedAt,
		UpdatedAt:  plan.UpdatedAt,
	}
	if plan.TraineeID != nil && *plan.TraineeID != primitive.NilObjectID {
		traineeIDHex := (*plan.TraineeID).Hex()
		resp.TraineeID = &traineeIDHex
	}
	if plan.OriginalPlanID != nil && *plan.OriginalPlanID != primitive.NilObjectID {
		originalIDHex := (*plan.OriginalPlanID).Hex()
		resp.OriginalPlanID = &originalIDHex
	}
	for i, day := range plan.Days {
		resp.Days[i] = mapDayToResponse(day)
	}
	return resp
}

// MapPlansToResponse converts a slice of domain Plans to DTOs.
func MapPlansToResponse(plans []domain.Plan) []PlanResponse {
	resp := make([]PlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapPlanToResponse(&plans[i])
	}
	return resp
}

func mapDayToResponse(day domain.Day) DayResponse {
	resp := DayResponse{
		Name:           day.Name,
		StartDate:      day.StartDate,
		DayMacros:      day.DayMacros,
		EatenDayMacros: day.EatenDayMacros,
		Meals:          make([]MealResponse, len(day.Meals)),
	}
	for i, meal := range day.Meals {
		resp.Meals[i] = mapMealToResponse(meal)
	}
	return resp
}

func mapMealToResponse(meal domain.Meal) MealResponse {
	resp := MealResponse{
		Name:       meal.Name,
		Type:       meal.Type,
		Note:       meal.Note,
		MealMacros: meal.MealMacros,
		Foods:      make([]FoodEntryResponse, len(meal.Foods)),
	}
	for i, food := range meal.Foods {
		resp.Foods[i] = FoodEntryResponse{
			FoodID:      food.FoodID.Hex(),
			Name:        food.Name,
			Image:       food.Image,
			ServingUnit: food.ServingUnit,
			Amount:      food.Amount,
			Macros:      food.Macros,
			Consumed:    food.Consumed,
		}
	}
	return resp
}

// MapAssessmentToResponse converts a domain DietAssessment to a DTO.
func MapAssessmentToResponse(assessment *domain.DietAssessment) AssessmentResponse {
	if assessment == nil {
		return AssessmentResponse{}
	}
	return AssessmentResponse{
		ID:           assessment.ID.Hex(),
		TraineeID:    assessment.TraineeID.Hex(),
		Profile:      assessment.Profile,
		Restrictions: assessment.Restrictions,
		Result:       assessment.Result,
		CreatedAt:    assessment.CreatedAt,
	}
}

// --- Shared Handler Helpers ---

// requireUserID pulls the authenticated user's ObjectID from the context,
// writing the error response itself on failure.
func requireUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Invalid user ID format in token")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// parseIDParam parses a path parameter as an ObjectID, writing the error
// response itself on failure.
func parseIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
