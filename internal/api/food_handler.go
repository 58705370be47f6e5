package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// FoodHandler handles the trainer's food catalog and its image upload flow.
type FoodHandler struct {
	foodService service.FoodService
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(foodService service.FoodService) *FoodHandler {
	return &FoodHandler{foodService: foodService}
}

// --- Request/Response Structs ---

type CreateFoodRequest struct {
	Name        string             `json:"name" binding:"required"`
	ServingUnit string             `json:"servingUnit"`
	Macros      domain.MacroTarget `json:"macros"`
}

type UpdateFoodRequest struct {
	Name        string             `json:"name" binding:"required"`
	ServingUnit string             `json:"servingUnit"`
	Macros      domain.MacroTarget `json:"macros"`
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type FoodResponse struct {
	ID          string             `json:"id"`
	TrainerID   string             `json:"trainerId"`
	Name        string             `json:"name"`
	ServingUnit string             `json:"servingUnit,omitempty"`
	Macros      domain.MacroTarget `json:"macros"`
	HasImage    bool               `json:"hasImage"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// --- Handler Methods ---

// CreateFood adds a new catalog item for the trainer.
func (h *FoodHandler) CreateFood(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	food, err := h.foodService.CreateFood(c.Request.Context(), trainerID, req.Name, req.ServingUnit, req.Macros)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create food")
		}
		return
	}

	c.JSON(http.StatusCreated, MapFoodToResponse(food))
}

// GetFoods lists the trainer's catalog.
func (h *FoodHandler) GetFoods(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	foods, err := h.foodService.GetFoodsByTrainer(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve foods")
		return
	}

	resp := make([]FoodResponse, len(foods))
	for i := range foods {
		resp[i] = MapFoodToResponse(&foods[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetFood returns one catalog item.
func (h *FoodHandler) GetFood(c *gin.Context) {
	foodID, ok := parseIDParam(c, "foodId")
	if !ok {
		return
	}

	food, err := h.foodService.GetFood(c.Request.Context(), foodID)
	if err != nil {
		if errors.Is(err, service.ErrFoodNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve food")
		}
		return
	}

	c.JSON(http.StatusOK, MapFoodToResponse(food))
}

// UpdateFood persists edits to a catalog item.
func (h *FoodHandler) UpdateFood(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	foodID, ok := parseIDParam(c, "foodId")
	if !ok {
		return
	}

	var req UpdateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	food := &domain.Food{
		ID:          foodID,
		Name:        req.Name,
		ServingUnit: req.ServingUnit,
		Macros:      req.Macros,
	}
	updated, err := h.foodService.UpdateFood(c.Request.Context(), trainerID, food)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFoodAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update food")
		}
		return
	}

	c.JSON(http.StatusOK, MapFoodToResponse(updated))
}

// DeleteFood removes a catalog item.
func (h *FoodHandler) DeleteFood(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	foodID, ok := parseIDParam(c, "foodId")
	if !ok {
		return
	}

	err := h.foodService.DeleteFood(c.Request.Context(), trainerID, foodID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFoodAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete food")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// === Image Upload Flow ===

// RequestUploadURL generates a presigned PUT URL for a food image.
func (h *FoodHandler) RequestUploadURL(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	foodID, ok := parseIDParam(c, "foodId")
	if !ok {
		return
	}

	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.foodService.RequestImageUploadURL(c.Request.Context(), trainerID, foodID, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFoodAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidContentType), errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload records the uploaded image's object key on the food.
func (h *FoodHandler) ConfirmUpload(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	foodID, ok := parseIDParam(c, "foodId")
	if !ok {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	food, err := h.foodService.ConfirmImageUpload(c.Request.Context(), trainerID, foodID, req.ObjectKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFoodAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to confirm upload")
		}
		return
	}

	c.JSON(http.StatusOK, MapFoodToResponse(food))
}

// GetImageDownloadURL returns a temporary URL for viewing a food's image.
func (h *FoodHandler) GetImageDownloadURL(c *gin.Context) {
	foodID, ok := parseIDParam(c, "foodId")
	if !ok {
		return
	}

	url, err := h.foodService.GetImageDownloadURL(c.Request.Context(), foodID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFoodNotFound), errors.Is(err, service.ErrImageMissing):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// MapFoodToResponse converts a domain Food to a FoodResponse DTO. The raw
// object key stays internal; clients fetch images through the download URL
// endpoint.
func MapFoodToResponse(food *domain.Food) FoodResponse {
	if food == nil {
		return FoodResponse{}
	}
	return FoodResponse{
		ID:          food.ID.Hex(),
		TrainerID:   food.TrainerID.Hex(),
		Name:        food.Name,
		ServingUnit: food.ServingUnit,
		Macros:      food.Macros,
		HasImage:    food.ImageKey != "",
		CreatedAt:   food.CreatedAt,
		UpdatedAt:   food.UpdatedAt,
	}
}
