package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"
	"nutricoach/coach-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrFoodAccessDenied   = errors.New("access denied to modify this food")
	ErrInvalidContentType = errors.New("invalid or missing image content type")
	ErrUploadURLError     = errors.New("failed to generate upload URL")
	ErrDownloadURLError   = errors.New("failed to generate download URL")
	ErrImageMissing       = errors.New("food has no image")
)

// UploadURLResponse carries a presigned URL and the object key the client
// must report back on confirm.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type FoodService interface {
	CreateFood(ctx context.Context, trainerID primitive.ObjectID, name, servingUnit string, macros domain.MacroTarget) (*domain.Food, error)
	GetFood(ctx context.Context, foodID primitive.ObjectID) (*domain.Food, error)
	GetFoodsByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Food, error)
	UpdateFood(ctx context.Context, trainerID primitive.ObjectID, food *domain.Food) (*domain.Food, error)
	DeleteFood(ctx context.Context, trainerID, foodID primitive.ObjectID) error

	// Image upload flow: the trainer uploads directly to object storage via
	// a presigned PUT URL, then confirms with the object key.
	RequestImageUploadURL(ctx context.Context, trainerID, foodID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmImageUpload(ctx context.Context, trainerID, foodID primitive.ObjectID, objectKey string) (*domain.Food, error)
	GetImageDownloadURL(ctx context.Context, foodID primitive.ObjectID) (string, error)
}

// --- Service Implementation ---

// foodService implements the FoodService interface.
type foodService struct {
	foodRepo    repository.FoodRepository
	fileStorage storage.FileStorage
}

// NewFoodService creates a new instance of foodService.
func NewFoodService(foodRepo repository.FoodRepository, fileStorage storage.FileStorage) FoodService {
	return &foodService{
		foodRepo:    foodRepo,
		fileStorage: fileStorage,
	}
}

// CreateFood adds a new item to the trainer's catalog. Macros are per single
// serving unit.
func (s *foodService) CreateFood(ctx context.Context, trainerID primitive.ObjectID, name, servingUnit string, macros domain.MacroTarget) (*domain.Food, error) {
	if trainerID == primitive.NilObjectID || name == "" {
		return nil, ErrValidationFailed
	}

	food := &domain.Food{
		TrainerID:   trainerID,
		Name:        name,
		ServingUnit: servingUnit,
		Macros:      macros,
	}
	foodID, err := s.foodRepo.Create(ctx, food)
	if err != nil {
		return nil, err
	}
	food.ID = foodID
	return food, nil
}

// GetFood retrieves a single catalog item.
func (s *foodService) GetFood(ctx context.Context, foodID primitive.ObjectID) (*domain.Food, error) {
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	return food, nil
}

// GetFoodsByTrainer retrieves the trainer's catalog.
func (s *foodService) GetFoodsByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Food, error) {
	return s.foodRepo.GetByTrainerID(ctx, trainerID)
}

// UpdateFood persists edits to a catalog item the trainer owns. Plans that
// already cached this food's macros are unaffected; caching happens at
// authoring time.
func (s *foodService) UpdateFood(ctx context.Context, trainerID primitive.ObjectID, food *domain.Food) (*domain.Food, error) {
	if food == nil || food.ID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	existing, err := s.foodRepo.GetByID(ctx, food.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	if existing.TrainerID != trainerID {
		return nil, ErrFoodAccessDenied
	}

	food.TrainerID = existing.TrainerID
	if err := s.foodRepo.Update(ctx, food); err != nil {
		return nil, err
	}
	return s.foodRepo.GetByID(ctx, food.ID)
}

// DeleteFood removes a catalog item and its stored image, if any.
func (s *foodService) DeleteFood(ctx context.Context, trainerID, foodID primitive.ObjectID) error {
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFoodNotFound
		}
		return err
	}
	if food.TrainerID != trainerID {
		return ErrFoodAccessDenied
	}

	if err := s.foodRepo.Delete(ctx, foodID, trainerID); err != nil {
		return err
	}

	// Best effort: orphaned images are harmless, a failed delete here must
	// not fail the catalog operation.
	if food.ImageKey != "" {
		_ = s.fileStorage.DeleteObject(ctx, food.ImageKey)
	}
	return nil
}

// === Image Upload Flow ===

// RequestImageUploadURL generates a presigned PUT URL for a food image.
func (s *foodService) RequestImageUploadURL(ctx context.Context, trainerID, foodID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	// 1. Validate inputs
	if trainerID == primitive.NilObjectID || foodID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidContentType
	}

	// 2. Verify the trainer owns the food
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	if food.TrainerID != trainerID {
		return nil, ErrFoodAccessDenied
	}

	// 3. Generate a unique object key
	uniqueID := uuid.NewString()
	fileExtension := ""
	parts := strings.Split(contentType, "/")
	if len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("foods", trainerID.Hex(), foodID.Hex(), fmt.Sprintf("%s.%s", uniqueID, fileExtension))

	// 4. Generate the presigned URL
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}

// ConfirmImageUpload records the uploaded object key on the food. Called
// after the client has successfully PUT the image using the presigned URL.
func (s *foodService) ConfirmImageUpload(ctx context.Context, trainerID, foodID primitive.ObjectID, objectKey string) (*domain.Food, error) {
	if trainerID == primitive.NilObjectID || foodID == primitive.NilObjectID || objectKey == "" {
		return nil, ErrValidationFailed
	}

	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	if food.TrainerID != trainerID {
		return nil, ErrFoodAccessDenied
	}

	// Replace a previous image, if any
	oldKey := food.ImageKey
	food.ImageKey = objectKey
	if err := s.foodRepo.Update(ctx, food); err != nil {
		return nil, err
	}
	if oldKey != "" && oldKey != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, oldKey)
	}
	return food, nil
}

// GetImageDownloadURL generates a temporary URL for viewing a food's image.
func (s *foodService) GetImageDownloadURL(ctx context.Context, foodID primitive.ObjectID) (string, error) {
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrFoodNotFound
		}
		return "", err
	}
	if food.ImageKey == "" {
		return "", ErrImageMissing
	}

	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, food.ImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return downloadURL, nil
}
