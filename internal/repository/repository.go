package repository

import (
	"context"
	"nutricoach/coach-app/internal/domain" // Import our defined domain models

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	// ErrConflict signals a lost optimistic-concurrency race: the document
	// version changed between load and store. Safe to retry the whole
	// read-modify-write with a fresh load.
	ErrConflict = RepositoryError("version conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddTraineeIDToTrainer(ctx context.Context, trainerID, traineeID primitive.ObjectID) error
	GetTraineesByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	SetTrainerForTrainee(ctx context.Context, traineeID, trainerID primitive.ObjectID) error
}

// PlanRepository defines the interface for interacting with plan documents.
// A plan document carries its full Day/Meal/FoodEntry tree inline, so Update
// always writes the whole aggregate and is guarded by a version check.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	// Update persists the whole aggregate. The filter matches both _id and
	// the version the plan was loaded with; a mismatch returns ErrConflict.
	Update(ctx context.Context, plan *domain.Plan) error
	// ArchiveCurrentByTrainee sets status=archived on every Current plan the
	// trainee owns, as a single atomic UpdateMany.
	ArchiveCurrentByTrainee(ctx context.Context, traineeID primitive.ObjectID) error
	GetCurrentByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.Plan, error)
	GetByTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Plan, error)
	GetTemplates(ctx context.Context) ([]domain.Plan, error)
	GetByTraineeAndTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) ([]domain.Plan, error)
}

// FoodRepository defines the interface for interacting with the food catalog.
type FoodRepository interface {
	Create(ctx context.Context, food *domain.Food) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Food, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Food, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Food, error)
	Update(ctx context.Context, food *domain.Food) error
	Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error // Ensure trainer owns the catalog item
}

// AssessmentRepository defines the interface for interacting with diet
// assessment intake data.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *domain.DietAssessment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietAssessment, error)
	GetLatestByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.DietAssessment, error)
}
