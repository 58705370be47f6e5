package service

import (
	"context"
	"errors"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTraineeNotFound        = errors.New("trainee user not found")
	ErrTraineeNotRole         = errors.New("user found but is not a trainee")
	ErrTraineeAlreadyAssigned = errors.New("trainee is already assigned to a trainer")
	ErrTraineeNotManaged      = errors.New("trainee is not coached by this trainer")
)

// --- Service Interface ---
type TrainerService interface {
	// Trainee management
	AddTraineeByEmail(ctx context.Context, trainerID primitive.ObjectID, traineeEmail string) (*domain.User, error)
	GetManagedTrainees(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)

	// Plan oversight
	GetPlansForTrainee(ctx context.Context, trainerID, traineeID primitive.ObjectID) ([]domain.Plan, error)
	GetTraineeAssessment(ctx context.Context, trainerID, traineeID primitive.ObjectID) (*domain.DietAssessment, error)
}

// --- Service Implementation ---

// trainerService implements the TrainerService interface.
type trainerService struct {
	userRepo       repository.UserRepository
	planRepo       repository.PlanRepository
	assessmentRepo repository.AssessmentRepository
}

// NewTrainerService creates a new instance of trainerService.
func NewTrainerService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	assessmentRepo repository.AssessmentRepository,
) TrainerService {
	return &trainerService{
		userRepo:       userRepo,
		planRepo:       planRepo,
		assessmentRepo: assessmentRepo,
	}
}

// === Trainee Management ===

// AddTraineeByEmail finds a trainee by email and assigns them to the trainer.
func (s *trainerService) AddTraineeByEmail(ctx context.Context, trainerID primitive.ObjectID, traineeEmail string) (*domain.User, error) {
	// 1. Validate input
	if trainerID == primitive.NilObjectID || traineeEmail == "" {
		return nil, ErrValidationFailed
	}

	// 2. Find the potential trainee user
	trainee, err := s.userRepo.GetByEmail(ctx, traineeEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}

	// 3. Verify the user is actually a trainee
	if trainee.Role != domain.RoleTrainee {
		return nil, ErrTraineeNotRole
	}

	// 4. Check if the trainee is already assigned to a trainer
	if trainee.TrainerID != nil && *trainee.TrainerID != primitive.NilObjectID {
		if *trainee.TrainerID == trainerID {
			// Already coached by this trainer
			return trainee, nil
		}
		return nil, ErrTraineeAlreadyAssigned
	}

	// 5. Assign trainee to trainer (update both records)
	if err := s.userRepo.AddTraineeIDToTrainer(ctx, trainerID, trainee.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetTrainerForTrainee(ctx, trainee.ID, trainerID); err != nil {
		return nil, err
	}

	assignedTrainerID := trainerID
	trainee.TrainerID = &assignedTrainerID
	return trainee, nil
}

// GetManagedTrainees retrieves all trainees coached by the trainer.
func (s *trainerService) GetManagedTrainees(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	if trainerID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	return s.userRepo.GetTraineesByTrainerID(ctx, trainerID)
}

// === Plan Oversight ===

// requireManaged verifies the trainer actually coaches the trainee.
func (s *trainerService) requireManaged(ctx context.Context, trainerID, traineeID primitive.ObjectID) error {
	trainee, err := s.userRepo.GetByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTraineeNotFound
		}
		return err
	}
	if trainee.TrainerID == nil || *trainee.TrainerID != trainerID {
		return ErrTraineeNotManaged
	}
	return nil
}

// GetPlansForTrainee retrieves the plans the trainer authored for a trainee
// they coach.
func (s *trainerService) GetPlansForTrainee(ctx context.Context, trainerID, traineeID primitive.ObjectID) ([]domain.Plan, error) {
	if err := s.requireManaged(ctx, trainerID, traineeID); err != nil {
		return nil, err
	}
	return s.planRepo.GetByTraineeAndTrainer(ctx, traineeID, trainerID)
}

// GetTraineeAssessment retrieves the latest diet assessment of a coached
// trainee, so the trainer can seed a customized plan from it.
func (s *trainerService) GetTraineeAssessment(ctx context.Context, trainerID, traineeID primitive.ObjectID) (*domain.DietAssessment, error) {
	if err := s.requireManaged(ctx, trainerID, traineeID); err != nil {
		return nil, err
	}
	assessment, err := s.assessmentRepo.GetLatestByTrainee(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	return assessment, nil
}
