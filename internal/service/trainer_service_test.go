package service

import (
	"context"
	"testing"

	"nutricoach/coach-app/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddTraineeByEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewTrainerService(userRepo, newFakePlanRepo(), newFakeAssessmentRepo())

	trainerID := primitive.NewObjectID()
	_, err := userRepo.Create(context.Background(), &domain.User{
		ID:    trainerID,
		Email: "coach@example.com",
		Role:  domain.RoleTrainer,
	})
	require.NoError(t, err)

	traineeID := primitive.NewObjectID()
	_, err = userRepo.Create(context.Background(), &domain.User{
		ID:    traineeID,
		Email: "trainee@example.com",
		Role:  domain.RoleTrainee,
	})
	require.NoError(t, err)

	trainee, err := svc.AddTraineeByEmail(context.Background(), trainerID, "trainee@example.com")
	require.NoError(t, err)
	require.NotNil(t, trainee.TrainerID)
	require.Equal(t, trainerID, *trainee.TrainerID)

	// Both sides of the relation were written.
	roster, err := svc.GetManagedTrainees(context.Background(), trainerID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, traineeID, roster[0].ID)

	// Adding the same trainee again is a no-op, not an error.
	_, err = svc.AddTraineeByEmail(context.Background(), trainerID, "trainee@example.com")
	require.NoError(t, err)
}

func TestAddTraineeByEmail_Failures(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewTrainerService(userRepo, newFakePlanRepo(), newFakeAssessmentRepo())

	trainerID := primitive.NewObjectID()
	otherTrainerID := primitive.NewObjectID()

	_, err := userRepo.Create(context.Background(), &domain.User{
		ID:    otherTrainerID,
		Email: "othercoach@example.com",
		Role:  domain.RoleTrainer,
	})
	require.NoError(t, err)
	_, err = userRepo.Create(context.Background(), &domain.User{
		Email:     "taken@example.com",
		Role:      domain.RoleTrainee,
		TrainerID: &otherTrainerID,
	})
	require.NoError(t, err)

	_, err = svc.AddTraineeByEmail(context.Background(), trainerID, "nobody@example.com")
	require.ErrorIs(t, err, ErrTraineeNotFound)

	_, err = svc.AddTraineeByEmail(context.Background(), trainerID, "othercoach@example.com")
	require.ErrorIs(t, err, ErrTraineeNotRole)

	_, err = svc.AddTraineeByEmail(context.Background(), trainerID, "taken@example.com")
	require.ErrorIs(t, err, ErrTraineeAlreadyAssigned)
}

func TestGetTraineeAssessment_RequiresCoachingRelation(t *testing.T) {
	userRepo := newFakeUserRepo()
	assessmentRepo := newFakeAssessmentRepo()
	svc := NewTrainerService(userRepo, newFakePlanRepo(), assessmentRepo)

	trainerID := primitive.NewObjectID()
	traineeID := primitive.NewObjectID()
	_, err := userRepo.Create(context.Background(), &domain.User{
		ID:    traineeID,
		Email: "trainee@example.com",
		Role:  domain.RoleTrainee,
	})
	require.NoError(t, err)

	// Not coached yet.
	_, err = svc.GetTraineeAssessment(context.Background(), trainerID, traineeID)
	require.ErrorIs(t, err, ErrTraineeNotManaged)

	require.NoError(t, userRepo.SetTrainerForTrainee(context.Background(), traineeID, trainerID))

	// Coached but no intake on record.
	_, err = svc.GetTraineeAssessment(context.Background(), trainerID, traineeID)
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	_, err = assessmentRepo.Create(context.Background(), &domain.DietAssessment{
		TraineeID: traineeID,
		Profile:   validProfile(),
	})
	require.NoError(t, err)

	assessment, err := svc.GetTraineeAssessment(context.Background(), trainerID, traineeID)
	require.NoError(t, err)
	require.Equal(t, traineeID, assessment.TraineeID)
}
