package service

import (
	"context"
	"testing"
	"time"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seedConsumptionPlan stores a plan with one day holding one three-food meal.
// Each food carries entryMacros(); the meal summary is the threefold sum.
func seedConsumptionPlan(t *testing.T, planRepo *fakePlanRepo, traineeID primitive.ObjectID) *domain.Plan {
	t.Helper()

	mealMacros := entryMacros().Add(entryMacros()).Add(entryMacros())
	owner := traineeID
	plan := &domain.Plan{
		TraineeID: &owner,
		TrainerID: primitive.NewObjectID(),
		Name:      "Tracking Plan",
		PlanType:  domain.PlanTypeCustomized,
		Status:    domain.PlanStatusCurrent,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Days: []domain.Day{{
			Name:      "Day 1",
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			DayMacros: mealMacros,
			Meals: []domain.Meal{{
				Name:       "Lunch",
				Type:       domain.MealLunch,
				MealMacros: mealMacros,
				Foods: []domain.FoodEntry{
					{FoodID: primitive.NewObjectID(), Name: "Rice", Amount: 1, Macros: entryMacros()},
					{FoodID: primitive.NewObjectID(), Name: "Chicken", Amount: 1, Macros: entryMacros()},
					{FoodID: primitive.NewObjectID(), Name: "Broccoli", Amount: 1, Macros: entryMacros()},
				},
			}},
		}},
	}
	_, err := planRepo.Create(context.Background(), plan)
	require.NoError(t, err)
	return plan
}

func TestUpdateConsumption_PerFoodIsIdempotent(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := seedConsumptionPlan(t, planRepo, traineeID)

	changes := []FoodConsumptionChange{{FoodIndex: 0, Consumed: true}}

	updated, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0, changes, false)
	require.NoError(t, err)
	require.Equal(t, entryMacros(), updated.Days[0].EatenDayMacros)
	require.True(t, updated.Days[0].Meals[0].Foods[0].Consumed)

	// Re-submitting the same state must not double-count.
	updated, err = svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0, changes, false)
	require.NoError(t, err)
	require.Equal(t, entryMacros(), updated.Days[0].EatenDayMacros)
}

func TestUpdateConsumption_WholeMealAfterPartial(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := seedConsumptionPlan(t, planRepo, traineeID)
	single := entryMacros()
	mealMacros := single.Add(single).Add(single)

	// Consume two of the three foods individually.
	_, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{FoodIndex: 0, Consumed: true}, {FoodIndex: 1, Consumed: true}}, false)
	require.NoError(t, err)

	// Then mark the whole meal. Only the third food transitions, plus the
	// meal-level aggregate fires exactly once on the fully-consumed flip.
	updated, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{Consumed: true}}, true)
	require.NoError(t, err)

	expected := mealMacros.Add(mealMacros) // three foods + one meal aggregate
	require.Equal(t, expected, updated.Days[0].EatenDayMacros)
	require.True(t, updated.Days[0].Meals[0].FullyConsumed())

	// Marking the whole meal again is a no-op.
	updated, err = svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{Consumed: true}}, true)
	require.NoError(t, err)
	require.Equal(t, expected, updated.Days[0].EatenDayMacros)
}

func TestUpdateConsumption_UnmarkWholeMealReturnsToZero(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := seedConsumptionPlan(t, planRepo, traineeID)

	_, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{Consumed: true}}, true)
	require.NoError(t, err)

	updated, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{Consumed: false}}, true)
	require.NoError(t, err)

	// Every food delta and the meal aggregate reversed out.
	require.True(t, updated.Days[0].EatenDayMacros.IsZero())
	require.False(t, updated.Days[0].Meals[0].FullyConsumed())
}

func TestUpdateConsumption_InvalidIndexLeavesPlanUntouched(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := seedConsumptionPlan(t, planRepo, traineeID)

	// One valid and one out-of-range change: the whole call fails and no
	// partial state is written.
	_, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{FoodIndex: 0, Consumed: true}, {FoodIndex: 5, Consumed: true}}, false)
	require.ErrorIs(t, err, ErrInvalidIndex)

	stored, err := planRepo.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	require.True(t, stored.Days[0].EatenDayMacros.IsZero())
	require.False(t, stored.Days[0].Meals[0].Foods[0].Consumed)
	require.Equal(t, int64(1), stored.Version)
}

func TestUpdateConsumption_BadMealIndex(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := seedConsumptionPlan(t, planRepo, traineeID)

	_, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 3,
		[]FoodConsumptionChange{{FoodIndex: 0, Consumed: true}}, false)
	require.ErrorIs(t, err, ErrInvalidIndex)
}

func TestUpdateConsumption_AccessDenied(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	plan := seedConsumptionPlan(t, planRepo, primitive.NewObjectID())

	_, err := svc.UpdateConsumption(context.Background(), primitive.NewObjectID(), plan.ID, 0, 0,
		[]FoodConsumptionChange{{FoodIndex: 0, Consumed: true}}, false)
	require.ErrorIs(t, err, ErrPlanAccessDenied)
}

func TestUpdateConsumption_ConflictSurfaces(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewConsumptionService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := seedConsumptionPlan(t, planRepo, traineeID)

	// A concurrent writer bumped the version between load and store.
	planRepo.updateErr = repository.ErrConflict

	_, err := svc.UpdateConsumption(context.Background(), traineeID, plan.ID, 0, 0,
		[]FoodConsumptionChange{{FoodIndex: 0, Consumed: true}}, false)
	require.ErrorIs(t, err, repository.ErrConflict)
}
