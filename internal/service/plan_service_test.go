package service

import (
	"context"
	"testing"
	"time"

	"nutricoach/coach-app/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestPlanService(planRepo *fakePlanRepo, assessmentRepo *fakeAssessmentRepo, foodRepo *fakeFoodRepo, userRepo *fakeUserRepo) PlanService {
	return NewPlanService(planRepo, assessmentRepo, foodRepo, userRepo, "UTC")
}

func entryMacros() domain.MacroTarget {
	return domain.MacroTarget{Calories: 100, Proteins: 10, Fats: 5, Carbs: 20}
}

// makeDatedPlan builds a trainee-owned plan with numDays consecutive days
// starting at start, one single-food meal per day.
func makeDatedPlan(traineeID, trainerID primitive.ObjectID, start time.Time, numDays int) *domain.Plan {
	owner := traineeID
	plan := &domain.Plan{
		TraineeID: &owner,
		TrainerID: trainerID,
		Name:      "Test Plan",
		PlanType:  domain.PlanTypeCustomized,
		Status:    domain.PlanStatusCurrent,
		StartDate: start,
	}
	for i := 0; i < numDays; i++ {
		plan.Days = append(plan.Days, domain.Day{
			Name:      "Day",
			StartDate: start.AddDate(0, 0, i),
			DayMacros: entryMacros(),
			Meals: []domain.Meal{{
				Name:       "Lunch",
				Type:       domain.MealLunch,
				MealMacros: entryMacros(),
				Foods: []domain.FoodEntry{{
					FoodID: primitive.NewObjectID(),
					Name:   "Oats",
					Amount: 1,
					Macros: entryMacros(),
				}},
			}},
		})
	}
	return plan
}

func seedTemplate(t *testing.T, planRepo *fakePlanRepo, trainerID primitive.ObjectID, numDays int) *domain.Plan {
	t.Helper()
	template := &domain.Plan{
		TrainerID: trainerID,
		Name:      "Cutting Template",
		PlanType:  domain.PlanTypeFreeTemplate,
		Status:    domain.PlanStatusCurrent,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < numDays; i++ {
		template.Days = append(template.Days, domain.Day{
			Name:           "Day",
			StartDate:      template.StartDate.AddDate(0, 0, i),
			DayMacros:      entryMacros(),
			EatenDayMacros: entryMacros(), // stale tracking state, must not survive cloning
			Meals: []domain.Meal{{
				Name:       "Breakfast",
				Type:       domain.MealBreakfast,
				MealMacros: entryMacros(),
				Foods: []domain.FoodEntry{{
					FoodID:   primitive.NewObjectID(),
					Name:     "Eggs",
					Amount:   2,
					Macros:   entryMacros(),
					Consumed: true,
				}},
			}},
		})
	}
	_, err := planRepo.Create(context.Background(), template)
	require.NoError(t, err)
	return template
}

func TestSubscribeToTemplate_ClonesAndArchives(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), newFakeFoodRepo(), newFakeUserRepo())

	trainerID := primitive.NewObjectID()
	traineeID := primitive.NewObjectID()

	oldStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	oldPlan := makeDatedPlan(traineeID, trainerID, oldStart, 3) // last day 2024-03-03
	_, err := planRepo.Create(context.Background(), oldPlan)
	require.NoError(t, err)

	template := seedTemplate(t, planRepo, trainerID, 2)

	newStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // strictly after last day
	plan, err := svc.SubscribeToTemplate(context.Background(), traineeID, template.ID, newStart)
	require.NoError(t, err)

	require.Equal(t, domain.PlanStatusCurrent, plan.Status)
	require.Equal(t, domain.PlanTypeCustomized, plan.PlanType)
	require.NotNil(t, plan.TraineeID)
	require.Equal(t, traineeID, *plan.TraineeID)
	require.NotNil(t, plan.OriginalPlanID)
	require.Equal(t, template.ID, *plan.OriginalPlanID)

	// Cloned days are re-dated and tracking state is reset.
	require.Len(t, plan.Days, 2)
	require.Equal(t, newStart, plan.Days[0].StartDate)
	require.Equal(t, newStart.AddDate(0, 0, 1), plan.Days[1].StartDate)
	for _, day := range plan.Days {
		require.True(t, day.EatenDayMacros.IsZero())
		for _, meal := range day.Meals {
			for _, food := range meal.Foods {
				require.False(t, food.Consumed)
			}
		}
	}

	// The superseded plan is archived; the clone is the only Current plan.
	archived, err := planRepo.GetByID(context.Background(), oldPlan.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PlanStatusArchived, archived.Status)

	current, err := planRepo.GetCurrentByTrainee(context.Background(), traineeID)
	require.NoError(t, err)
	require.Equal(t, plan.ID, current.ID)

	// The template itself is untouched.
	storedTemplate, err := planRepo.GetByID(context.Background(), template.ID)
	require.NoError(t, err)
	require.True(t, storedTemplate.Days[0].Meals[0].Foods[0].Consumed)
}

func TestSubscribeToTemplate_OverlapRejectedWithoutWrites(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), newFakeFoodRepo(), newFakeUserRepo())

	trainerID := primitive.NewObjectID()
	traineeID := primitive.NewObjectID()

	oldStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	oldPlan := makeDatedPlan(traineeID, trainerID, oldStart, 3) // last day 2024-03-03
	_, err := planRepo.Create(context.Background(), oldPlan)
	require.NoError(t, err)

	template := seedTemplate(t, planRepo, trainerID, 2)

	// Exactly the last day is still an overlap; "strictly after" is required.
	start := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	_, err = svc.SubscribeToTemplate(context.Background(), traineeID, template.ID, start)
	require.ErrorIs(t, err, ErrOverlappingSchedule)

	// Nothing was written: the old plan is still Current and no clone exists.
	current, err := planRepo.GetCurrentByTrainee(context.Background(), traineeID)
	require.NoError(t, err)
	require.Equal(t, oldPlan.ID, current.ID)

	plans, err := planRepo.GetByTrainee(context.Background(), traineeID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
}

func TestSubscribeToTemplate_NotATemplate(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), newFakeFoodRepo(), newFakeUserRepo())

	trainerID := primitive.NewObjectID()
	traineeID := primitive.NewObjectID()
	otherTrainee := primitive.NewObjectID()

	regularPlan := makeDatedPlan(otherTrainee, trainerID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 1)
	_, err := planRepo.Create(context.Background(), regularPlan)
	require.NoError(t, err)

	_, err = svc.SubscribeToTemplate(context.Background(), traineeID, regularPlan.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrNotTemplate)
}

func TestCreateCustomizedPlan_UncoachedTrainee(t *testing.T) {
	planRepo := newFakePlanRepo()
	assessmentRepo := newFakeAssessmentRepo()
	userRepo := newFakeUserRepo()
	svc := newTestPlanService(planRepo, assessmentRepo, newFakeFoodRepo(), userRepo)

	traineeID := primitive.NewObjectID()
	_, err := userRepo.Create(context.Background(), &domain.User{
		ID:    traineeID,
		Email: "trainee@example.com",
		Role:  domain.RoleTrainee,
	})
	require.NoError(t, err)

	assessment := &domain.DietAssessment{
		TraineeID: traineeID,
		Profile:   validProfile(),
	}
	assessmentID, err := assessmentRepo.Create(context.Background(), assessment)
	require.NoError(t, err)

	plan, err := svc.CreateCustomizedPlan(context.Background(), traineeID, assessmentID)
	require.NoError(t, err)

	// Uncoached trainees author for themselves.
	require.Equal(t, domain.PlanTypeMyPlan, plan.PlanType)
	require.Equal(t, traineeID, plan.TrainerID)
	require.Equal(t, domain.PlanStatusCurrent, plan.Status)
	require.Empty(t, plan.Days)

	// The target comes from the calculator, never a zeroed placeholder.
	require.False(t, plan.PlanMacros.IsZero())
}

func TestCreateCustomizedPlan_CoachedTrainee(t *testing.T) {
	planRepo := newFakePlanRepo()
	assessmentRepo := newFakeAssessmentRepo()
	userRepo := newFakeUserRepo()
	svc := newTestPlanService(planRepo, assessmentRepo, newFakeFoodRepo(), userRepo)

	trainerID := primitive.NewObjectID()
	traineeID := primitive.NewObjectID()
	_, err := userRepo.Create(context.Background(), &domain.User{
		ID:        traineeID,
		Email:     "trainee@example.com",
		Role:      domain.RoleTrainee,
		TrainerID: &trainerID,
	})
	require.NoError(t, err)

	// An older Current plan gets archived by provisioning.
	oldPlan := makeDatedPlan(traineeID, trainerID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 2)
	_, err = planRepo.Create(context.Background(), oldPlan)
	require.NoError(t, err)

	assessmentID, err := assessmentRepo.Create(context.Background(), &domain.DietAssessment{
		TraineeID: traineeID,
		Profile:   validProfile(),
	})
	require.NoError(t, err)

	plan, err := svc.CreateCustomizedPlan(context.Background(), traineeID, assessmentID)
	require.NoError(t, err)
	require.Equal(t, domain.PlanTypeCustomized, plan.PlanType)
	require.Equal(t, trainerID, plan.TrainerID)

	archived, err := planRepo.GetByID(context.Background(), oldPlan.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PlanStatusArchived, archived.Status)
}

func TestCreateCustomizedPlan_ForeignAssessment(t *testing.T) {
	planRepo := newFakePlanRepo()
	assessmentRepo := newFakeAssessmentRepo()
	svc := newTestPlanService(planRepo, assessmentRepo, newFakeFoodRepo(), newFakeUserRepo())

	traineeID := primitive.NewObjectID()
	assessmentID, err := assessmentRepo.Create(context.Background(), &domain.DietAssessment{
		TraineeID: primitive.NewObjectID(), // someone else's intake
		Profile:   validProfile(),
	})
	require.NoError(t, err)

	_, err = svc.CreateCustomizedPlan(context.Background(), traineeID, assessmentID)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestSetStartDate_RestampsDays(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), newFakeFoodRepo(), newFakeUserRepo())

	trainerID := primitive.NewObjectID()
	traineeID := primitive.NewObjectID()

	plan := makeDatedPlan(traineeID, trainerID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 3)
	_, err := planRepo.Create(context.Background(), plan)
	require.NoError(t, err)

	newStart := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	updated, err := svc.SetStartDate(context.Background(), traineeID, plan.ID, newStart)
	require.NoError(t, err)

	require.Equal(t, newStart, updated.StartDate)
	for i, day := range updated.Days {
		require.Equal(t, newStart.AddDate(0, 0, i), day.StartDate)
	}

	// The change was persisted.
	stored, err := planRepo.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Equal(t, newStart, stored.StartDate)
}

func TestSetStartDate_AccessDenied(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), newFakeFoodRepo(), newFakeUserRepo())

	plan := makeDatedPlan(primitive.NewObjectID(), primitive.NewObjectID(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 1)
	_, err := planRepo.Create(context.Background(), plan)
	require.NoError(t, err)

	_, err = svc.SetStartDate(context.Background(), primitive.NewObjectID(), plan.ID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrPlanAccessDenied)
}

func TestCreateTemplate_BuildsDayTreeFromCatalog(t *testing.T) {
	planRepo := newFakePlanRepo()
	foodRepo := newFakeFoodRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), foodRepo, newFakeUserRepo())

	trainerID := primitive.NewObjectID()
	oatsID, err := foodRepo.Create(context.Background(), &domain.Food{
		TrainerID:   trainerID,
		Name:        "Oats",
		ServingUnit: "100g",
		Macros:      domain.MacroTarget{Calories: 380, Proteins: 13, Fats: 7, Carbs: 68},
	})
	require.NoError(t, err)

	days := []DayInput{{
		Meals: []MealInput{{
			Name:  "Breakfast",
			Type:  domain.MealBreakfast,
			Foods: []FoodEntryInput{{FoodID: oatsID, Amount: 0.5}},
		}},
	}}

	plan, err := svc.CreateTemplate(context.Background(), trainerID, "Lean Bulk", domain.MacroTarget{Calories: 2800}, days)
	require.NoError(t, err)
	require.Equal(t, domain.PlanTypeFreeTemplate, plan.PlanType)
	require.Nil(t, plan.TraineeID)

	require.Len(t, plan.Days, 1)
	day := plan.Days[0]
	require.Equal(t, "Day 1", day.Name) // default name when none supplied

	food := day.Meals[0].Foods[0]
	require.Equal(t, "Oats", food.Name)
	require.Equal(t, "100g", food.ServingUnit)
	require.Equal(t, 0.5, food.Amount)
	// Catalog macros scaled by the serving amount, cached on the entry.
	require.Equal(t, domain.MacroTarget{Calories: 190, Proteins: 7, Fats: 4, Carbs: 34}, food.Macros)
	// Meal and day summaries are the sums of their children.
	require.Equal(t, food.Macros, day.Meals[0].MealMacros)
	require.Equal(t, food.Macros, day.DayMacros)
}

func TestSetPlanDays_UnknownFoodRejected(t *testing.T) {
	planRepo := newFakePlanRepo()
	foodRepo := newFakeFoodRepo()
	svc := newTestPlanService(planRepo, newFakeAssessmentRepo(), foodRepo, newFakeUserRepo())

	trainerID := primitive.NewObjectID()
	plan, err := svc.CreateTemplate(context.Background(), trainerID, "Empty Template", domain.MacroTarget{}, nil)
	require.NoError(t, err)

	days := []DayInput{{
		Meals: []MealInput{{
			Name:  "Lunch",
			Type:  domain.MealLunch,
			Foods: []FoodEntryInput{{FoodID: primitive.NewObjectID()}},
		}},
	}}
	_, err = svc.SetPlanDays(context.Background(), trainerID, plan.ID, days)
	require.ErrorIs(t, err, ErrFoodNotFound)
}
