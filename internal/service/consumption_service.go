package service

import (
	"context"
	"errors"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidIndex mirrors the domain error so handlers can match it at the
// service boundary.
var ErrInvalidIndex = domain.ErrInvalidIndex

// FoodConsumptionChange is one desired consumed state for a food entry,
// addressed by its index within the target meal.
type FoodConsumptionChange struct {
	FoodIndex int
	Consumed  bool
}

// --- Service Interface ---
type ConsumptionService interface {
	// UpdateConsumption applies consumption changes to one meal of the
	// trainee's plan and persists the whole aggregate. With markWholeMeal
	// set, every food in the meal is driven to changes[0].Consumed and the
	// per-food list's indices are ignored; otherwise each change addresses
	// one food. Either way the eaten totals move only on genuine state
	// transitions, so re-submitting a state the plan already has is a no-op.
	UpdateConsumption(ctx context.Context, traineeID, planID primitive.ObjectID, dayIndex, mealIndex int, changes []FoodConsumptionChange, markWholeMeal bool) (*domain.Plan, error)
}

// --- Service Implementation ---

// consumptionService implements the ConsumptionService interface.
type consumptionService struct {
	planRepo repository.PlanRepository
}

// NewConsumptionService creates a new instance of consumptionService.
func NewConsumptionService(planRepo repository.PlanRepository) ConsumptionService {
	return &consumptionService{planRepo: planRepo}
}

// UpdateConsumption loads the plan, mutates the addressed meal in memory and
// writes the aggregate back under the repository's version check. A
// concurrent writer surfaces as repository.ErrConflict; the caller retries
// with a fresh call, this service never retries internally.
func (s *consumptionService) UpdateConsumption(ctx context.Context, traineeID, planID primitive.ObjectID, dayIndex, mealIndex int, changes []FoodConsumptionChange, markWholeMeal bool) (*domain.Plan, error) {
	// 1. Validate input
	if traineeID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if len(changes) == 0 {
		return nil, ErrValidationFailed
	}

	// 2. Load the plan and verify ownership
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.OwnedBy(traineeID) {
		return nil, ErrPlanAccessDenied
	}

	// 3. Resolve the addressed day and meal
	day, err := plan.DayAt(dayIndex)
	if err != nil {
		return nil, err
	}
	meal, err := plan.MealAt(dayIndex, mealIndex)
	if err != nil {
		return nil, err
	}

	// 4. Pre-validate every food index so an out-of-range entry fails the
	// whole call before anything mutates. No partial writes.
	if !markWholeMeal {
		for _, change := range changes {
			if _, err := meal.FoodAt(change.FoodIndex); err != nil {
				return nil, err
			}
		}
	}

	// 5. Apply the changes. Both modes flow through the same
	// transition-guarded primitive, so the arithmetic is shared and
	// repeated calls cannot double-count.
	wasFullyConsumed := meal.FullyConsumed()

	if markWholeMeal {
		target := changes[0].Consumed
		for i := range meal.Foods {
			if _, err := day.SetFoodConsumed(mealIndex, i, target); err != nil {
				return nil, err
			}
		}
	} else {
		for _, change := range changes {
			if _, err := day.SetFoodConsumed(mealIndex, change.FoodIndex, change.Consumed); err != nil {
				return nil, err
			}
		}
	}

	// 6. The meal-level aggregate fires only when the meal's fully-consumed
	// state actually transitions, in either direction.
	isFullyConsumed := meal.FullyConsumed()
	if isFullyConsumed != wasFullyConsumed {
		day.ApplyConsumptionDelta(meal.MealMacros, isFullyConsumed)
	}

	// 7. Persist the whole aggregate
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
