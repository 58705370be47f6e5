package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrAssessmentNotFound  = errors.New("diet assessment not found")
	ErrOverlappingSchedule = errors.New("start date overlaps the trainee's current plan")
	ErrPlanAccessDenied    = errors.New("access denied to this plan")
	ErrNotTemplate         = errors.New("plan is not a free template")
	ErrFoodNotFound        = errors.New("catalog food not found")
	ErrValidationFailed    = errors.New("validation failed")
)

// --- Authoring Inputs ---
// Trainers author plan content with catalog references; the service resolves
// each food, caches its display fields and computes the summary macros.

type FoodEntryInput struct {
	FoodID primitive.ObjectID
	Amount float64 // serving multiplier, defaults to 1
}

type MealInput struct {
	Name  string
	Type  domain.MealType
	Note  string
	Foods []FoodEntryInput
}

type DayInput struct {
	Name  string
	Meals []MealInput
}

// --- Service Interface ---
type PlanService interface {
	// Assessment intake
	SubmitAssessment(ctx context.Context, traineeID primitive.ObjectID, profile domain.BiometricProfile, restrictions []string) (*domain.DietAssessment, error)
	GetLatestAssessment(ctx context.Context, traineeID primitive.ObjectID) (*domain.DietAssessment, error)

	// Provisioning
	CreateCustomizedPlan(ctx context.Context, traineeID, assessmentID primitive.ObjectID) (*domain.Plan, error)
	SubscribeToTemplate(ctx context.Context, traineeID, templateID primitive.ObjectID, startDate time.Time) (*domain.Plan, error)
	SetStartDate(ctx context.Context, traineeID, planID primitive.ObjectID, newStartDate time.Time) (*domain.Plan, error)

	// Trainer authoring
	CreateTemplate(ctx context.Context, trainerID primitive.ObjectID, name string, planMacros domain.MacroTarget, days []DayInput) (*domain.Plan, error)
	SetPlanDays(ctx context.Context, trainerID, planID primitive.ObjectID, days []DayInput) (*domain.Plan, error)

	// Reads
	GetPlanForTrainee(ctx context.Context, traineeID, planID primitive.ObjectID) (*domain.Plan, error)
	GetCurrentPlan(ctx context.Context, traineeID primitive.ObjectID) (*domain.Plan, error)
	GetPlansForTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Plan, error)
	GetTemplates(ctx context.Context) ([]domain.Plan, error)
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	planRepo       repository.PlanRepository
	assessmentRepo repository.AssessmentRepository
	foodRepo       repository.FoodRepository
	userRepo       repository.UserRepository
	location       *time.Location
}

// NewPlanService creates a new instance of planService. timezone is the IANA
// location whose local midnight anchors plan day dates; invalid or empty
// values fall back to UTC.
func NewPlanService(
	planRepo repository.PlanRepository,
	assessmentRepo repository.AssessmentRepository,
	foodRepo repository.FoodRepository,
	userRepo repository.UserRepository,
	timezone string,
) PlanService {
	loc, err := time.LoadLocation(timezone)
	if err != nil || loc == nil {
		loc = time.UTC
	}
	return &planService{
		planRepo:       planRepo,
		assessmentRepo: assessmentRepo,
		foodRepo:       foodRepo,
		userRepo:       userRepo,
		location:       loc,
	}
}

// === Assessment Intake ===

// SubmitAssessment stores a completed biometric intake. The macro target is
// computed immediately; an incomplete profile is rejected so an assessment
// on record is always usable for plan creation. Restrictions pass through
// untouched.
func (s *planService) SubmitAssessment(ctx context.Context, traineeID primitive.ObjectID, profile domain.BiometricProfile, restrictions []string) (*domain.DietAssessment, error) {
	if traineeID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	target, err := CalculateMacros(profile)
	if err != nil {
		return nil, err // ErrIncompleteProfile
	}

	assessment := &domain.DietAssessment{
		TraineeID:    traineeID,
		Profile:      profile,
		Restrictions: restrictions,
		Result:       target,
	}

	id, err := s.assessmentRepo.Create(ctx, assessment)
	if err != nil {
		return nil, err
	}
	assessment.ID = id
	return assessment, nil
}

// GetLatestAssessment returns the trainee's most recent assessment.
func (s *planService) GetLatestAssessment(ctx context.Context, traineeID primitive.ObjectID) (*domain.DietAssessment, error) {
	assessment, err := s.assessmentRepo.GetLatestByTrainee(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	return assessment, nil
}

// === Provisioning ===

// CreateCustomizedPlan archives the trainee's current plan and creates a new
// Current one seeded from a diet assessment. Days start empty; the trainer
// fills them in later via SetPlanDays.
func (s *planService) CreateCustomizedPlan(ctx context.Context, traineeID, assessmentID primitive.ObjectID) (*domain.Plan, error) {
	// 1. Validate input
	if traineeID == primitive.NilObjectID || assessmentID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	// 2. Load the assessment and verify it belongs to the trainee
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	if assessment.TraineeID != traineeID {
		return nil, ErrAssessmentNotFound
	}

	// 3. Compute the macro target. An incomplete profile blocks plan
	// creation; a zeroed target is never persisted as a real goal.
	target, err := CalculateMacros(assessment.Profile)
	if err != nil {
		return nil, err
	}

	// 4. Resolve the authoring trainer. A coached trainee gets a customized
	// plan owned by their trainer; an uncoached one gets a self-authored
	// "my plan".
	trainee, err := s.userRepo.GetByID(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	trainerID := traineeID
	planType := domain.PlanTypeMyPlan
	if trainee.TrainerID != nil && *trainee.TrainerID != primitive.NilObjectID {
		trainerID = *trainee.TrainerID
		planType = domain.PlanTypeCustomized
	}

	// 5. Archive any existing Current plan (single atomic update), then
	// create the new one. A crash between the two steps leaves the trainee
	// with zero Current plans, which GetCurrentPlan reports as not-found so
	// the caller can re-provision.
	if err := s.planRepo.ArchiveCurrentByTrainee(ctx, traineeID); err != nil {
		return nil, err
	}

	ownerID := traineeID
	plan := &domain.Plan{
		TraineeID:  &ownerID,
		TrainerID:  trainerID,
		Name:       "Customized Plan",
		PlanType:   planType,
		Status:     domain.PlanStatusCurrent,
		StartDate:  s.midnight(time.Now()),
		Days:       []domain.Day{},
		PlanMacros: target,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// SubscribeToTemplate clones a free template into a dated, trainee-owned
// Current plan. The requested start date must be strictly after the last day
// of the trainee's current plan; on violation nothing is written.
func (s *planService) SubscribeToTemplate(ctx context.Context, traineeID, templateID primitive.ObjectID, startDate time.Time) (*domain.Plan, error) {
	// 1. Validate input
	if traineeID == primitive.NilObjectID || templateID == primitive.NilObjectID || startDate.IsZero() {
		return nil, ErrValidationFailed
	}

	// 2. Load the template
	template, err := s.planRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !template.IsTemplate() {
		return nil, ErrNotTemplate
	}

	// 3. Overlap check against the trainee's current plan, before any write.
	// Day dates are local midnights in the configured location, so the
	// comparison is plain date arithmetic, not a fixed-offset hack.
	start := s.midnight(startDate)
	if err := s.checkOverlap(ctx, traineeID, primitive.NilObjectID, start); err != nil {
		return nil, err
	}

	// 4. Archive current plans, then persist the clone. Consumed flags and
	// eaten totals never carry over from the template.
	if err := s.planRepo.ArchiveCurrentByTrainee(ctx, traineeID); err != nil {
		return nil, err
	}

	ownerID := traineeID
	originalID := template.ID
	plan := &domain.Plan{
		TraineeID:      &ownerID,
		TrainerID:      template.TrainerID,
		Name:           template.Name,
		PlanType:       domain.PlanTypeCustomized,
		Status:         domain.PlanStatusCurrent,
		StartDate:      start,
		Days:           template.CloneDays(start),
		PlanMacros:     template.PlanMacros,
		OriginalPlanID: &originalID,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// SetStartDate re-stamps day dates on an already-provisioned plan under the
// same overlap invariant, without re-cloning content.
func (s *planService) SetStartDate(ctx context.Context, traineeID, planID primitive.ObjectID, newStartDate time.Time) (*domain.Plan, error) {
	if traineeID == primitive.NilObjectID || planID == primitive.NilObjectID || newStartDate.IsZero() {
		return nil, ErrValidationFailed
	}

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

	start := s.midnight(newStartDate)
	// The plan being re-dated does not constrain itself.
	if err := s.checkOverlap(ctx, traineeID, planID, start); err != nil {
		return nil, err
	}

	plan.StampDayDates(start)
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// checkOverlap fails with ErrOverlappingSchedule unless start is strictly
// after the last day of the trainee's current plan. excludePlanID skips the
// plan being modified itself.
func (s *planService) checkOverlap(ctx context.Context, traineeID, excludePlanID primitive.ObjectID, start time.Time) error {
	current, err := s.planRepo.GetCurrentByTrainee(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // no current plan, nothing to overlap
		}
		return err
	}
	if current.ID == excludePlanID {
		return nil
	}
	lastDay, ok := current.LastDayDate()
	if !ok {
		return nil // current plan has no days yet
	}
	if !start.After(lastDay) {
		return ErrOverlappingSchedule
	}
	return nil
}

// midnight normalizes t to local midnight in the configured location.
func (s *planService) midnight(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}

// === Trainer Authoring ===

// CreateTemplate authors a new free template with a full day tree. Summary
// macros are computed from the catalog at authoring time.
func (s *planService) CreateTemplate(ctx context.Context, trainerID primitive.ObjectID, name string, planMacros domain.MacroTarget, days []DayInput) (*domain.Plan, error) {
	if trainerID == primitive.NilObjectID || name == "" {
		return nil, ErrValidationFailed
	}

	start := s.midnight(time.Now())
	builtDays, err := s.buildDays(ctx, days, start)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		TrainerID:  trainerID,
		Name:       name,
		PlanType:   domain.PlanTypeFreeTemplate,
		Status:     domain.PlanStatusCurrent,
		StartDate:  start,
		Days:       builtDays,
		PlanMacros: planMacros,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// SetPlanDays replaces the day tree of a plan the trainer authored. Used to
// fill in a customized plan created empty from an assessment, or to revise a
// template.
func (s *planService) SetPlanDays(ctx context.Context, trainerID, planID primitive.ObjectID, days []DayInput) (*domain.Plan, error) {
	if trainerID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.TrainerID != trainerID {
		return nil, ErrPlanAccessDenied
	}

	builtDays, err := s.buildDays(ctx, days, plan.StartDate)
	if err != nil {
		return nil, err
	}

	plan.Days = builtDays
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// buildDays resolves catalog references and assembles the day tree. Food
// macros are catalog macros scaled by the serving amount; meal and day
// summaries are the sums of their children, all cached at authoring time.
func (s *planService) buildDays(ctx context.Context, days []DayInput, start time.Time) ([]domain.Day, error) {
	// Collect all referenced food IDs for one bulk catalog lookup.
	idSet := make(map[primitive.ObjectID]struct{})
	for _, day := range days {
		for _, meal := range day.Meals {
			for _, food := range meal.Foods {
				idSet[food.FoodID] = struct{}{}
			}
		}
	}
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	foods, err := s.foodRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[primitive.ObjectID]domain.Food, len(foods))
	for _, food := range foods {
		catalog[food.ID] = food
	}

	built := make([]domain.Day, len(days))
	for i, dayIn := range days {
		day := domain.Day{
			Name:      dayIn.Name,
			StartDate: start.AddDate(0, 0, i),
			Meals:     make([]domain.Meal, len(dayIn.Meals)),
		}
		if day.Name == "" {
			day.Name = defaultDayName(i)
		}
		for j, mealIn := range dayIn.Meals {
			meal := domain.Meal{
				Name:  mealIn.Name,
				Type:  mealIn.Type,
				Note:  mealIn.Note,
				Foods: make([]domain.FoodEntry, len(mealIn.Foods)),
			}
			for k, foodIn := range mealIn.Foods {
				catalogFood, ok := catalog[foodIn.FoodID]
				if !ok {
					return nil, ErrFoodNotFound
				}
				amount := foodIn.Amount
				if amount <= 0 {
					amount = 1
				}
				entry := domain.FoodEntry{
					FoodID:      catalogFood.ID,
					Name:        catalogFood.Name,
					Image:       catalogFood.ImageKey,
					ServingUnit: catalogFood.ServingUnit,
					Amount:      amount,
					Macros:      catalogFood.Macros.Scale(amount),
					Consumed:    false,
				}
				meal.Foods[k] = entry
				meal.MealMacros = meal.MealMacros.Add(entry.Macros)
			}
			day.Meals[j] = meal
			day.DayMacros = day.DayMacros.Add(meal.MealMacros)
		}
		built[i] = day
	}
	return built, nil
}

func defaultDayName(index int) string {
	return "Day " + strconv.Itoa(index+1)
}

// === Reads ===

// GetPlanForTrainee returns a plan the trainee owns.
func (s *planService) GetPlanForTrainee(ctx context.Context, traineeID, planID primitive.ObjectID) (*domain.Plan, error) {
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
	return plan, nil
}

// GetCurrentPlan returns the trainee's single Current plan. ErrPlanNotFound
// also covers the recoverable zero-Current window left by a provisioning
// crash between archive and create.
func (s *planService) GetCurrentPlan(ctx context.Context, traineeID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetCurrentByTrainee(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetPlansForTrainee returns every plan the trainee owns, newest first.
func (s *planService) GetPlansForTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Plan, error) {
	return s.planRepo.GetByTrainee(ctx, traineeID)
}

// GetTemplates returns all free templates available for subscription.
func (s *planService) GetTemplates(ctx context.Context) ([]domain.Plan, error) {
	return s.planRepo.GetTemplates(ctx)
}
