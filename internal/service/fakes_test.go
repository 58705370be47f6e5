package service

import (
	"context"
	"sort"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the repository interfaces. Reads hand out deep copies
// so service-side mutations only become visible through Update, mirroring how
// the real repositories behave.

func clonePlan(p *domain.Plan) *domain.Plan {
	cp := *p
	cp.Days = make([]domain.Day, len(p.Days))
	for i, d := range p.Days {
		day := d
		day.Meals = make([]domain.Meal, len(d.Meals))
		for j, m := range d.Meals {
			meal := m
			meal.Foods = append([]domain.FoodEntry(nil), m.Foods...)
			day.Meals[j] = meal
		}
		cp.Days[i] = day
	}
	return &cp
}

type fakePlanRepo struct {
	plans     map[primitive.ObjectID]*domain.Plan
	updateErr error // forced Update error, e.g. repository.ErrConflict
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]*domain.Plan{}}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.ID == primitive.NilObjectID {
		plan.ID = primitive.NewObjectID()
	}
	plan.Version = 1
	r.plans[plan.ID] = clonePlan(plan)
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePlan(plan), nil
}

func (r *fakePlanRepo) Update(ctx context.Context, plan *domain.Plan) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	existing, ok := r.plans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Version != plan.Version {
		return repository.ErrConflict
	}
	plan.Version++
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *fakePlanRepo) ArchiveCurrentByTrainee(ctx context.Context, traineeID primitive.ObjectID) error {
	for _, plan := range r.plans {
		if plan.OwnedBy(traineeID) && plan.Status == domain.PlanStatusCurrent {
			plan.Status = domain.PlanStatusArchived
			plan.Version++
		}
	}
	return nil
}

func (r *fakePlanRepo) GetCurrentByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.Plan, error) {
	for _, plan := range r.plans {
		if plan.OwnedBy(traineeID) && plan.Status == domain.PlanStatusCurrent {
			return clonePlan(plan), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) GetByTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Plan, error) {
	var result []domain.Plan
	for _, plan := range r.plans {
		if plan.OwnedBy(traineeID) {
			result = append(result, *clonePlan(plan))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakePlanRepo) GetTemplates(ctx context.Context) ([]domain.Plan, error) {
	var result []domain.Plan
	for _, plan := range r.plans {
		if plan.PlanType == domain.PlanTypeFreeTemplate {
			result = append(result, *clonePlan(plan))
		}
	}
	return result, nil
}

func (r *fakePlanRepo) GetByTraineeAndTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) ([]domain.Plan, error) {
	var result []domain.Plan
	for _, plan := range r.plans {
		if plan.OwnedBy(traineeID) && plan.TrainerID == trainerID {
			result = append(result, *clonePlan(plan))
		}
	}
	return result, nil
}

type fakeAssessmentRepo struct {
	assessments map[primitive.ObjectID]*domain.DietAssessment
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{assessments: map[primitive.ObjectID]*domain.DietAssessment{}}
}

func (r *fakeAssessmentRepo) Create(ctx context.Context, assessment *domain.DietAssessment) (primitive.ObjectID, error) {
	if assessment.ID == primitive.NilObjectID {
		assessment.ID = primitive.NewObjectID()
	}
	cp := *assessment
	r.assessments[assessment.ID] = &cp
	return assessment.ID, nil
}

func (r *fakeAssessmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietAssessment, error) {
	assessment, ok := r.assessments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *assessment
	return &cp, nil
}

func (r *fakeAssessmentRepo) GetLatestByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.DietAssessment, error) {
	var latest *domain.DietAssessment
	for _, assessment := range r.assessments {
		if assessment.TraineeID != traineeID {
			continue
		}
		if latest == nil || assessment.CreatedAt.After(latest.CreatedAt) {
			latest = assessment
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

type fakeFoodRepo struct {
	foods map[primitive.ObjectID]*domain.Food
}

func newFakeFoodRepo() *fakeFoodRepo {
	return &fakeFoodRepo{foods: map[primitive.ObjectID]*domain.Food{}}
}

func (r *fakeFoodRepo) Create(ctx context.Context, food *domain.Food) (primitive.ObjectID, error) {
	if food.ID == primitive.NilObjectID {
		food.ID = primitive.NewObjectID()
	}
	cp := *food
	r.foods[food.ID] = &cp
	return food.ID, nil
}

func (r *fakeFoodRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Food, error) {
	food, ok := r.foods[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *food
	return &cp, nil
}

func (r *fakeFoodRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Food, error) {
	var result []domain.Food
	for _, id := range ids {
		if food, ok := r.foods[id]; ok {
			result = append(result, *food)
		}
	}
	return result, nil
}

func (r *fakeFoodRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Food, error) {
	var result []domain.Food
	for _, food := range r.foods {
		if food.TrainerID == trainerID {
			result = append(result, *food)
		}
	}
	return result, nil
}

func (r *fakeFoodRepo) Update(ctx context.Context, food *domain.Food) error {
	if _, ok := r.foods[food.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *food
	r.foods[food.ID] = &cp
	return nil
}

func (r *fakeFoodRepo) Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	food, ok := r.foods[id]
	if !ok || food.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.foods, id)
	return nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.ID == primitive.NilObjectID {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) AddTraineeIDToTrainer(ctx context.Context, trainerID, traineeID primitive.ObjectID) error {
	trainer, ok := r.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	trainer.TraineeIDs = append(trainer.TraineeIDs, traineeID)
	return nil
}

func (r *fakeUserRepo) GetTraineesByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.TrainerID != nil && *user.TrainerID == trainerID {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) SetTrainerForTrainee(ctx context.Context, traineeID, trainerID primitive.ObjectID) error {
	trainee, ok := r.users[traineeID]
	if !ok {
		return repository.ErrNotFound
	}
	id := trainerID
	trainee.TrainerID = &id
	return nil
}
