package mongo

import (
	"context"
	"errors"
	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new Plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan document with its full day tree inline.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.TrainerID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires trainerId and name")
	}
	plan.ID = primitive.NewObjectID()
	plan.Version = 1
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update replaces the whole plan document under an optimistic-concurrency
// check. The filter matches the version the caller loaded; if another writer
// got there first the version no longer matches and ErrConflict is returned,
// so the caller can reload and retry. The version is bumped on every
// successful write.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	loadedVersion := plan.Version
	filter := bson.M{"_id": plan.ID, "version": loadedVersion}

	plan.Version = loadedVersion + 1
	plan.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, filter, plan)
	if err != nil {
		plan.Version = loadedVersion
		return err
	}
	if result.MatchedCount == 0 {
		plan.Version = loadedVersion
		// Distinguish "document gone" from "version moved on"
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": plan.ID})
		if countErr == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

// ArchiveCurrentByTrainee archives every Current plan the trainee owns in a
// single UpdateMany, which keeps the "at most one Current plan" invariant a
// one-step transition.
func (r *mongoPlanRepository) ArchiveCurrentByTrainee(ctx context.Context, traineeID primitive.ObjectID) error {
	if traineeID == primitive.NilObjectID {
		return errors.New("trainee ID is required")
	}
	filter := bson.M{
		"traineeId": traineeID,
		"status":    domain.PlanStatusCurrent,
	}
	update := bson.M{
		"$set": bson.M{"status": domain.PlanStatusArchived, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// GetCurrentByTrainee retrieves the trainee's Current plan. Returns
// ErrNotFound when the trainee has none, which callers use to detect the
// zero-Current window after a failed provisioning.
func (r *mongoPlanRepository) GetCurrentByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	filter := bson.M{
		"traineeId": traineeID,
		"status":    domain.PlanStatusCurrent,
	}
	// Newest first in case the invariant was ever violated externally
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByTrainee retrieves all plans owned by a trainee (Current and Archived),
// newest first.
func (r *mongoPlanRepository) GetByTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Plan, error) {
	var plans []domain.Plan
	filter := bson.M{"traineeId": traineeID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetTemplates retrieves all free-template plans (no trainee owner).
func (r *mongoPlanRepository) GetTemplates(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	filter := bson.M{"planType": domain.PlanTypeFreeTemplate}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetByTraineeAndTrainer retrieves all plans for a specific trainee created
// by a specific trainer.
func (r *mongoPlanRepository) GetByTraineeAndTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) ([]domain.Plan, error) {
	var plans []domain.Plan
	filter := bson.M{
		"traineeId": traineeID,
		"trainerId": trainerID,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Main query pattern: the trainee's current plan
			Keys:    bson.D{{Key: "traineeId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "planType", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
