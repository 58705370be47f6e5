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

const foodCollectionName = "foods"

// mongoFoodRepository implements repository.FoodRepository
type mongoFoodRepository struct {
	collection *mongo.Collection
}

// NewMongoFoodRepository creates a new Food catalog repository.
func NewMongoFoodRepository(db *mongo.Database) repository.FoodRepository {
	return &mongoFoodRepository{
		collection: db.Collection(foodCollectionName),
	}
}

// Create inserts a new catalog food.
func (r *mongoFoodRepository) Create(ctx context.Context, food *domain.Food) (primitive.ObjectID, error) {
	if food.TrainerID == primitive.NilObjectID || food.Name == "" {
		return primitive.NilObjectID, errors.New("food requires trainerId and name")
	}
	food.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	food.CreatedAt = now
	food.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, food)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted food ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single catalog food by its ID.
func (r *mongoFoodRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Food, error) {
	var food domain.Food
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&food)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &food, nil
}

// GetByIDs retrieves every catalog food whose ID is in ids. Missing IDs are
// simply absent from the result; the caller decides whether that is an error.
func (r *mongoFoodRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Food, error) {
	if len(ids) == 0 {
		return []domain.Food{}, nil
	}
	var foods []domain.Food
	filter := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &foods); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return foods, nil
}

// GetByTrainerID retrieves all catalog foods added by a specific trainer.
func (r *mongoFoodRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Food, error) {
	var foods []domain.Food
	filter := bson.M{"trainerId": trainerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &foods); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return foods, nil
}

// Update persists changed fields of a catalog food.
func (r *mongoFoodRepository) Update(ctx context.Context, food *domain.Food) error {
	if food.ID == primitive.NilObjectID {
		return errors.New("food ID is required for update")
	}

	filter := bson.M{"_id": food.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":        food.Name,
			"imageKey":    food.ImageKey,
			"servingUnit": food.ServingUnit,
			"macros":      food.Macros,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a catalog food, ensuring the trainer owns it.
func (r *mongoFoodRepository) Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	if id == primitive.NilObjectID || trainerID == primitive.NilObjectID {
		return errors.New("food ID and trainer ID are required for deletion")
	}

	filter := bson.M{
		"_id":       id,
		"trainerId": trainerID,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Either the food didn't exist, or it belongs to another trainer.
		return repository.ErrNotFound
	}
	return nil
}

// EnsureFoodIndexes creates necessary indexes. Call during startup.
func EnsureFoodIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
