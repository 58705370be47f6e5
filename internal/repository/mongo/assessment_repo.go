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

const assessmentCollectionName = "diet_assessments"

// mongoAssessmentRepository implements repository.AssessmentRepository
type mongoAssessmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssessmentRepository creates a new DietAssessment repository.
func NewMongoAssessmentRepository(db *mongo.Database) repository.AssessmentRepository {
	return &mongoAssessmentRepository{
		collection: db.Collection(assessmentCollectionName),
	}
}

// Create inserts a new diet assessment.
func (r *mongoAssessmentRepository) Create(ctx context.Context, assessment *domain.DietAssessment) (primitive.ObjectID, error) {
	if assessment.TraineeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assessment requires traineeId")
	}
	assessment.ID = primitive.NewObjectID()
	assessment.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, assessment)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assessment ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single assessment by its ID.
func (r *mongoAssessmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietAssessment, error) {
	var assessment domain.DietAssessment
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&assessment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// GetLatestByTrainee retrieves the trainee's most recent assessment.
func (r *mongoAssessmentRepository) GetLatestByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.DietAssessment, error) {
	var assessment domain.DietAssessment
	filter := bson.M{"traineeId": traineeID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, opts).Decode(&assessment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// EnsureAssessmentIndexes creates necessary indexes. Call during startup.
func EnsureAssessmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Main query pattern: latest assessment per trainee
			Keys:    bson.D{{Key: "traineeId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
