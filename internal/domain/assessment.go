package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DietAssessment is a completed biometric intake for a trainee. The profile
// and restriction lists come from the intake flow untouched; Result is the
// macro target computed from the profile when the assessment was stored.
type DietAssessment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TraineeID    primitive.ObjectID `bson:"traineeId" json:"traineeId"`
	Profile      BiometricProfile   `bson:"profile" json:"profile"`
	Restrictions []string           `bson:"restrictions,omitempty" json:"restrictions,omitempty"` // dietary restrictions, passed through unvalidated
	Result       MacroTarget        `bson:"result" json:"result"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
