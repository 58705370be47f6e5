package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Food is a catalog item trainers compose meals from. Macros are per single
// serving unit; plan food entries scale them by their amount and cache the
// result.
type Food struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Who added this catalog item
	Name        string             `bson:"name" json:"name"`
	ImageKey    string             `bson:"imageKey,omitempty" json:"imageKey,omitempty"` // S3 object key, resolved to a presigned URL on read
	ServingUnit string             `bson:"servingUnit,omitempty" json:"servingUnit,omitempty"` // e.g. "100g", "piece", "cup"
	Macros      MacroTarget        `bson:"macros" json:"macros"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
