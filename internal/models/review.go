package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Review    string             `json:"review,omitempty" bson:"review"`
	Rating    float64            `json:"rating,omitempty" bson:"rating"`
	TourID    primitive.ObjectID `json:"-" bson:"tour"`
	UserID    primitive.ObjectID `json:"-" bson:"user"`
	CreatedAt *time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`

	Author *UserRef `json:"-" bson:"-"`
}

func (r Review) MarshalJSON() ([]byte, error) {
	type reviewAlias Review
	out := struct {
		reviewAlias
		Tour any `json:"tour,omitempty"`
		User any `json:"user,omitempty"`
	}{reviewAlias: reviewAlias(r)}

	// Zero ids mean the field was projected out.
	if !r.TourID.IsZero() {
		out.Tour = r.TourID
	}
	switch {
	case r.Author != nil:
		out.User = r.Author
	case !r.UserID.IsZero():
		out.User = r.UserID
	}
	return json.Marshal(out)
}

// RatingSummary is the per-tour aggregate written back onto the tour.
type RatingSummary struct {
	Quantity int
	Average  float64
}
