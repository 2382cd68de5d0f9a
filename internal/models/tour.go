package models

import (
	"encoding/json"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"

	DefaultRatingsAverage = 4.5
)

type Tour struct {
	ID              primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name            string               `json:"name,omitempty" bson:"name,omitempty"`
	Slug            string               `json:"slug,omitempty" bson:"slug,omitempty"`
	Duration        int                  `json:"duration,omitempty" bson:"duration,omitempty"`
	MaxGroupSize    int                  `json:"maxGroupSize,omitempty" bson:"maxGroupSize,omitempty"`
	Difficulty      Difficulty           `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
	RatingsAverage  float64              `json:"ratingsAverage,omitempty" bson:"ratingsAverage,omitempty"`
	RatingsQuantity *int                 `json:"ratingsQuantity,omitempty" bson:"ratingsQuantity,omitempty"`
	Price           float64              `json:"price,omitempty" bson:"price,omitempty"`
	PriceDiscount   *float64             `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty"`
	Summary         string               `json:"summary,omitempty" bson:"summary,omitempty"`
	Description     string               `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string               `json:"imageCover,omitempty" bson:"imageCover,omitempty"`
	Images          []string             `json:"images,omitempty" bson:"images,omitempty"`
	StartDates      []time.Time          `json:"startDates,omitempty" bson:"startDates,omitempty"`
	SecretTour      bool                 `json:"secretTour,omitempty" bson:"secretTour"`
	StartLocation   *GeoPoint            `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations       []GeoPoint           `json:"locations,omitempty" bson:"locations,omitempty"`
	GuideIDs        []primitive.ObjectID `json:"-" bson:"guides,omitempty"`
	CreatedAt       *time.Time           `json:"createdAt,omitempty" bson:"createdAt,omitempty"`

	Guides  []UserRef `json:"guides,omitempty" bson:"-"`
	Reviews []Review  `json:"reviews,omitempty" bson:"-"`
}

// DurationWeeks is derived on output and never stored.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

func (t Tour) MarshalJSON() ([]byte, error) {
	type tourAlias Tour
	out := struct {
		tourAlias
		DurationWeeks *float64 `json:"durationWeeks,omitempty"`
		Guides        any      `json:"guides,omitempty"`
	}{tourAlias: tourAlias(t)}

	if t.Duration > 0 {
		w := t.DurationWeeks()
		out.DurationWeeks = &w
	}
	// Unpopulated guides render as bare ids.
	switch {
	case t.Guides != nil:
		out.Guides = t.Guides
	case len(t.GuideIDs) > 0:
		out.Guides = t.GuideIDs
	}
	return json.Marshal(out)
}

// RoundRating rounds to one decimal place, half away from zero.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

type TourStats struct {
	Difficulty string  `json:"_id" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"numTours"`
	NumRatings int     `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating" bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice" bson:"maxPrice"`
}

type MonthlyPlan struct {
	Month         int      `json:"month" bson:"month"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours" bson:"tours"`
}

type TourDistance struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Distance float64            `json:"distance" bson:"distance"`
}
