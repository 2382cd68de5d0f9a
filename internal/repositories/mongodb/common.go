package mongodb

import (
	"errors"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var notSecret = bson.M{"secretTour": bson.M{"$ne": true}}

var activeOnly = bson.M{"active": bson.M{"$ne": false}}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.ErrNotFound
	}
	return err
}

// authorLookup populates a review's user as {name, photo} under "author".
func authorLookup() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from": database.UsersCollection,
			"let":  bson.M{"userId": "$user"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$userId"}}}},
				bson.M{"$project": bson.M{"name": 1, "photo": 1}},
			},
			"as": "author",
		}}},
		{{Key: "$set", Value: bson.M{"author": bson.M{"$arrayElemAt": bson.A{"$author", 0}}}}},
	}
}

// partialUpdate builds a $set of the named fields as v encodes them. Named
// fields that encode as empty are $unset.
func partialUpdate(v interface{}, fields []string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	set, unset := bson.M{}, bson.M{}
	for _, field := range fields {
		if value, ok := doc[field]; ok {
			set[field] = value
		} else {
			unset[field] = ""
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

type reviewDocument struct {
	models.Review `bson:",inline"`
	Author        *models.UserRef `bson:"author,omitempty"`
}

func (d *reviewDocument) toModel() *models.Review {
	review := d.Review
	review.Author = d.Author
	return &review
}

func toReviews(docs []reviewDocument) []models.Review {
	reviews := make([]models.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, *docs[i].toModel())
	}
	return reviews
}
