package mongodb

import (
	"context"
	"net/url"
	"testing"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const toursNS = "natours.tours"

func TestTourRepository_List(t *testing.T) {
	mt := newMockT(t)

	mt.Run("scopes out secret tours", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, toursNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id}, {Key: "name", Value: "The Forest Hiker"}},
		))
		repo := NewTourRepository(mt.DB, nil, 0)

		q := query.New(url.Values{"difficulty": {"easy"}}, query.Schema{"difficulty": query.String}).Filter()
		tours, err := repo.List(context.Background(), q)

		require.NoError(mt, err)
		require.Len(mt, tours, 1)
		assert.Equal(mt, id, tours[0].ID)

		cmd := nextCommand(mt, "find")
		assert.Equal(mt, normalize(mt, bson.M{"$and": bson.A{
			bson.M{"difficulty": "easy"},
			bson.M{"secretTour": bson.M{"$ne": true}},
		}}), docAt(mt, cmd, "filter"))
	})
}

func TestTourRepository_ReadsExcludeSecretTours(t *testing.T) {
	mt := newMockT(t)
	notSecretDoc := bson.M{"secretTour": bson.M{"$ne": true}}

	mt.Run("get by id", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(emptyCursor(toursNS))
		repo := NewTourRepository(mt.DB, nil, 0)

		_, err := repo.GetByID(context.Background(), id)

		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
		cmd := nextCommand(mt, "aggregate")
		assert.Equal(mt, normalize(mt, bson.M{"_id": id, "secretTour": bson.M{"$ne": true}}),
			docAt(mt, cmd, "pipeline", "0", "$match"))
	})

	mt.Run("stats", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(toursNS))
		repo := NewTourRepository(mt.DB, nil, 0)

		stats, err := repo.GetStats(context.Background())

		require.NoError(mt, err)
		assert.Empty(mt, stats)
		match := docAt(mt, nextCommand(mt, "aggregate"), "pipeline", "0", "$match")
		assert.Equal(mt, normalize(mt, notSecretDoc)["secretTour"], match["secretTour"])
	})

	mt.Run("monthly plan", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(toursNS))
		repo := NewTourRepository(mt.DB, nil, 0)

		_, err := repo.GetMonthlyPlan(context.Background(), 2021)

		require.NoError(mt, err)
		assert.Equal(mt, normalize(mt, notSecretDoc),
			docAt(mt, nextCommand(mt, "aggregate"), "pipeline", "0", "$match"))
	})

	mt.Run("distances", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(toursNS))
		repo := NewTourRepository(mt.DB, nil, 0)

		_, err := repo.GetDistances(context.Background(), 34.1, -118.1, 0.001)

		require.NoError(mt, err)
		geoNear := docAt(mt, nextCommand(mt, "aggregate"), "pipeline", "0", "$geoNear")
		assert.Equal(mt, normalize(mt, notSecretDoc), geoNear["query"])
		assert.Equal(mt, "startLocation", geoNear["key"])
	})

	mt.Run("within", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(toursNS))
		repo := NewTourRepository(mt.DB, nil, 0)

		_, err := repo.GetWithin(context.Background(), 34.1, -118.1, 0.05)

		require.NoError(mt, err)
		filter := docAt(mt, nextCommand(mt, "find"), "filter")
		assert.Equal(mt, normalize(mt, notSecretDoc)["secretTour"], filter["secretTour"])
	})
}

func TestTourRepository_Update(t *testing.T) {
	mt := newMockT(t)

	mt.Run("sets only named fields", func(mt *mtest.T) {
		mt.AddMockResponses(updateAck(1))
		repo := NewTourRepository(mt.DB, nil, 0)
		tour := &models.Tour{
			ID:              primitive.NewObjectID(),
			Name:            "The Forest Walker",
			Slug:            "the-forest-walker",
			Price:           297,
			RatingsAverage:  4.2,
			RatingsQuantity: intPtr(3),
		}

		err := repo.Update(context.Background(), tour, "name", "slug", "price", "images")

		require.NoError(mt, err)
		cmd := nextCommand(mt, "update")
		assert.Equal(mt, normalize(mt, bson.M{"_id": tour.ID, "secretTour": bson.M{"$ne": true}}),
			docAt(mt, cmd, "updates", "0", "q"))
		assert.Equal(mt, normalize(mt, bson.M{
			"$set":   bson.M{"name": "The Forest Walker", "slug": "the-forest-walker", "price": 297.0},
			"$unset": bson.M{"images": ""},
		}), docAt(mt, cmd, "updates", "0", "u"))
	})

	mt.Run("nothing to write", func(mt *mtest.T) {
		repo := NewTourRepository(mt.DB, nil, 0)

		require.NoError(mt, repo.Update(context.Background(), &models.Tour{ID: primitive.NewObjectID()}))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("secret or missing tour", func(mt *mtest.T) {
		mt.AddMockResponses(updateAck(0))
		repo := NewTourRepository(mt.DB, nil, 0)

		err := repo.Update(context.Background(), &models.Tour{ID: primitive.NewObjectID(), Price: 10}, "price")

		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
	})
}

func TestTourRepository_UpdateRatings(t *testing.T) {
	mt := newMockT(t)

	mt.Run("rounds the average", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(updateAck(1))
		repo := NewTourRepository(mt.DB, nil, 0)

		err := repo.UpdateRatings(context.Background(), id, models.RatingSummary{Quantity: 3, Average: 4.6666})

		require.NoError(mt, err)
		u := docAt(mt, nextCommand(mt, "update"), "updates", "0", "u")
		assert.Equal(mt, normalize(mt, bson.M{"$set": bson.M{"ratingsQuantity": 3, "ratingsAverage": 4.7}}), u)
	})
}
