package mongodb

import (
	"context"
	"testing"
	"time"

	"natours/internal/apperrors"
	"natours/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const usersNS = "natours.users"

func TestUserRepository_HidesInactiveUsers(t *testing.T) {
	mt := newMockT(t)
	active := bson.M{"$ne": false}

	mt.Run("get by id", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id}, {Key: "name", Value: "Laura Wilson"}, {Key: "active", Value: true}},
		))
		repo := NewUserRepository(mt.DB, nil)

		user, err := repo.GetByID(context.Background(), id)

		require.NoError(mt, err)
		assert.Equal(mt, "Laura Wilson", user.Name)
		assert.Equal(mt, normalize(mt, bson.M{"_id": id, "active": active}),
			docAt(mt, nextCommand(mt, "find"), "filter"))
	})

	mt.Run("deactivated user is not found", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(usersNS))
		repo := NewUserRepository(mt.DB, nil)

		_, err := repo.GetByEmail(context.Background(), "gone@example.io")

		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
		assert.Equal(mt, normalize(mt, bson.M{"email": "gone@example.io", "active": active}),
			docAt(mt, nextCommand(mt, "find"), "filter"))
	})

	mt.Run("list", func(mt *mtest.T) {
		mt.AddMockResponses(emptyCursor(usersNS))
		repo := NewUserRepository(mt.DB, nil)

		users, err := repo.List(context.Background(), query.New(nil, query.Schema{}))

		require.NoError(mt, err)
		assert.Empty(mt, users)
		assert.Equal(mt, normalize(mt, bson.M{"active": active}),
			docAt(mt, nextCommand(mt, "find"), "filter"))
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	mt := newMockT(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	changedAt := now.Add(-time.Second)

	mt.Run("sets the password and clears the token in one write", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "laura@example.io"},
			{Key: "passwordChangedAt", Value: changedAt},
		}}))
		repo := NewUserRepository(mt.DB, nil)

		user, err := repo.ConsumeResetToken(context.Background(), "hashed", now, "bcrypt-hash", changedAt)

		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Empty(mt, user.PasswordResetToken)

		cmd := nextCommand(mt, "findAndModify")
		assert.Equal(mt, normalize(mt, bson.M{
			"passwordResetToken":   "hashed",
			"passwordResetExpires": bson.M{"$gt": now},
			"active":               bson.M{"$ne": false},
		}), docAt(mt, cmd, "query"))
		assert.Equal(mt, normalize(mt, bson.M{
			"$set":   bson.M{"password": "bcrypt-hash", "passwordChangedAt": changedAt},
			"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
		}), docAt(mt, cmd, "update"))
		assert.True(mt, cmd.Lookup("new").Boolean())
	})

	mt.Run("used or expired token", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		repo := NewUserRepository(mt.DB, nil)

		_, err := repo.ConsumeResetToken(context.Background(), "hashed", now, "bcrypt-hash", changedAt)

		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	mt := newMockT(t)

	mt.Run("clears any pending reset token", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		changedAt := time.Date(2024, 5, 1, 11, 59, 59, 0, time.UTC)
		mt.AddMockResponses(updateAck(1))
		repo := NewUserRepository(mt.DB, nil)

		require.NoError(mt, repo.UpdatePassword(context.Background(), id, "bcrypt-hash", changedAt))

		cmd := nextCommand(mt, "update")
		assert.Equal(mt, normalize(mt, bson.M{"_id": id, "active": bson.M{"$ne": false}}),
			docAt(mt, cmd, "updates", "0", "q"))
		assert.Equal(mt, normalize(mt, bson.M{"passwordResetToken": "", "passwordResetExpires": ""}),
			docAt(mt, cmd, "updates", "0", "u", "$unset"))
	})
}
