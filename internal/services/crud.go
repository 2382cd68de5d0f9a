package services

import (
	"context"

	"natours/internal/apperrors"
	"natours/internal/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CRUDService is the contract the generic resource handlers are built on.
// T is the model, C the create request and U the update request.
type CRUDService[T, C, U any] interface {
	Create(ctx context.Context, req *C) (*T, error)
	Get(ctx context.Context, id string, populate ...string) (*T, error)
	List(ctx context.Context, scope bson.M, q *query.Features) ([]*T, error)
	Update(ctx context.Context, id string, req *U) (*T, error)
	Delete(ctx context.Context, id string) error
}

// ParseID converts a hex id, reporting a CastError on the _id path.
func ParseID(id string) (primitive.ObjectID, error) {
	return ParseIDAt("_id", id)
}

func ParseIDAt(path, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &apperrors.CastError{Path: path, Value: id}
	}
	return oid, nil
}
