package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"natours/internal/apperrors"
	"natours/internal/middleware"
	"natours/internal/models"
	"natours/internal/query"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/internal/validators"
	"natours/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockCRUDService[T, C, U any] struct {
	mock.Mock
}

func (m *MockCRUDService[T, C, U]) Create(ctx context.Context, req *C) (*T, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCRUDService[T, C, U]) Get(ctx context.Context, id string, populate ...string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCRUDService[T, C, U]) List(ctx context.Context, scope bson.M, q *query.Features) ([]*T, error) {
	args := m.Called(ctx, scope, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*T), args.Error(1)
}

func (m *MockCRUDService[T, C, U]) Update(ctx context.Context, id string, req *U) (*T, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCRUDService[T, C, U]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type tourCRUD = MockCRUDService[models.Tour, validators.TourCreateRequest, validators.TourUpdateRequest]

func newTourFactory(svc *tourCRUD) *Factory[models.Tour, validators.TourCreateRequest, validators.TourUpdateRequest] {
	return NewFactory(Resource[models.Tour, validators.TourCreateRequest, validators.TourUpdateRequest]{
		Service:  svc,
		Schema:   services.TourSchema,
		Singular: "tour",
		Plural:   "tours",
	})
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.NewNop(), true))
	return r
}

func jsonReader(t *testing.T, body interface{}) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	return &buf
}

func perform(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFactory_GetAll(t *testing.T) {
	t.Run("lists documents under the plural key", func(t *testing.T) {
		svc := new(tourCRUD)
		tours := []*models.Tour{{ID: primitive.NewObjectID(), Name: "The Forest Hiker"}}
		svc.On("List", mock.Anything, bson.M{}, mock.AnythingOfType("*query.Features")).Return(tours, nil)

		r := newTestEngine()
		r.GET("/tours", newTourFactory(svc).GetAll())
		w := perform(r, http.MethodGet, "/tours?difficulty=easy&sort=price", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "success", body["status"])
		assert.EqualValues(t, 1, body["results"])
		data := body["data"].(map[string]interface{})
		assert.Len(t, data["tours"], 1)
	})

	t.Run("empty page still answers 200", func(t *testing.T) {
		svc := new(tourCRUD)
		svc.On("List", mock.Anything, bson.M{}, mock.Anything).Return([]*models.Tour{}, nil)

		r := newTestEngine()
		r.GET("/tours", newTourFactory(svc).GetAll())
		w := perform(r, http.MethodGet, "/tours", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.EqualValues(t, 0, body["results"])
		assert.Equal(t, utils.MsgNoData, body["message"])
	})

	t.Run("service errors are rendered", func(t *testing.T) {
		svc := new(tourCRUD)
		svc.On("List", mock.Anything, bson.M{}, mock.Anything).
			Return(nil, apperrors.BadRequest("Invalid query field: secret"))

		r := newTestEngine()
		r.GET("/tours", newTourFactory(svc).GetAll())
		w := perform(r, http.MethodGet, "/tours?secret=true", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "fail", decodeBody(t, w)["status"])
	})
}

func TestFactory_GetAll_ParentScope(t *testing.T) {
	type reviewCRUD = MockCRUDService[models.Review, validators.ReviewCreateRequest, validators.ReviewUpdateRequest]

	tourID := primitive.NewObjectID()
	svc := new(reviewCRUD)
	svc.On("List", mock.Anything, bson.M{"tour": tourID}, mock.Anything).Return([]*models.Review{}, nil)

	h := NewFactory(Resource[models.Review, validators.ReviewCreateRequest, validators.ReviewUpdateRequest]{
		Service:     svc,
		Schema:      services.ReviewSchema,
		Singular:    "review",
		Plural:      "reviews",
		ParentParam: "id",
		ParentField: "tour",
	})

	r := newTestEngine()
	r.GET("/tours/:id/reviews", h.GetAll())

	w := perform(r, http.MethodGet, "/tours/"+tourID.Hex()+"/reviews", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	w = perform(r, http.MethodGet, "/tours/nope/reviews", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid tour: nope", decodeBody(t, w)["message"])
}

func TestFactory_GetOne(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name        string
		id          string
		doc         *models.Tour
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "found",
			id:         id.Hex(),
			doc:        &models.Tour{ID: id, Name: "The Sea Explorer"},
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing document",
			id:          id.Hex(),
			err:         apperrors.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: apperrors.MsgNoDocument,
		},
		{
			name:        "malformed id",
			id:          "wwwww",
			err:         &apperrors.CastError{Path: "_id", Value: "wwwww"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "Invalid _id: wwwww",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(tourCRUD)
			if tt.err != nil {
				svc.On("Get", mock.Anything, tt.id).Return(nil, tt.err)
			} else {
				svc.On("Get", mock.Anything, tt.id).Return(tt.doc, nil)
			}

			r := newTestEngine()
			r.GET("/tours/:id", newTourFactory(svc).GetOne())
			w := perform(r, http.MethodGet, "/tours/"+tt.id, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
				return
			}
			data := body["data"].(map[string]interface{})
			assert.Equal(t, "The Sea Explorer", data["tour"].(map[string]interface{})["name"])
		})
	}
}

func TestFactory_CreateOne(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(tourCRUD)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(req *validators.TourCreateRequest) bool {
			return req.Name == "The Snow Adventurer"
		})).Return(&models.Tour{ID: primitive.NewObjectID(), Name: "The Snow Adventurer"}, nil)

		r := newTestEngine()
		r.POST("/tours", newTourFactory(svc).CreateOne())
		w := perform(r, http.MethodPost, "/tours", map[string]interface{}{"name": "The Snow Adventurer"})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("malformed body never reaches the service", func(t *testing.T) {
		svc := new(tourCRUD)

		r := newTestEngine()
		r.POST("/tours", newTourFactory(svc).CreateOne())
		req := httptest.NewRequest(http.MethodPost, "/tours", bytes.NewBufferString(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestFactory_UpdateOne(t *testing.T) {
	id := primitive.NewObjectID()
	svc := new(tourCRUD)
	svc.On("Update", mock.Anything, id.Hex(), mock.Anything).
		Return(&models.Tour{ID: id, Name: "Renamed"}, nil)

	r := newTestEngine()
	r.PATCH("/tours/:id", newTourFactory(svc).UpdateOne())
	w := perform(r, http.MethodPatch, "/tours/"+id.Hex(), map[string]interface{}{"name": "Renamed"})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestFactory_DeleteOne(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("no content", func(t *testing.T) {
		svc := new(tourCRUD)
		svc.On("Delete", mock.Anything, id.Hex()).Return(nil)

		r := newTestEngine()
		r.DELETE("/tours/:id", newTourFactory(svc).DeleteOne())
		w := perform(r, http.MethodDelete, "/tours/"+id.Hex(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		svc := new(tourCRUD)
		svc.On("Delete", mock.Anything, id.Hex()).Return(apperrors.ErrNotFound)

		r := newTestEngine()
		r.DELETE("/tours/:id", newTourFactory(svc).DeleteOne())
		w := perform(r, http.MethodDelete, "/tours/"+id.Hex(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSetReviewOwner(t *testing.T) {
	tourID := primitive.NewObjectID()
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: tourID.Hex()}}
	c.Set(utils.ContextUserKey, user)

	req := &validators.ReviewCreateRequest{Review: "Great", Rating: 5, UserID: primitive.NewObjectID().Hex()}
	require.NoError(t, setReviewOwner(c, req))

	assert.Equal(t, tourID.Hex(), req.Tour)
	assert.Equal(t, user.ID.Hex(), req.UserID)
}

func TestAliasTopTours(t *testing.T) {
	svc := new(tourCRUD)
	svc.On("List", mock.Anything, bson.M{}, mock.MatchedBy(func(q *query.Features) bool {
		opts := q.FindOptions()
		return opts.Limit != nil && *opts.Limit == 5
	})).Return([]*models.Tour{}, nil)

	h := &TourHandler{Factory: newTourFactory(svc)}
	r := newTestEngine()
	r.GET("/tours/top-5-cheap", h.AliasTopTours, h.GetAll())

	w := perform(r, http.MethodGet, "/tours/top-5-cheap?limit=50", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
