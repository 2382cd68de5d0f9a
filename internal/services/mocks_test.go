package services

import (
	"context"
	"io"
	"time"

	"natours/internal/models"
	"natours/internal/query"
	"natours/pkg/email"
	"natours/pkg/storage"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) userResult(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *MockUserRepository) List(ctx context.Context, q *query.Features) ([]*models.User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.userResult(m.Called(ctx, email))
}

func (m *MockUserRepository) GetWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, hashedToken string, now time.Time, hash string, changedAt time.Time) (*models.User, error) {
	return m.userResult(m.Called(ctx, hashedToken, now, hash, changedAt))
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, hashedToken string, expires time.Time) error {
	args := m.Called(ctx, id, hashedToken, expires)
	return args.Error(0)
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error {
	args := m.Called(ctx, id, hash, changedAt)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTourRepository is a mock implementation of TourRepository.
type MockTourRepository struct {
	mock.Mock
}

func (m *MockTourRepository) Create(ctx context.Context, tour *models.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *MockTourRepository) GetByID(ctx context.Context, id primitive.ObjectID, populate ...string) (*models.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) List(ctx context.Context, q *query.Features) ([]*models.Tour, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tour), args.Error(1)
}

func (m *MockTourRepository) Update(ctx context.Context, tour *models.Tour, fields ...string) error {
	args := m.Called(ctx, tour, fields)
	return args.Error(0)
}

func (m *MockTourRepository) InvalidateStats(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockTourRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTourRepository) UpdateRatings(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	args := m.Called(ctx, id, summary)
	return args.Error(0)
}

func (m *MockTourRepository) GetStats(ctx context.Context) ([]models.TourStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TourStats), args.Error(1)
}

func (m *MockTourRepository) GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyPlan), args.Error(1)
}

func (m *MockTourRepository) GetWithin(ctx context.Context, lat, lng, radiusRadians float64) ([]*models.Tour, error) {
	args := m.Called(ctx, lat, lng, radiusRadians)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tour), args.Error(1)
}

func (m *MockTourRepository) GetDistances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error) {
	args := m.Called(ctx, lat, lng, multiplier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TourDistance), args.Error(1)
}

// MockReviewRepository is a mock implementation of ReviewRepository.
// WithTransaction runs fn directly unless an error is configured.
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, q *query.Features) ([]*models.Review, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) SummarizeForTour(ctx context.Context, tourID primitive.ObjectID) (models.RatingSummary, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).(models.RatingSummary), args.Error(1)
}

// MockMailer is a mock implementation of email.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg *email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockStorage is a mock implementation of storage.StorageProvider.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, req *storage.UploadRequest) (*storage.UploadResponse, error) {
	if req.Reader != nil {
		io.Copy(io.Discard, req.Reader)
	}
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResponse), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) URL(key string) string {
	args := m.Called(key)
	return args.String(0)
}
