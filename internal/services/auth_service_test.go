package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/utils"
	"natours/internal/validators"
	"natours/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func newTestAuthService(repo *MockUserRepository, mailer *MockMailer) *authService {
	svc := NewAuthService(
		repo,
		utils.NewTokenManager(testSecret, time.Hour),
		mailer,
		AuthConfig{BcryptCost: bcrypt.MinCost, ResetTokenTTL: 10 * time.Minute},
		logger.NewNop(),
	)
	return svc.(*authService)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func statusOf(err error) int {
	return apperrors.Map(err).StatusCode
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name       string
		req        validators.SignupRequest
		setupMocks func(*MockUserRepository, *MockMailer)
		wantStatus int
	}{
		{
			name: "success",
			req: validators.SignupRequest{
				Name: "Jonas", Email: " Jonas@Example.com ", Password: "pass1234", PasswordConfirm: "pass1234",
			},
			setupMocks: func(repo *MockUserRepository, mailer *MockMailer) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "jonas@example.com" && u.Role == models.RoleUser && u.Password != "pass1234"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.User).ID = primitive.NewObjectID()
				}).Return(nil)
				mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "welcome mail failure does not fail signup",
			req: validators.SignupRequest{
				Name: "Jonas", Email: "jonas@example.com", Password: "pass1234", PasswordConfirm: "pass1234",
			},
			setupMocks: func(repo *MockUserRepository, mailer *MockMailer) {
				repo.On("Create", mock.Anything, mock.Anything).Return(nil)
				mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
			},
		},
		{
			name: "password mismatch",
			req: validators.SignupRequest{
				Name: "Jonas", Email: "jonas@example.com", Password: "pass1234", PasswordConfirm: "pass4321",
			},
			setupMocks: func(*MockUserRepository, *MockMailer) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			req: validators.SignupRequest{
				Name: "Jonas", Email: "jonas@example.com", Password: "short", PasswordConfirm: "short",
			},
			setupMocks: func(*MockUserRepository, *MockMailer) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			mailer := new(MockMailer)
			tt.setupMocks(repo, mailer)
			svc := newTestAuthService(repo, mailer)

			result, err := svc.Signup(context.Background(), &tt.req, "http://localhost/me")

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(err))
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.Equal(t, models.DefaultUserPhoto, result.User.Photo)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "jonas@example.com", Password: hashed(t, "pass1234")}

	tests := []struct {
		name       string
		req        validators.LoginRequest
		setupMocks func(*MockUserRepository)
		wantStatus int
		wantMsg    string
	}{
		{
			name: "success",
			req:  validators.LoginRequest{Email: "JONAS@example.com", Password: "pass1234"},
			setupMocks: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "jonas@example.com").Return(user, nil)
			},
		},
		{
			name:       "missing password",
			req:        validators.LoginRequest{Email: "jonas@example.com"},
			setupMocks: func(*MockUserRepository) {},
			wantStatus: http.StatusBadRequest,
			wantMsg:    MsgMissingCredentials,
		},
		{
			name: "unknown email",
			req:  validators.LoginRequest{Email: "nobody@example.com", Password: "pass1234"},
			setupMocks: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    MsgBadCredentials,
		},
		{
			name: "wrong password",
			req:  validators.LoginRequest{Email: "jonas@example.com", Password: "wrongpass"},
			setupMocks: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "jonas@example.com").Return(user, nil)
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    MsgBadCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMocks(repo)
			svc := newTestAuthService(repo, new(MockMailer))

			result, err := svc.Login(context.Background(), &tt.req)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				mapped := apperrors.Map(err)
				assert.Equal(t, tt.wantStatus, mapped.StatusCode)
				assert.Equal(t, tt.wantMsg, mapped.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)

			claims, err := svc.tokens.Verify(result.Token)
			require.NoError(t, err)
			assert.Equal(t, user.ID.Hex(), claims.UserID)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	id := primitive.NewObjectID()
	tokens := utils.NewTokenManager(testSecret, time.Hour)
	token, err := tokens.Sign(id)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		token      string
		setupMocks func(*MockUserRepository)
		wantMsg    string
	}{
		{
			name:  "valid token",
			token: token,
			setupMocks: func(repo *MockUserRepository) {
				repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id}, nil)
			},
		},
		{
			name:       "no token",
			setupMocks: func(*MockUserRepository) {},
			wantMsg:    MsgNotLoggedIn,
		},
		{
			name:       "garbage token",
			token:      "not.a.jwt",
			setupMocks: func(*MockUserRepository) {},
			wantMsg:    apperrors.MsgInvalidToken,
		},
		{
			name:  "user deleted",
			token: token,
			setupMocks: func(repo *MockUserRepository) {
				repo.On("GetByID", mock.Anything, id).Return(nil, apperrors.ErrNotFound)
			},
			wantMsg: MsgUserGone,
		},
		{
			name:  "password changed after issue",
			token: token,
			setupMocks: func(repo *MockUserRepository) {
				repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, PasswordChangedAt: &later}, nil)
			},
			wantMsg: MsgPasswordChanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMocks(repo)
			svc := newTestAuthService(repo, new(MockMailer))

			user, err := svc.Authenticate(context.Background(), tt.token)

			if tt.wantMsg != "" {
				require.Error(t, err)
				mapped := apperrors.Map(err)
				assert.Equal(t, http.StatusUnauthorized, mapped.StatusCode)
				assert.Equal(t, tt.wantMsg, mapped.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, user.ID)
		})
	}
}

func TestAuthService_Authenticate_ExpiredToken(t *testing.T) {
	id := primitive.NewObjectID()
	past := utils.NewTokenManager(testSecret, time.Minute).WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	})
	token, err := past.Sign(id)
	require.NoError(t, err)

	svc := newTestAuthService(new(MockUserRepository), new(MockMailer))
	_, err = svc.Authenticate(context.Background(), token)

	require.Error(t, err)
	mapped := apperrors.Map(err)
	assert.Equal(t, http.StatusUnauthorized, mapped.StatusCode)
	assert.Equal(t, apperrors.MsgExpiredToken, mapped.Message)
}

func TestAuthService_Authorize(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository), new(MockMailer))

	assert.NoError(t, svc.Authorize(&models.User{Role: models.RoleAdmin}, models.RoleAdmin, models.RoleLeadGuide))

	err := svc.Authorize(&models.User{Role: models.RoleUser}, models.RoleAdmin, models.RoleLeadGuide)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	assert.Error(t, svc.Authorize(nil, models.RoleUser))
}

func TestAuthService_ForgotPassword(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Name: "Jonas", Email: "jonas@example.com"}

	t.Run("sends reset mail with plain token", func(t *testing.T) {
		repo := new(MockUserRepository)
		mailer := new(MockMailer)
		svc := newTestAuthService(repo, mailer)

		var storedHash string
		repo.On("GetByEmail", mock.Anything, "jonas@example.com").Return(user, nil)
		repo.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { storedHash = args.String(2) }).
			Return(nil)
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

		var plain string
		err := svc.ForgotPassword(context.Background(), "jonas@example.com", func(token string) string {
			plain = token
			return "http://localhost/api/v1/users/resetPassword/" + token
		})

		require.NoError(t, err)
		assert.NotEqual(t, plain, storedHash)
		assert.Equal(t, utils.HashToken(plain), storedHash)
		repo.AssertNotCalled(t, "ClearResetToken", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo, new(MockMailer))
		repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

		err := svc.ForgotPassword(context.Background(), "nobody@example.com", func(string) string { return "" })

		require.Error(t, err)
		mapped := apperrors.Map(err)
		assert.Equal(t, http.StatusNotFound, mapped.StatusCode)
		assert.Equal(t, MsgNoUserWithEmail, mapped.Message)
	})

	t.Run("mail failure clears the token", func(t *testing.T) {
		repo := new(MockUserRepository)
		mailer := new(MockMailer)
		svc := newTestAuthService(repo, mailer)

		repo.On("GetByEmail", mock.Anything, "jonas@example.com").Return(user, nil)
		repo.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)
		repo.On("ClearResetToken", mock.Anything, user.ID).Return(nil)
		mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		err := svc.ForgotPassword(context.Background(), "jonas@example.com", func(string) string { return "x" })

		require.Error(t, err)
		mapped := apperrors.Map(err)
		assert.Equal(t, http.StatusInternalServerError, mapped.StatusCode)
		assert.Equal(t, MsgEmailFailed, mapped.Message)
		assert.True(t, mapped.Operational)
		repo.AssertCalled(t, "ClearResetToken", mock.Anything, user.ID)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	changedAt := now.Add(-time.Second)

	t.Run("valid token", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo, new(MockMailer))
		svc.now = func() time.Time { return now }

		var storedHash string
		repo.On("ConsumeResetToken", mock.Anything, utils.HashToken("plain"), now, mock.Anything, changedAt).
			Run(func(args mock.Arguments) { storedHash = args.String(3) }).
			Return(&models.User{ID: primitive.NewObjectID(), Email: "jonas@example.com", PasswordChangedAt: &changedAt}, nil)

		result, err := svc.ResetPassword(context.Background(), "plain", &validators.ResetPasswordRequest{
			Password: "newpass123", PasswordConfirm: "newpass123",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		require.NotNil(t, result.User.PasswordChangedAt)
		assert.Equal(t, changedAt, *result.User.PasswordChangedAt)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("newpass123")))
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("token already used or expired", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo, new(MockMailer))
		repo.On("ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrNotFound)

		_, err := svc.ResetPassword(context.Background(), "stale", &validators.ResetPasswordRequest{
			Password: "newpass123", PasswordConfirm: "newpass123",
		})

		require.Error(t, err)
		mapped := apperrors.Map(err)
		assert.Equal(t, http.StatusBadRequest, mapped.StatusCode)
		assert.Equal(t, MsgInvalidResetToken, mapped.Message)
	})

	t.Run("mismatched confirmation leaves token unused", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo, new(MockMailer))

		_, err := svc.ResetPassword(context.Background(), "plain", &validators.ResetPasswordRequest{
			Password: "newpass123", PasswordConfirm: "other1234",
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusOf(err))
		repo.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_UpdatePassword(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Password: hashed(t, "pass1234")}

	tests := []struct {
		name       string
		req        validators.UpdatePasswordRequest
		wantStatus int
	}{
		{
			name: "success",
			req:  validators.UpdatePasswordRequest{PasswordCurrent: "pass1234", Password: "newpass123", PasswordConfirm: "newpass123"},
		},
		{
			name:       "wrong current password",
			req:        validators.UpdatePasswordRequest{PasswordCurrent: "nope12345", Password: "newpass123", PasswordConfirm: "newpass123"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "mismatched confirmation",
			req:        validators.UpdatePasswordRequest{PasswordCurrent: "pass1234", Password: "newpass123", PasswordConfirm: "other1234"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing current password is a validation error",
			req:        validators.UpdatePasswordRequest{Password: "newpass123", PasswordConfirm: "newpass123"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc := newTestAuthService(repo, new(MockMailer))
			u := *user
			repo.On("GetWithPassword", mock.Anything, user.ID).Return(&u, nil)
			repo.On("UpdatePassword", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)

			result, err := svc.UpdatePassword(context.Background(), user.ID, &tt.req)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(err))
				repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.Password), []byte("newpass123")))
		})
	}
}
