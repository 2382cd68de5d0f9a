package services

import (
	"context"
	"errors"
	"time"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/repositories/interfaces"
	"natours/internal/utils"
	"natours/internal/validators"
	"natours/pkg/email"
	"natours/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgNotLoggedIn        = "You are not logged in! Please log in to get access."
	MsgUserGone           = "The user belonging to this token no longer exists."
	MsgPasswordChanged    = "User recently changed password! Please log in again."
	MsgMissingCredentials = "Please provide email and password"
	MsgBadCredentials     = "Incorrect email or password"
	MsgNoUserWithEmail    = "There is no user with that email address."
	MsgEmailFailed        = "There was an error sending the email. Try again later!"
	MsgInvalidResetToken  = "Token is invalid or has expired"
	MsgWrongPassword      = "Your current password is wrong."
	MsgForbidden          = "You do not have permission to perform this action"
)

type AuthService interface {
	// Authentication
	Signup(ctx context.Context, req *validators.SignupRequest, welcomeURL string) (*AuthResult, error)
	Login(ctx context.Context, req *validators.LoginRequest) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Authorize(user *models.User, roles ...models.Role) error

	// Password management
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token string, req *validators.ResetPasswordRequest) (*AuthResult, error)
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, req *validators.UpdatePasswordRequest) (*AuthResult, error)

	TokenTTL() time.Duration
}

type AuthResult struct {
	User  *models.User
	Token string
}

type AuthConfig struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
}

type authService struct {
	userRepo interfaces.UserRepository
	tokens   *utils.TokenManager
	mailer   email.Mailer
	config   AuthConfig
	logger   *logger.Logger
	now      func() time.Time
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	tokens *utils.TokenManager,
	mailer email.Mailer,
	config AuthConfig,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *authService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Authentication
func (s *authService) Signup(ctx context.Context, req *validators.SignupRequest, welcomeURL string) (*AuthResult, error) {
	req.Normalize()
	if err := validators.ValidateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Photo:     models.DefaultUserPhoto,
		Role:      models.RoleUser,
		Password:  hash,
		CreatedAt: &createdAt,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(user.ID.Hex(), "signup", map[string]interface{}{"email": user.Email})
	s.sendWelcome(ctx, user, welcomeURL)

	return s.issue(user)
}

// sendWelcome is best effort: a failed welcome mail does not undo the signup.
func (s *authService) sendWelcome(ctx context.Context, user *models.User, url string) {
	msg, err := email.NewWelcomeMessage(user.Email, user.Name, url)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID.Hex()).Warn("failed to send welcome email")
	}
}

func (s *authService) Login(ctx context.Context, req *validators.LoginRequest) (*AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.BadRequest(MsgMissingCredentials)
	}

	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(MsgBadCredentials)
		}
		return nil, err
	}
	if !s.checkPassword(user.Password, req.Password) {
		s.logger.LogSecurityEvent("login_failed", "medium", map[string]interface{}{"user_id": user.ID.Hex()})
		return nil, apperrors.Unauthorized(MsgBadCredentials)
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token to its live user.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized(MsgNotLoggedIn)
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized(apperrors.MsgInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(MsgUserGone)
		}
		return nil, err
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Unix()) {
		return nil, apperrors.Unauthorized(MsgPasswordChanged)
	}
	return user, nil
}

func (s *authService) Authorize(user *models.User, roles ...models.Role) error {
	if user == nil || !user.HasRole(roles...) {
		return apperrors.Forbidden(MsgForbidden)
	}
	return nil
}

// Password management
func (s *authService) ForgotPassword(ctx context.Context, addr string, resetURL func(token string) string) error {
	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(addr))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound(MsgNoUserWithEmail)
		}
		return err
	}

	plain, hashed, err := utils.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashed, s.now().Add(s.config.ResetTokenTTL)); err != nil {
		return err
	}

	msg, err := email.NewPasswordResetMessage(user.Email, user.Name, resetURL(plain), s.config.ResetTokenTTL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.WithError(clearErr).WithField("user_id", user.ID.Hex()).Error("failed to clear reset token")
		}
		return apperrors.Internal(MsgEmailFailed, err)
	}

	s.logger.LogSecurityEvent("password_reset_requested", "low", map[string]interface{}{"user_id": user.ID.Hex()})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, req *validators.ResetPasswordRequest) (*AuthResult, error) {
	if err := validators.ValidateStruct(req); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user, err := s.userRepo.ConsumeResetToken(ctx, utils.HashToken(token), now, hash, now.Add(-time.Second))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest(MsgInvalidResetToken)
		}
		return nil, err
	}

	s.logger.LogSecurityEvent("password_reset", "low", map[string]interface{}{"user_id": user.ID.Hex()})
	return s.issue(user)
}

func (s *authService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, req *validators.UpdatePasswordRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetWithPassword(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := validators.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !s.checkPassword(user.Password, req.PasswordCurrent) {
		return nil, apperrors.Unauthorized(MsgWrongPassword)
	}
	if err := s.setPassword(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.logger.LogSecurityEvent("password_changed", "low", map[string]interface{}{"user_id": user.ID.Hex()})
	return s.issue(user)
}

// setPassword stores the new hash with passwordChangedAt one second in the
// past, so a token issued right after the change still verifies. Tokens are
// compared in whole seconds. ResetPassword applies the same offset.
func (s *authService) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	changedAt := s.now().Add(-time.Second)
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return err
	}

	user.Password = hash
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return nil
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
