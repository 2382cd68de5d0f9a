package services

import (
	"bytes"
	"context"
	"errors"
	"io"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/query"
	"natours/internal/repositories/interfaces"
	"natours/internal/utils"
	"natours/internal/validators"
	"natours/pkg/logger"
	"natours/pkg/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MsgUseSignup          = "This route is not defined! Please use /signup instead"
	MsgNotForPasswordEdit = "This route is not for password updates. Please use /updateMyPassword."
)

var UserSchema = query.Schema{
	"name":      query.String,
	"email":     query.String,
	"photo":     query.String,
	"role":      query.String,
	"createdAt": query.Date,
}

type UserService interface {
	CRUDService[models.User, validators.SignupRequest, validators.UserUpdateRequest]

	// Self service
	UpdateMe(ctx context.Context, userID primitive.ObjectID, req *validators.UpdateMeRequest, photo *PhotoUpload) (*models.User, error)
	DeleteMe(ctx context.Context, userID primitive.ObjectID) error
	PhotoURL(photo string) string
}

// PhotoUpload is a user photo as received, before resizing.
type PhotoUpload struct {
	Reader      io.Reader
	ContentType string
}

type userService struct {
	userRepo interfaces.UserRepository
	storage  storage.StorageProvider
	logger   *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, storage storage.StorageProvider, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
	}
}

// Create exists to satisfy CRUDService; accounts are only made through signup.
func (s *userService) Create(ctx context.Context, req *validators.SignupRequest) (*models.User, error) {
	return nil, apperrors.Internal(MsgUseSignup, nil)
}

func (s *userService) Get(ctx context.Context, id string, _ ...string) (*models.User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, oid)
}

func (s *userService) List(ctx context.Context, scope bson.M, q *query.Features) ([]*models.User, error) {
	return s.userRepo.List(ctx, q.Scope(scope))
}

func (s *userService) Update(ctx context.Context, id string, req *validators.UserUpdateRequest) (*models.User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(user); err != nil {
		return nil, err
	}
	if err := validators.ValidateUser(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, oid)
}

// Self service
func (s *userService) UpdateMe(ctx context.Context, userID primitive.ObjectID, req *validators.UpdateMeRequest, photo *PhotoUpload) (*models.User, error) {
	if req.TouchesPassword() {
		return nil, apperrors.BadRequest(MsgNotForPasswordEdit)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(user); err != nil {
		return nil, err
	}
	if err := validators.ValidateUser(user); err != nil {
		return nil, err
	}

	previous := user.Photo
	if photo != nil {
		key, err := s.uploadPhoto(ctx, userID, photo)
		if err != nil {
			return nil, err
		}
		user.Photo = key
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if photo != nil && previous != "" && previous != models.DefaultUserPhoto {
		if err := s.storage.Delete(ctx, previous); err != nil {
			s.logger.WithError(err).WithField("key", previous).Warn("failed to delete previous user photo")
		}
	}

	s.logger.LogUserAction(userID.Hex(), "update_me", map[string]interface{}{"photo_changed": photo != nil})
	return user, nil
}

func (s *userService) uploadPhoto(ctx context.Context, userID primitive.ObjectID, photo *PhotoUpload) (string, error) {
	if !utils.IsImageContentType(photo.ContentType) {
		return "", apperrors.BadRequest(utils.MsgNotAnImage)
	}

	data, err := utils.ResizeSquareJPEG(photo.Reader, utils.UserPhotoSize, utils.UserPhotoQuality)
	if err != nil {
		if errors.Is(err, utils.ErrNotAnImage) {
			return "", apperrors.BadRequest(utils.MsgNotAnImage)
		}
		return "", err
	}

	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          utils.UserPhotoKey(userID.Hex()),
		Reader:       bytes.NewReader(data),
		ContentType:  "image/jpeg",
		Size:         int64(len(data)),
		CacheControl: storage.ImmutableCacheControl,
	})
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (s *userService) DeleteMe(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.userRepo.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.logger.LogUserAction(userID.Hex(), "delete_me", nil)
	return nil
}

func (s *userService) PhotoURL(photo string) string {
	if photo == "" {
		photo = models.DefaultUserPhoto
	}
	return s.storage.URL(photo)
}
