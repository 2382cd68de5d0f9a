package handlers

import (
	"strings"

	"natours/internal/apperrors"
	"natours/internal/middleware"
	"natours/internal/models"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/internal/validators"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*Factory[models.User, validators.SignupRequest, validators.UserUpdateRequest]
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{
		Factory: NewFactory(Resource[models.User, validators.SignupRequest, validators.UserUpdateRequest]{
			Service:  users,
			Schema:   services.UserSchema,
			Singular: "user",
			Plural:   "users",
		}),
		users: users,
	}
}

// GetMe points the id parameter at the current user so GetOne can serve it.
func (h *UserHandler) GetMe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.Params = append(c.Params, gin.Param{Key: "id", Value: user.ID.Hex()})
	c.Next()
}

// UpdateMe accepts JSON or a multipart form with an optional photo
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req validators.UpdateMeRequest
	var photo *services.PhotoUpload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			_ = c.Error(err)
			return
		}
		if header, err := c.FormFile("photo"); err == nil {
			file, err := header.Open()
			if err != nil {
				_ = c.Error(err)
				return
			}
			defer file.Close()
			photo = &services.PhotoUpload{Reader: file, ContentType: header.Header.Get("Content-Type")}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.UpdateMe(c.Request.Context(), middleware.CurrentUser(c).ID, &req, photo)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// DeleteMe deactivates the current user's account
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.users.DeleteMe(c.Request.Context(), middleware.CurrentUser(c).ID); err != nil {
		_ = c.Error(err)
		return
	}
	utils.NoContentResponse(c)
}

// CreateUser is not supported; accounts come from signup.
func (h *UserHandler) CreateUser(c *gin.Context) {
	_ = c.Error(apperrors.Internal(services.MsgUseSignup, nil))
}
