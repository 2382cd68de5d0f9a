package validators

import (
	"strings"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/utils"
)

type SignupRequest struct {
	Name            string `json:"name" validate:"required,max=40"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = utils.NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UpdateMeRequest carries the fields a user may change on their own account.
// Password fields are accepted only so they can be rejected explicitly.
type UpdateMeRequest struct {
	Name            *string `json:"name" form:"name" validate:"omitempty,min=1,max=40"`
	Email           *string `json:"email" form:"email" validate:"omitempty,email"`
	Password        string  `json:"password" form:"password"`
	PasswordConfirm string  `json:"passwordConfirm" form:"passwordConfirm"`
}

func (r *UpdateMeRequest) TouchesPassword() bool {
	return r.Password != "" || r.PasswordConfirm != ""
}

func (r *UpdateMeRequest) Apply(u *models.User) error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		u.Email = utils.NormalizeEmail(*r.Email)
	}
	return nil
}

// UserUpdateRequest is the admin update. Passwords cannot be changed here.
type UserUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=40"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Photo  *string `json:"photo"`
	Role   *string `json:"role" validate:"omitempty,role"`
	Active *bool   `json:"active"`
}

func (r *UserUpdateRequest) Apply(u *models.User) error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		u.Email = utils.NormalizeEmail(*r.Email)
	}
	if r.Photo != nil {
		u.Photo = *r.Photo
	}
	if r.Role != nil {
		u.Role = models.Role(*r.Role)
	}
	if r.Active != nil {
		u.Active = *r.Active
	}
	return nil
}

func ValidateUser(u *models.User) error {
	var msgs []string

	if u.Name == "" {
		msgs = append(msgs, "Please tell us your name!")
	} else if len([]rune(u.Name)) > 40 {
		msgs = append(msgs, "A name must have less or equal then 40 characters")
	}
	if u.Email == "" {
		msgs = append(msgs, "Please provide your email")
	} else if !utils.IsValidEmail(u.Email) {
		msgs = append(msgs, "Please provide a valid email")
	}
	if !u.HasRole(models.RoleUser, models.RoleGuide, models.RoleLeadGuide, models.RoleAdmin) {
		msgs = append(msgs, "Role is either: user, guide, lead-guide, admin")
	}

	if len(msgs) > 0 {
		return apperrors.NewValidationError(msgs...)
	}
	return nil
}
