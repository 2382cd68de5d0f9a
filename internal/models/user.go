package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"

	DefaultUserPhoto = "default.jpg"
)

type User struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                 string             `json:"name,omitempty" bson:"name"`
	Email                string             `json:"email,omitempty" bson:"email"`
	Photo                string             `json:"photo,omitempty" bson:"photo"`
	Role                 Role               `json:"role,omitempty" bson:"role"`
	Password             string             `json:"-" bson:"password"`
	PasswordChangedAt    *time.Time         `json:"passwordChangedAt,omitempty" bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string             `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time         `json:"-" bson:"passwordResetExpires,omitempty"`
	Active               bool               `json:"-" bson:"active"`
	CreatedAt            *time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat (unix seconds). Comparison is in whole seconds.
func (u *User) ChangedPasswordAfter(iat int64) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat
}

func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// UserRef is the populated form of a user reference.
type UserRef struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email,omitempty" bson:"email,omitempty"`
	Photo string             `json:"photo" bson:"photo"`
	Role  Role               `json:"role,omitempty" bson:"role,omitempty"`
}
