package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

// UserPhotoKey names an uploaded user photo; the uuid suffix keeps
// concurrent uploads apart.
func UserPhotoKey(userID string) string {
	return fmt.Sprintf("user-%s-%s.jpeg", userID, uuid.NewString())
}
