package validators

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so messages match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("difficulty", validateDifficulty)
	validate.RegisterValidation("role", validateRole)
	validate.RegisterValidation("objectid", validateObjectID)
	validate.RegisterValidation("coordinates", validateCoordinates)
}

// ValidateStruct returns validator.ValidationErrors, which the error mapper
// renders as a 400.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateDifficulty(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "easy", "medium", "difficult":
		return true
	}
	return false
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "user", "guide", "lead-guide", "admin":
		return true
	}
	return false
}

func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	return primitive.IsValidObjectID(value)
}

func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}

	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func objectIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
