package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	MsgNoDocument    = "No document found with that ID"
	MsgInvalidToken  = "Invalid token. Please log in again!"
	MsgExpiredToken  = "Your token has expired! Please log in again."
	MsgInvalidBody   = "Invalid request body"
	MsgBodyTooLarge  = "Request body too large"
	MsgInternalError = "Something went very wrong!"
)

var quotedValue = regexp.MustCompile(`"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`)

// Map converts any error into an AppError. Known failure shapes become
// operational client errors; anything unrecognised is a non-operational 500.
func Map(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		return wrapped(http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("Invalid %s: %s", castErr.Path, castErr.Value), err)
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return wrapped(http.StatusNotFound, ErrCodeNotFound, MsgNoDocument, err)
	}

	if mongo.IsDuplicateKeyError(err) {
		return wrapped(http.StatusBadRequest, ErrCodeDuplicate, duplicateMessage(err), err)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		messages := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			messages = append(messages, FieldMessage(fe))
		}
		return wrapped(http.StatusBadRequest, ErrCodeValidation, validationMessage(messages), err)
	}

	var domainErr *ValidationError
	if errors.As(err, &domainErr) {
		return wrapped(http.StatusBadRequest, ErrCodeValidation, validationMessage(domainErr.Messages), err)
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return wrapped(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, MsgBodyTooLarge, err)
	}

	if isMalformedBody(err) {
		return wrapped(http.StatusBadRequest, ErrCodeInvalidInput, MsgInvalidBody, err)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return wrapped(http.StatusUnauthorized, ErrCodeUnauthorized, MsgExpiredToken, err)
	}
	if isJWTError(err) {
		return wrapped(http.StatusUnauthorized, ErrCodeUnauthorized, MsgInvalidToken, err)
	}

	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Status:     StatusWord(http.StatusInternalServerError),
		Code:       ErrCodeInternal,
		Message:    err.Error(),
		Cause:      err,
	}
}

func wrapped(statusCode int, code, message string, cause error) *AppError {
	return &AppError{
		StatusCode:  statusCode,
		Status:      StatusWord(statusCode),
		Code:        code,
		Message:     message,
		Operational: true,
		Cause:       cause,
	}
}

func validationMessage(messages []string) string {
	return "Invalid input data. " + strings.Join(messages, ". ")
}

func duplicateMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "dup key"); i >= 0 {
		msg = msg[i:]
	}
	value := quotedValue.FindString(msg)
	if value == "" {
		value = "value"
	}
	return fmt.Sprintf("Duplicate field value: %s. Please use another value!", value)
}

func isMalformedBody(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func isJWTError(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrSignatureInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// FieldMessage renders a validator failure as a sentence using the JSON
// field name.
func FieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must have at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "eqfield":
		return "Passwords are not the same!"
	case "difficulty":
		return "Difficulty is either: easy, medium, difficult"
	case "role":
		return "Role is either: user, guide, lead-guide, admin"
	case "objectid":
		return fmt.Sprintf("%s must be a valid id", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
