package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetailError writes the {"detail": "..."} body used for auth and
// not-found failures.
func writeDetailError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, map[string]string{"detail": detail})
}

// writeValidationError writes the 400 field-error shape:
// {"username": ["..."], "email": ["..."]}.
func writeValidationError(w http.ResponseWriter, verr *apperrors.ValidationError) {
	writeJSON(w, http.StatusBadRequest, verr.Fields)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

// validationErrorFrom converts validator.v10 struct errors into the
// field-error shape shared with the domain validators.
func validationErrorFrom(err error) *apperrors.ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &apperrors.ValidationError{Fields: map[string][]string{}}
	}
	fields := map[string][]string{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "email":
			msg = "enter a valid email address"
		case "max":
			msg = field + " must be at most " + fe.Param() + " characters"
		default:
			msg = field + " is invalid"
		}
		fields[field] = append(fields[field], msg)
	}
	return &apperrors.ValidationError{Fields: fields}
}

func noContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
