package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
)

const (
	roleHeader  = "X-Role"
	actorHeader = "X-Actor"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, message string, statusCode int, validationErrors []ValidationError) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Errors: validationErrors,
	})
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// It writes the 400 response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

func respondValidationError(w http.ResponseWriter, err error) {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	respondError(w, "Validation failed", http.StatusBadRequest, toValidationErrors(fieldErrors))
}

func toValidationErrors(fieldErrors validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   jsonPath(fe.Namespace()),
			Message: messageForTag(fe),
		})
	}
	return out
}

// jsonPath drops the root type from a namespace such as
// "CreateOrderRequest.items[0].quantity".
func jsonPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s elements", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "unique":
		return "must not contain duplicates"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// respondServiceError maps core errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, lgr logger.Logger, action string, err error) {
	switch {
	case domain.IsNotFound(err):
		respondError(w, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, err.Error(), http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrOrderImmutable),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateOrderNumber),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		respondError(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrUnknownStatus):
		respondError(w, err.Error(), http.StatusBadRequest, nil)
	default:
		lgr.Error(action, "Request failed", RequestID(r.Context()), map[string]interface{}{
			"path": r.URL.Path,
		}, err)
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}

// principal reads the caller's role and actor name. Authentication happens in
// front of this service; the headers carry its result.
func principal(r *http.Request) (domain.Role, string, error) {
	raw := r.Header.Get(roleHeader)
	if raw == "" {
		return "", "", fmt.Errorf("%w: %s header is required", domain.ErrValidation, roleHeader)
	}

	role, err := domain.ParseRole(raw)
	if err != nil {
		return "", "", err
	}

	actor := r.Header.Get(actorHeader)
	if actor == "" {
		actor = string(role)
	}
	return role, actor, nil
}
