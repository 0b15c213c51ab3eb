package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/service"
)

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidPick  = "PICK_REJECTED"
	CodePicksLocked  = "PICKS_LOCKED"
	CodeInvalidMatch = "INVALID_WINNER"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Status   int      `json:"-"`
	Code     string   `json:"code"`
	Message  string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Classify maps a service or engine error onto the response it should
// produce. Unknown errors become a 500 that hides the cause.
func Classify(err error) *APIError {
	var (
		apiErr   *APIError
		verr     *bracket.ValidationError
		invalid  *bracket.InvalidWinnerError
		rejected *bracket.PickRejectedError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, Message: "invalid field", Problems: verr.Problems}
	case errors.As(err, &invalid):
		return &APIError{Status: http.StatusBadRequest, Code: CodeInvalidMatch, Message: invalid.Error()}
	case errors.As(err, &rejected):
		if rejected.Reason == bracket.PickLocked {
			return &APIError{Status: http.StatusForbidden, Code: CodePicksLocked, Message: string(rejected.Reason)}
		}
		return &APIError{Status: http.StatusBadRequest, Code: CodeInvalidPick, Message: string(rejected.Reason)}
	case errors.Is(err, service.ErrNotFound), errors.Is(err, bracket.ErrMatchNotFound), errors.Is(err, bracket.ErrEntrantNotFound):
		return &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, service.ErrResultsRecorded):
		return &APIError{Status: http.StatusConflict, Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, service.ErrEmailNotAllowed):
		return &APIError{Status: http.StatusForbidden, Code: CodeForbidden, Message: service.ErrEmailNotAllowed.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal Server Error"}
	}
}

// Error writes err as a JSON error body. msg describes what was being done
// and only goes to the log.
func Error(w http.ResponseWriter, msg string, err error) {
	apiErr := Classify(err)
	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err)
	} else {
		slog.Warn(msg, "status", apiErr.Status, "error", err)
	}
	JSON(w, apiErr.Status, apiErr)
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	JSON(w, http.StatusInternalServerError, &APIError{Code: CodeInternal, Message: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	JSON(w, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: msg})
}

func Unauthorized(w http.ResponseWriter) {
	JSON(w, http.StatusUnauthorized, &APIError{Code: CodeUnauthorized, Message: "Sign in required"})
}

func Forbidden(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusForbidden, &APIError{Code: CodeForbidden, Message: msg})
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// DecodeJSON rejects unknown fields so typos in admin payloads surface.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
