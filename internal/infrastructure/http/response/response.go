package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

const internalMessage = "internal server error"

// Error sends an error response. Server errors carry a generic message; the
// caller is expected to log the cause.
func Error(w http.ResponseWriter, status int, err error) {
	body := ErrorResponse{
		Error:   errorType(status),
		Message: err.Error(),
	}
	if status >= http.StatusInternalServerError {
		body.Message = internalMessage
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}

	JSON(w, status, body)
}

// FromError maps domain errors to their HTTP status
func FromError(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}

// StatusFor returns the HTTP status matching a domain error
func StatusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateProduct):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_server_error"
	default:
		return "error"
	}
}
