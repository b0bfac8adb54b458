// Package httputil provides the uniform JSON response helpers used by the
// HTTP boundary and middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/stockfolio/ledger/internal/errors"
)

// ErrorBody is the uniform error payload written for every failed request.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON serializes data with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteErrorResponse writes the uniform {code, message, details} error body.
func WriteErrorResponse(w http.ResponseWriter, _ *http.Request, status int, code, message string, details map[string]interface{}) {
	WriteJSON(w, status, ErrorBody{Code: code, Message: message, Details: details})
}

// WriteServiceError maps a domain error to its transport status and writes
// the uniform body. Errors outside the taxonomy are reported as an internal
// failure without leaking the cause.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	se := apperrors.GetServiceError(err)
	if se == nil {
		se = apperrors.Internal("Unexpected error", err)
	}
	WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

// Unauthorized writes a bare 401 with the uniform body.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Authentication required"
	}
	WriteErrorResponse(w, nil, http.StatusUnauthorized, string(apperrors.CodeUnauthorized), message, nil)
}
