// Package shared holds the response helpers used by every HTTP handler, so
// error bodies and status mapping stay uniform across domains.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "agora/pkg/domain-errors"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and writes the uniform
// error body. Unknown errors surface as 500 without leaking their message.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(domainErr.Code), ErrorResponse{
		Error: domainErr.Message,
		Code:  string(domainErr.Code),
	})
}

// WriteErrorStatus writes a domain error with an explicit status override.
func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}
	WriteJSON(w, status, ErrorResponse{
		Error: domainErr.Message,
		Code:  string(domainErr.Code),
	})
}
