// Package httputil writes the JSON response envelope shared by every endpoint:
//
//	{"message": "...", "success": true|false, ...operation fields}
//
// Clients must check "success" rather than infer the outcome from the status alone.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "jobportal/pkg/domain-errors"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 1 << 20

// Envelope is a response body. Keys beyond message/success are operation specific.
type Envelope map[string]any

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope, merging extra fields into it.
func WriteSuccess(w http.ResponseWriter, status int, message string, extra Envelope) {
	body := Envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	WriteJSON(w, status, body)
}

// WriteError maps a coded error onto a failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorWith(w, StatusFor(dErrors.CodeOf(err)), err, nil)
}

// WriteErrorWith writes a failure envelope with an explicit status and extra fields.
// Internal errors carry the underlying detail under "error" for operators.
func WriteErrorWith(w http.ResponseWriter, status int, err error, extra Envelope) {
	body := Envelope{
		"success": false,
		"message": dErrors.MessageOf(err),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Err != nil {
			body["error"] = de.Err.Error()
		} else {
			body["error"] = err.Error()
		}
	}
	for k, v := range extra {
		body[k] = v
	}
	WriteJSON(w, status, body)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a bounded JSON body into T.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return &v, nil
}
