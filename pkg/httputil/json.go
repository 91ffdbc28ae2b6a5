package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/masonry/pkg/errors"
)

// MaxBodySize bounds request bodies read by DecodeJSON.
const MaxBodySize = 32 << 20

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorResponse and returns the status used.
func WriteError(w http.ResponseWriter, err error) int {
	status := errors.HTTPStatus(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	_ = WriteJSON(w, status, ErrorResponse{Error: msg, Code: errors.GetCode(err)})
	return status
}

// DecodeJSON decodes the request body into v. Bodies over MaxBodySize,
// malformed JSON and unknown fields are ErrCodeInvalidInput errors.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body must hold a single JSON value")
	}
	return nil
}
