package users

import (
	"encoding/json"
	"errors"

	"github.com/adamwoolhether/users/client"
)

// StatusError is returned when the service answers with a 4xx or 5xx status.
type StatusError = client.UnexpectedStatusError

var (
	// ErrClosed is returned by calls made on a closed client.
	ErrClosed = client.ErrClientClosed
	// ErrInvalidResponse is returned when a response body is malformed or
	// lacks a field its record requires.
	ErrInvalidResponse = client.ErrInvalidResponse
	// ErrAuthFailure matches 401 and 403 responses.
	ErrAuthFailure = client.ErrAuthFailure
)

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	se, ok := errors.AsType[*StatusError](err)
	if !ok {
		return 0, false
	}
	return se.StatusCode, true
}

// ErrorDetail extracts the "detail" message from a status error body such
// as {"detail":"LOGIN_BAD_CREDENTIALS"}. Structured details (validation
// errors) are returned as raw JSON. It returns "" when err carries none.
func ErrorDetail(err error) string {
	se, ok := errors.AsType[*StatusError](err)
	if !ok {
		return ""
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(se.Body), &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	return string(body.Detail)
}
