package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/adamwoolhether/users/internal/validate"
)

// Decode reads the body of an HTTP request looking for a JSON document. The
// body is decoded into the provided value and checked for validation tags.
func Decode[T any](r *http.Request, val *T) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return NewError(http.StatusUnprocessableEntity, fmt.Sprintf("decode: %v", err))
	}

	return validate.Check(val)
}

// DecodeAllowUnknownFields is the same as Decode, but won't reject unknown fields.
func DecodeAllowUnknownFields[T any](r *http.Request, val *T) error {
	if err := json.NewDecoder(r.Body).Decode(val); err != nil {
		return NewError(http.StatusUnprocessableEntity, fmt.Sprintf("decode: %v", err))
	}

	return validate.Check(val)
}

// FormValue returns a required url-encoded form field.
func FormValue(r *http.Request, key string) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", NewError(http.StatusUnprocessableEntity, fmt.Sprintf("parsing form: %v", err))
	}

	val := r.PostForm.Get(key)
	if val == "" {
		return "", validate.FieldErrors{{Field: key, Err: "This field is required"}}
	}

	return val, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}

	return token, true
}
