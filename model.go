package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Snowflake is a 64-bit integer account id. It travels as a JSON number
// and is decoded without a float round trip, so ids above 2^53 survive.
type Snowflake int64

// ParseSnowflake parses the decimal form produced by Snowflake.String.
func ParseSnowflake(s string) (Snowflake, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing snowflake %q: %w", s, err)
	}
	return Snowflake(n), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// User is an account as returned by the service.
type User struct {
	ID          Snowflake `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	IsVerified  bool      `json:"is_verified"`
}

// LoginResponse is the bearer credential issued by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// All yields the response's fields as key/value pairs in declaration order.
func (r LoginResponse) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if !yield("access_token", r.AccessToken) {
			return
		}
		yield("token_type", r.TokenType)
	}
}

// Map returns the response's fields keyed by their wire names.
func (r LoginResponse) Map() map[string]string {
	m := make(map[string]string, 2)
	for k, v := range r.All() {
		m[k] = v
	}
	return m
}

// Values always fails: a LoginResponse is a keyed record and has no
// meaningful positional form. The error wraps errors.ErrUnsupported.
func (r LoginResponse) Values() ([]string, error) {
	return nil, fmt.Errorf("login response values: %w", errors.ErrUnsupported)
}

// AuthHeader returns the Authorization header carrying the access token.
func (r LoginResponse) AuthHeader() map[string][]string {
	return AuthHeaders(r.AccessToken)
}

// String renders the response as a JSON object, e.g.
// {"access_token": "abc", "token_type": "bearer"}.
func (r LoginResponse) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, v := range r.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(quote(k))
		b.WriteString(": ")
		b.WriteString(quote(v))
	}
	b.WriteByte('}')

	return b.String()
}

// quote renders s as a JSON string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// AuthHeaders maps a bearer token to its Authorization header.
func AuthHeaders(token string) map[string][]string {
	return map[string][]string{"Authorization": {"Bearer " + token}}
}

// =============================================================================
// Wire schemas. Pointer fields let validation tell a missing key from a zero value.

type userPayload struct {
	ID          *Snowflake `json:"id" validate:"required"`
	Username    *string    `json:"username" validate:"required"`
	Email       *string    `json:"email" validate:"required"`
	IsActive    *bool      `json:"is_active" validate:"required"`
	IsSuperuser *bool      `json:"is_superuser" validate:"required"`
	IsVerified  *bool      `json:"is_verified" validate:"required"`
}

func (p userPayload) record() User {
	return User{
		ID:          *p.ID,
		Username:    *p.Username,
		Email:       *p.Email,
		IsActive:    *p.IsActive,
		IsSuperuser: *p.IsSuperuser,
		IsVerified:  *p.IsVerified,
	}
}

type loginPayload struct {
	AccessToken *string `json:"access_token" validate:"required"`
	TokenType   *string `json:"token_type" validate:"required"`
}

func (p loginPayload) record() LoginResponse {
	return LoginResponse{
		AccessToken: *p.AccessToken,
		TokenType:   *p.TokenType,
	}
}
