package userstest

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adamwoolhether/users"
)

const (
	authAudience   = "fastapi-users:auth"
	verifyAudience = "fastapi-users:verify"
)

// claims is the payload of both access and verification tokens.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type tokens struct {
	secret []byte
	ttl    time.Duration
}

func (t tokens) issue(u users.User, audience string) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("jwt secret must not be empty")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if audience == verifyAudience {
		c.Email = u.Email
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

func (t tokens) parse(token, audience string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return c, nil
}
