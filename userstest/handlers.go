package userstest

import (
	"context"
	"errors"
	"net/http"

	"github.com/adamwoolhether/users"
	"github.com/adamwoolhether/users/internal/web"
)

// Error details returned by the service.
const (
	detailRegisterExists    = "REGISTER_USER_ALREADY_EXISTS"
	detailBadCredentials    = "LOGIN_BAD_CREDENTIALS"
	detailNotVerified       = "LOGIN_USER_NOT_VERIFIED"
	detailVerifyBadToken    = "VERIFY_USER_BAD_TOKEN"
	detailAlreadyVerified   = "VERIFY_USER_ALREADY_VERIFIED"
	detailUpdateEmailExists = "UPDATE_USER_EMAIL_ALREADY_EXISTS"
	detailUnauthorized      = "Unauthorized"
)

func (s *Service) routes(app *web.App) {
	app.Post("/auth/register", s.register)
	app.Post("/auth/jwt/login", s.login)
	app.Post("/auth/verify", s.verify)
	app.Get("/users/me", s.me, s.authenticate)
	app.Patch("/users/me", s.updateMe, s.authenticate)
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Service) register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := web.DecodeAllowUnknownFields(r, &req); err != nil {
		return err
	}

	u := users.User{
		Username: req.Username,
		Email:    req.Email,
		IsActive: true,
	}

	created, err := s.store.create(u, req.Password)
	if err != nil {
		if errors.Is(err, errEmailExists) {
			return web.NewError(http.StatusBadRequest, detailRegisterExists)
		}
		return web.NewInternal(err)
	}

	return web.RespondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Service) login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	username, err := web.FormValue(r, "username")
	if err != nil {
		return err
	}
	password, err := web.FormValue(r, "password")
	if err != nil {
		return err
	}

	u, ok := s.store.authenticate(username, password)
	if !ok || !u.IsActive {
		return web.NewError(http.StatusBadRequest, detailBadCredentials)
	}
	if s.requireVerification && !u.IsVerified {
		return web.NewError(http.StatusBadRequest, detailNotVerified)
	}

	token, err := s.tokens.issue(u, authAudience)
	if err != nil {
		return web.NewInternal(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, users.LoginResponse{AccessToken: token, TokenType: "bearer"})
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

func (s *Service) verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req verifyRequest
	if err := web.DecodeAllowUnknownFields(r, &req); err != nil {
		return err
	}

	c, err := s.tokens.parse(req.Token, verifyAudience)
	if err != nil {
		return web.NewError(http.StatusBadRequest, detailVerifyBadToken)
	}

	u, err := s.store.byEmail(c.Email)
	if err != nil || u.ID.String() != c.Subject {
		return web.NewError(http.StatusBadRequest, detailVerifyBadToken)
	}
	if u.IsVerified {
		return web.NewError(http.StatusBadRequest, detailAlreadyVerified)
	}

	verified := true
	u, err = s.store.update(u.ID, change{verified: &verified})
	if err != nil {
		return web.NewInternal(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, u)
}

func (s *Service) me(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	u, err := s.current(ctx)
	if err != nil {
		return err
	}

	return web.RespondJSON(ctx, w, http.StatusOK, u)
}

type updateRequest struct {
	Email    *string `json:"email" validate:"omitnil,email"`
	Password *string `json:"password" validate:"omitnil,min=1"`
	Username *string `json:"username" validate:"omitnil,min=1"`
}

func (s *Service) updateMe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	u, err := s.current(ctx)
	if err != nil {
		return err
	}

	var req updateRequest
	if err := web.DecodeAllowUnknownFields(r, &req); err != nil {
		return err
	}

	u, err = s.store.update(u.ID, change{email: req.Email, password: req.Password, username: req.Username})
	if err != nil {
		if errors.Is(err, errEmailExists) {
			return web.NewError(http.StatusBadRequest, detailUpdateEmailExists)
		}
		return web.NewInternal(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, u)
}

// =============================================================================

// authenticate rejects requests without a valid access token for an
// active user and stores the token subject in the context.
func (s *Service) authenticate(handler web.Handler) web.Handler {
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		token, ok := web.BearerToken(r)
		if !ok {
			return web.NewError(http.StatusUnauthorized, detailUnauthorized)
		}

		c, err := s.tokens.parse(token, authAudience)
		if err != nil {
			return web.NewError(http.StatusUnauthorized, detailUnauthorized)
		}

		return handler(web.WithSubject(ctx, c.Subject), w, r)
	}

	return h
}

func (s *Service) current(ctx context.Context) (users.User, error) {
	sub, ok := web.Subject(ctx)
	if !ok {
		return users.User{}, web.NewError(http.StatusUnauthorized, detailUnauthorized)
	}

	id, err := users.ParseSnowflake(sub)
	if err != nil {
		return users.User{}, web.NewError(http.StatusUnauthorized, detailUnauthorized)
	}

	u, err := s.store.get(id)
	if err != nil || !u.IsActive {
		return users.User{}, web.NewError(http.StatusUnauthorized, detailUnauthorized)
	}

	return u, nil
}
