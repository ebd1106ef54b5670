// Package userstest runs an in-process fake of the user-authentication
// service for tests of code built on package users.
//
// The fake keeps accounts in memory, hashes passwords with bcrypt and
// issues HS256 JWTs. Its routes, status codes and {"detail": ...} error
// bodies follow the remote service's contract:
//
//	POST  /auth/register   JSON body, 201 with the new user
//	POST  /auth/jwt/login  form body, 200 with a bearer token
//	POST  /auth/verify     JSON body {"token": ...}, 200 with the user
//	GET   /users/me        bearer header, 200 with the user
//	PATCH /users/me        bearer header + JSON body, 200 with the user
package userstest

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/users"
	"github.com/adamwoolhether/users/internal/web"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	logger              *slog.Logger
	tracer              trace.Tracer
	secret              string
	ttl                 time.Duration
	cost                int
	requireVerification bool
}

// WithLogger sets the logger used for request logs. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer sets the tracer the service starts a span per request with.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithSecret sets the HMAC secret tokens are signed with. A random secret
// is generated by default.
func WithSecret(secret string) Option {
	return func(o *options) {
		o.secret = secret
	}
}

// WithTokenTTL sets the lifetime of issued tokens. The default is one hour.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithHashCost sets the bcrypt cost. The default is bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(o *options) {
		o.cost = cost
	}
}

// WithRequireVerification rejects logins of unverified users with
// LOGIN_USER_NOT_VERIFIED.
func WithRequireVerification() Option {
	return func(o *options) {
		o.requireVerification = true
	}
}

// =============================================================================

// Service is the fake service as an http.Handler.
type Service struct {
	handler             http.Handler
	store               *store
	tokens              tokens
	requireVerification bool
}

// NewService builds a Service with an empty user table.
func NewService(optFns ...Option) *Service {
	opts := options{
		logger: slog.New(slog.DiscardHandler),
		secret: uuid.NewString(),
		ttl:    time.Hour,
		cost:   bcrypt.MinCost,
	}
	for _, opt := range optFns {
		opt(&opts)
	}

	s := Service{
		store:               newStore(opts.cost),
		tokens:              tokens{secret: []byte(opts.secret), ttl: opts.ttl},
		requireVerification: opts.requireVerification,
	}

	webOpts := []web.Option{
		web.WithLogger(opts.logger),
		web.WithMiddleware(web.Logger(opts.logger), web.Errors(opts.logger), web.Panics()),
	}
	if opts.tracer != nil {
		webOpts = append(webOpts, web.WithTracer(opts.tracer))
	}

	app := web.New(webOpts...)
	s.routes(app)
	s.handler = app

	return &s
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Seed stores u with the given password as-is, bypassing registration.
// A zero ID is replaced with a fresh snowflake. The stored user is returned.
func (s *Service) Seed(u users.User, password string) (users.User, error) {
	stored, err := s.store.create(u, password)
	if err != nil {
		return users.User{}, fmt.Errorf("seeding %s: %w", u.Email, err)
	}

	return stored, nil
}

// Lookup returns the current state of the user registered under email.
func (s *Service) Lookup(email string) (users.User, bool) {
	u, err := s.store.byEmail(email)
	return u, err == nil
}

// VerifyToken issues the verification token the service would e-mail to
// the user registered under email.
func (s *Service) VerifyToken(email string) (string, error) {
	return s.token(email, verifyAudience)
}

// AccessToken issues an access token for the user registered under email
// without going through login.
func (s *Service) AccessToken(email string) (string, error) {
	return s.token(email, authAudience)
}

func (s *Service) token(email, audience string) (string, error) {
	u, err := s.store.byEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", email, err)
	}

	return s.tokens.issue(u, audience)
}

// =============================================================================

// Server is a Service listening on a loopback port.
type Server struct {
	*Service

	// URL is the base URL of the form http://ipaddr:port with no trailing slash.
	URL string

	srv *httptest.Server
}

// NewServer starts and returns a new Server. The caller should call Close
// when finished, to shut it down.
func NewServer(optFns ...Option) *Server {
	svc := NewService(optFns...)
	srv := httptest.NewServer(svc)

	return &Server{
		Service: svc,
		URL:     srv.URL,
		srv:     srv,
	}
}

// Close shuts down the server and blocks until all outstanding requests
// on it have completed.
func (s *Server) Close() {
	s.srv.Close()
}
