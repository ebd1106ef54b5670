package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/users/client"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// Client issues blocking calls against the users service. It owns one
// transport for its lifetime; release it with Close.
type Client struct {
	http    *client.Client
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer
	strict  bool
}

// New builds a Client. The base URL defaults to DefaultBaseURL.
func New(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying users option: %w", err)
		}
	}

	if opts.baseURL == "" {
		opts.baseURL = DefaultBaseURL
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	httpOpts := append([]client.Option{client.WithLogger(opts.logger)}, opts.httpOpts...)
	hc, err := client.Build(httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	c := Client{
		http:    hc,
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		logger:  opts.logger,
		tracer:  opts.tracer,
		strict:  opts.strict,
	}

	return &c, nil
}

// Close releases the transport. Calls made afterwards fail with ErrClosed.
func (c *Client) Close() error {
	return c.http.Close()
}

// IsClosed reports whether the transport has been released.
func (c *Client) IsClosed() bool {
	return c.http.IsClosed()
}

// BaseURL returns the origin every endpoint path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterRequest carries the fields of a registration. Unset optional
// fields are left out of the request body.
type RegisterRequest struct {
	Username     string
	Email        string
	Password     string
	GrantType    Optional[string]
	Scope        Optional[string]
	ClientSecret Optional[string]
}

func (r RegisterRequest) fields() []Field {
	return []Field{
		{Name: "username", Value: r.Username},
		{Name: "email", Value: r.Email},
		{Name: "password", Value: r.Password},
		r.GrantType.field("grant_type"),
		r.Scope.field("scope"),
		r.ClientSecret.field("client_secret"),
	}
}

// UpdateRequest carries the profile fields to change. Unset fields are
// left untouched by the service.
type UpdateRequest struct {
	Email    Optional[string]
	Password Optional[string]
	Username Optional[string]
}

func (r UpdateRequest) fields() []Field {
	return []Field{
		r.Email.field("email"),
		r.Password.field("password"),
		r.Username.field("username"),
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (User, error) {
	return invoke[User, userPayload](ctx, c, registerEndpoint, call{fields: r.fields()})
}

// Login exchanges credentials for a bearer token. The credentials are
// sent form-encoded.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	in := call{fields: []Field{
		{Name: "username", Value: username},
		{Name: "password", Value: password},
	}}

	return invoke[LoginResponse, loginPayload](ctx, c, loginEndpoint, in)
}

// Verify confirms an account with a verification token. The token is sent
// in the request body, not as a bearer header.
func (c *Client) Verify(ctx context.Context, token string) (User, error) {
	in := call{fields: []Field{{Name: "token", Value: token}}}

	return invoke[User, userPayload](ctx, c, verifyEndpoint, in)
}

// GetMe returns the account the bearer token belongs to.
func (c *Client) GetMe(ctx context.Context, token string) (User, error) {
	return invoke[User, userPayload](ctx, c, getMeEndpoint, call{token: token})
}

// UpdateMe changes the profile of the account the bearer token belongs to.
func (c *Client) UpdateMe(ctx context.Context, token string, r UpdateRequest) (User, error) {
	return invoke[User, userPayload](ctx, c, updateMeEndpoint, call{token: token, fields: r.fields()})
}

// Use builds a Client, hands it to fn and closes it on every exit path.
// A close failure is joined into the returned error.
func Use[T any](optFns []Option, fn func(*Client) (T, error)) (result T, err error) {
	c, err := New(optFns...)
	if err != nil {
		return result, err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()

	return fn(c)
}
