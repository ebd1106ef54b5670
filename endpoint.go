package users

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/adamwoolhether/users/client"
)

type encoding int

const (
	noBody encoding = iota
	jsonBody
	formBody
)

// endpoint describes one remote operation. Both Client and AsyncClient
// execute calls through the same table.
type endpoint struct {
	op       string
	method   string
	path     string
	encoding encoding
	bearer   bool
}

var (
	registerEndpoint = endpoint{op: "register", method: http.MethodPost, path: "/auth/register", encoding: jsonBody}
	loginEndpoint    = endpoint{op: "login", method: http.MethodPost, path: "/auth/jwt/login", encoding: formBody}
	verifyEndpoint   = endpoint{op: "verify", method: http.MethodPost, path: "/auth/verify", encoding: jsonBody}
	getMeEndpoint    = endpoint{op: "get_me", method: http.MethodGet, path: "/users/me", bearer: true}
	updateMeEndpoint = endpoint{op: "update_me", method: http.MethodPatch, path: "/users/me", encoding: jsonBody, bearer: true}
)

// call is the per-invocation input for an endpoint.
type call struct {
	token  string
	fields []Field
}

// payload is a wire schema that converts into the record T.
type payload[T any] interface {
	record() T
}

// invoke runs ep against c and decodes the response through the wire schema P.
func invoke[T any, P payload[T]](ctx context.Context, c *Client, ep endpoint, in call) (result T, err error) {
	ctx, span := c.tracer.Start(ctx, "users."+ep.op)
	span.SetAttributes(
		attribute.String("http.request.method", ep.method),
		attribute.String("http.route", ep.path),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := c.request(ctx, ep, in)
	if err != nil {
		return result, fmt.Errorf("%s: %w", ep.op, err)
	}

	opts := []client.DoOption{client.WithValidation()}
	if c.strict {
		opts = append(opts, client.WithDisallowUnknownFields())
	}

	var (
		p      P
		status int
	)
	start := time.Now()
	err = c.http.Do(req, append(opts, client.WithDestination(&p), client.WithStatus(&status))...)
	c.logger.Debug("users call completed", "op", ep.op, "method", ep.method, "path", ep.path, "statusCode", status, "since", time.Since(start).String(), "ok", err == nil)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", ep.op, err)
	}

	return p.record(), nil
}

func (c *Client) request(ctx context.Context, ep endpoint, in call) (*http.Request, error) {
	reqURL, err := url.Parse(c.baseURL + ep.path)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	headers := make(http.Header)
	if ep.bearer {
		for k, v := range AuthHeaders(in.token) {
			headers[k] = v
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	opts := []client.RequestOption{client.WithHeaders(headers)}
	switch ep.encoding {
	case jsonBody:
		opts = append(opts, client.WithPayload(Body(in.fields...)))
	case formBody:
		opts = append(opts, client.WithForm(form(Body(in.fields...))))
	}

	return c.http.Request(ctx, reqURL, ep.method, opts...)
}
