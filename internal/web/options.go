package web

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures an App.
type Option func(opts *options)

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
	mw     []Middleware
}

// WithLogger injects the logger used for unhandled handler errors.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithTracer injects the given tracer into the App.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithMiddleware appends middleware wrapping every route.
func WithMiddleware(mw ...Middleware) Option {
	return func(opts *options) {
		opts.mw = append(opts.mw, mw...)
	}
}
