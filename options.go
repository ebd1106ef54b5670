package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/users/client"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error
type options struct {
	baseURL  string
	httpOpts []client.Option
	logger   *slog.Logger
	tracer   trace.Tracer
	strict   bool
}

// WithBaseURL sets the service origin, e.g. "https://auth.example.com".
func WithBaseURL(rawURL string) Option {
	return func(o *options) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url[%s] must be absolute", rawURL)
		}
		o.baseURL = rawURL
		return nil
	}
}

// WithHTTPOptions forwards options to the underlying [client.Build].
func WithHTTPOptions(opts ...client.Option) Option {
	return func(o *options) error {
		o.httpOpts = append(o.httpOpts, opts...)
		return nil
	}
}

// WithLogger injects a custom [slog.Logger], shared with the transport.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to start a span per call.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithStrictDecoding rejects responses carrying fields the records do
// not declare. By default such fields are ignored.
func WithStrictDecoding() Option {
	return func(o *options) error {
		o.strict = true
		return nil
	}
}

// WithConfig applies a Config loaded with [LoadConfig].
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		if cfg.BaseURL != "" {
			if err := WithBaseURL(cfg.BaseURL)(o); err != nil {
				return err
			}
		}
		if cfg.Timeout > 0 {
			o.httpOpts = append(o.httpOpts, client.WithTimeout(cfg.Timeout))
		}
		if cfg.UserAgent != "" {
			o.httpOpts = append(o.httpOpts, client.WithUserAgent(cfg.UserAgent))
		}
		if cfg.StrictDecoding {
			o.strict = true
		}
		return nil
	}
}
