package users

import (
	"context"
	"errors"
)

// Pending is an in-flight or completed asynchronous call.
type Pending[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done returns a channel that is closed when the call completes.
func (p *Pending[T]) Done() <-chan struct{} { return p.done }

// Await blocks until the call completes or ctx ends. When ctx ends first
// the call keeps running under the context it was started with and its
// result is discarded.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func start[T any](ctx context.Context, fn func(context.Context) (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}

	go func() {
		defer close(p.done)
		p.val, p.err = fn(ctx)
	}()

	return p
}

// AsyncClient issues the same calls as Client without blocking the caller:
// each method starts the call on its own goroutine and returns a Pending.
// Closing the client while calls are in flight makes calls that have not
// yet reached the transport fail with ErrClosed.
type AsyncClient struct {
	c *Client
}

// NewAsync builds an AsyncClient.
func NewAsync(optFns ...Option) (*AsyncClient, error) {
	c, err := New(optFns...)
	if err != nil {
		return nil, err
	}

	return &AsyncClient{c: c}, nil
}

// Close releases the transport.
func (a *AsyncClient) Close() error { return a.c.Close() }

// IsClosed reports whether the transport has been released.
func (a *AsyncClient) IsClosed() bool { return a.c.IsClosed() }

// Register starts a registration.
func (a *AsyncClient) Register(ctx context.Context, r RegisterRequest) *Pending[User] {
	return start(ctx, func(ctx context.Context) (User, error) {
		return a.c.Register(ctx, r)
	})
}

// Login starts a login.
func (a *AsyncClient) Login(ctx context.Context, username, password string) *Pending[LoginResponse] {
	return start(ctx, func(ctx context.Context) (LoginResponse, error) {
		return a.c.Login(ctx, username, password)
	})
}

// Verify starts an account verification.
func (a *AsyncClient) Verify(ctx context.Context, token string) *Pending[User] {
	return start(ctx, func(ctx context.Context) (User, error) {
		return a.c.Verify(ctx, token)
	})
}

// GetMe starts a profile lookup.
func (a *AsyncClient) GetMe(ctx context.Context, token string) *Pending[User] {
	return start(ctx, func(ctx context.Context) (User, error) {
		return a.c.GetMe(ctx, token)
	})
}

// UpdateMe starts a profile update.
func (a *AsyncClient) UpdateMe(ctx context.Context, token string, r UpdateRequest) *Pending[User] {
	return start(ctx, func(ctx context.Context) (User, error) {
		return a.c.UpdateMe(ctx, token, r)
	})
}

// UseAsync builds an AsyncClient, hands it to fn and closes it on every
// exit path. A close failure is joined into the returned error.
func UseAsync[T any](optFns []Option, fn func(*AsyncClient) (T, error)) (result T, err error) {
	a, err := NewAsync(optFns...)
	if err != nil {
		return result, err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	return fn(a)
}
