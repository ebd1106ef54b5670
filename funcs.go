package users

import "context"

// The functions below open a fresh AsyncClient, make exactly one call and
// release the client before returning. Nothing is shared between calls, so
// each one pays for its own connection setup. Reuse a Client for anything
// beyond one-off use.

// Register creates an account.
func Register(ctx context.Context, r RegisterRequest, optFns ...Option) (User, error) {
	return UseAsync(optFns, func(a *AsyncClient) (User, error) {
		return a.Register(ctx, r).Await(ctx)
	})
}

// Login exchanges credentials for a bearer token.
func Login(ctx context.Context, username, password string, optFns ...Option) (LoginResponse, error) {
	return UseAsync(optFns, func(a *AsyncClient) (LoginResponse, error) {
		return a.Login(ctx, username, password).Await(ctx)
	})
}

// Verify confirms an account with a verification token.
func Verify(ctx context.Context, token string, optFns ...Option) (User, error) {
	return UseAsync(optFns, func(a *AsyncClient) (User, error) {
		return a.Verify(ctx, token).Await(ctx)
	})
}

// GetMe returns the account the bearer token belongs to.
func GetMe(ctx context.Context, token string, optFns ...Option) (User, error) {
	return UseAsync(optFns, func(a *AsyncClient) (User, error) {
		return a.GetMe(ctx, token).Await(ctx)
	})
}

// UpdateMe changes the profile of the account the bearer token belongs to.
func UpdateMe(ctx context.Context, token string, r UpdateRequest, optFns ...Option) (User, error) {
	return UseAsync(optFns, func(a *AsyncClient) (User, error) {
		return a.UpdateMe(ctx, token, r).Await(ctx)
	})
}
