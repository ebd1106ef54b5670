// Package users is a client for a remote user-authentication service
// exposing registration, login, verification and profile endpoints.
//
// # Clients
//
// [Client] blocks on every call; [AsyncClient] returns a [Pending] result
// immediately. Both own one transport and must be closed:
//
//	c, err := users.New(users.WithBaseURL("https://auth.example.com"))
//	if err != nil { ... }
//	defer c.Close()
//
//	tok, err := c.Login(ctx, "alice@example.com", "secret")
//	me, err := c.GetMe(ctx, tok.AccessToken)
//
// [Use] and [UseAsync] close the client on every exit path. The package
// level functions ([Register], [Login], [Verify], [GetMe], [UpdateMe]) open
// a client for a single call.
//
// # Optional fields
//
// Optional request fields are [Optional] values; unset ones never reach the
// request body:
//
//	me, err := c.UpdateMe(ctx, token, users.UpdateRequest{
//		Email: users.Some("new@example.com"),
//	})
//
// # Errors
//
// A 4xx/5xx response yields a [*StatusError]; [ErrorDetail] extracts the
// service's detail message. Responses missing a required field fail with
// [ErrInvalidResponse]. Unknown response fields are ignored unless
// [WithStrictDecoding] is set.
//
// # Configuration
//
// [LoadConfig] reads USERS_* environment variables; pass the result to
// [WithConfig].
//
// # Testing
//
// Package userstest runs an in-memory fake of the service that this
// client can be pointed at with [WithBaseURL].
package users
