// Package client provides the HTTP transport used by the users service
// client, built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//	defer c.Close()
//
// # Making Requests
//
// Construct a [URL] and [Request], then execute with [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/users/me")
//	req, err := client.Request(ctx, u, http.MethodGet,
//		client.WithHeaders(map[string][]string{"Authorization": {"Bearer " + token}}),
//	)
//	err = c.Do(req, client.WithDestination(&result), client.WithValidation())
//
// Form bodies are sent with [WithForm]; JSON bodies with [WithPayload].
//
// # Errors
//
// Any response with a status of 400 or above is returned as an
// [*UnexpectedStatusError] carrying the code and up to 4KB of body.
// 401 and 403 additionally match [ErrAuthFailure]. Decoding and
// validation failures match [ErrInvalidResponse]. Requests issued
// after [Client.Close] fail with [ErrClientClosed].
package client
