package client_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/users/client"
	"github.com/adamwoolhether/users/internal/validate"
	"github.com/google/go-cmp/cmp"
)

type test struct {
	*client.Client

	server    *httptest.Server
	serverURL *url.URL
	teardown  func()
}

type payload struct {
	Body string `json:"body"`
}

type account struct {
	ID       *int    `json:"id" validate:"required"`
	Username *string `json:"username" validate:"required"`
}

func TestClient_WithUserAgent(t *testing.T) {
	expectedUA := "TestUserAgent/1.0"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	client, err := client.Build(client.WithUserAgent(expectedUA))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := client.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if err := client.Do(req); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestClient_WithTransport(t *testing.T) {
	var called bool
	custom := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return http.DefaultTransport.RoundTrip(r)
	})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	client, err := client.Build(client.WithTransport(custom), client.WithUserAgent("ua/1.0"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := client.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if err := client.Do(req); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !called {
		t.Error("custom transport was not called")
	}
}

func TestClient_OptionValidation(t *testing.T) {
	testCases := map[string]client.Option{
		"nilTransport":    client.WithTransport(nil),
		"nilClient":       client.WithClient(nil),
		"negativeTimeout": client.WithTimeout(-1),
	}

	for name, opt := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := client.Build(opt); err == nil {
				t.Fatal("expected error building client")
			}
		})
	}

	// Zero means no timeout per stdlib.
	if _, err := client.Build(client.WithTimeout(0)); err != nil {
		t.Fatalf("expected no error for zero timeout, got: %v", err)
	}
}

func TestClient_WithClientIsCopied(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	client, err := client.Build(
		client.WithClient(custom),
		client.WithTimeout(5*time.Second),
		client.WithNoFollowRedirects(),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := client.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if err := client.Do(req); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}

	if custom.Timeout != 42*time.Second {
		t.Errorf("expected provided client timeout preserved as 42s, got %v", custom.Timeout)
	}
	if custom.Transport != nil || custom.CheckRedirect != nil {
		t.Error("provided client was mutated")
	}
}

func TestClient_WithNoFollowRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, "/target", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL + "/redirect")
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	c, err := client.Build(client.WithNoFollowRedirects())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// With no-follow, we should get the redirect status, not follow it.
	if err := c.Do(req, client.WithExpectedStatus(http.StatusFound)); err != nil {
		t.Errorf("expected 302 response without following, got: %v", err)
	}
}

func TestClient_Do(t *testing.T) {
	test := mockServer(t)
	defer test.teardown()

	testClient := test.Client

	testCases := map[string]struct {
		path        string
		method      string
		expStatus   int
		payload     *payload
		captureResp *payload
		captureRaw  *map[string]any
		useJSONNumb bool
		checkResp   func(t *testing.T, raw map[string]any)
		err         error
	}{
		"basicGet": {
			method: http.MethodGet,
		},
		"basicExp202NotOK": {
			method:    http.MethodGet,
			expStatus: http.StatusAccepted,
			err:       client.ErrUnexpectedStatusCode,
		},
		"basicExp202OK": {
			path:      "/expstatus",
			method:    http.MethodGet,
			expStatus: http.StatusAccepted,
		},
		"anySuccessAccepted": {
			path:   "/expstatus",
			method: http.MethodGet,
		},
		"notFound": {
			path:   "/missing",
			method: http.MethodGet,
			err:    client.ErrUnexpectedStatusCode,
		},
		"unauthorized": {
			path:   "/private",
			method: http.MethodGet,
			err:    client.ErrAuthFailure,
		},
		"getCaptureResp": {
			method:      http.MethodGet,
			captureResp: new(payload),
		},
		"postCaptureResp": {
			path:        "/echo",
			method:      http.MethodPost,
			payload:     &payload{Body: "hey there"},
			captureResp: new(payload),
		},
		"withJSONNumb": {
			path:        "/number",
			method:      http.MethodGet,
			captureRaw:  &map[string]any{},
			useJSONNumb: true,
			checkResp: func(t *testing.T, raw map[string]any) {
				t.Helper()
				n, ok := raw["id"].(json.Number)
				if !ok {
					t.Fatalf("expected json.Number, got %T", raw["id"])
				}
				if n.String() != "12345678901234567" {
					t.Errorf("expected 12345678901234567, got %s", n.String())
				}
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var reqOpts []client.RequestOption
			if tc.payload != nil {
				reqOpts = append(reqOpts, client.WithPayload(*tc.payload))
			}

			var opts []client.DoOption
			if tc.expStatus != 0 {
				opts = append(opts, client.WithExpectedStatus(tc.expStatus))
			}
			if tc.captureResp != nil {
				opts = append(opts, client.WithDestination(tc.captureResp))
			}
			if tc.captureRaw != nil {
				opts = append(opts, client.WithDestination(tc.captureRaw))
			}
			if tc.useJSONNumb {
				opts = append(opts, client.WithJSONNumb())
			}

			reqURL := *test.serverURL
			reqURL.Path = tc.path

			req, err := testClient.Request(t.Context(), &reqURL, tc.method, reqOpts...)
			if err != nil {
				t.Fatalf("generating req: %v", err)
			}

			err = testClient.Do(req, opts...)
			if !errors.Is(err, tc.err) {
				t.Errorf("exp err: %v, got: %v", tc.err, err)
			}

			if tc.captureResp != nil && tc.payload != nil {
				if diff := cmp.Diff(tc.payload, tc.captureResp); diff != "" {
					t.Errorf("expected identical body from echo server; diff %s", diff)
				}
			}

			if tc.checkResp != nil && tc.captureRaw != nil {
				tc.checkResp(t, *tc.captureRaw)
			}
		})
	}
}

func TestClient_Do_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Unauthorized"}`))
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}

	c, err := client.Build()
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	var dest payload
	err = c.Do(req, client.WithDestination(&dest))

	statusErr, ok := errors.AsType[*client.UnexpectedStatusError](err)
	if !ok {
		t.Fatalf("expected *UnexpectedStatusError, got: %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("exp status %d, got %d", http.StatusUnauthorized, statusErr.StatusCode)
	}
	if statusErr.Body != `{"detail":"Unauthorized"}` {
		t.Errorf("unexpected body %q", statusErr.Body)
	}
	if !errors.Is(err, client.ErrAuthFailure) || !errors.Is(err, client.ErrUnexpectedStatusCode) {
		t.Errorf("expected auth failure and unexpected status sentinels, got: %v", err)
	}
	if dest != (payload{}) {
		t.Errorf("destination must stay untouched on failure, got %+v", dest)
	}
}

func TestClient_Do_ErrorBodyCapped(t *testing.T) {
	largeBody := bytes.Repeat([]byte("Y"), 8192)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(largeBody)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}

	c, err := client.Build()
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	statusErr, ok := errors.AsType[*client.UnexpectedStatusError](c.Do(req))
	if !ok {
		t.Fatal("expected *UnexpectedStatusError")
	}

	const maxErrBodySize = 4 << 10
	if len(statusErr.Body) != maxErrBodySize {
		t.Errorf("error body not capped: got %d bytes, want %d", len(statusErr.Body), maxErrBodySize)
	}
}

func TestClient_Do_Validation(t *testing.T) {
	testCases := map[string]struct {
		body       string
		strict     bool
		err        error
		missingFld string
	}{
		"complete": {
			body: `{"id":1,"username":"alice"}`,
		},
		"zeroValuesPresent": {
			body: `{"id":0,"username":""}`,
		},
		"missingField": {
			body:       `{"id":1}`,
			err:        client.ErrInvalidResponse,
			missingFld: "username",
		},
		"unknownFieldIgnored": {
			body: `{"id":1,"username":"alice","extra":true}`,
		},
		"unknownFieldRejected": {
			body:   `{"id":1,"username":"alice","extra":true}`,
			strict: true,
			err:    client.ErrInvalidResponse,
		},
		"malformed": {
			body: `{"id":`,
			err:  client.ErrInvalidResponse,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			}))
			defer ts.Close()

			c, err := client.Build()
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}

			testURL, _ := url.Parse(ts.URL)
			req, err := c.Request(t.Context(), testURL, http.MethodGet)
			if err != nil {
				t.Fatalf("creating request: %v", err)
			}

			opts := []client.DoOption{client.WithValidation()}
			if tc.strict {
				opts = append(opts, client.WithDisallowUnknownFields())
			}

			var dest account
			err = c.Do(req, append(opts, client.WithDestination(&dest))...)
			if !errors.Is(err, tc.err) {
				t.Fatalf("exp err: %v, got: %v", tc.err, err)
			}

			if tc.missingFld != "" {
				fields := validate.GetFieldErrors(err).Fields()
				if _, ok := fields[tc.missingFld]; !ok {
					t.Errorf("expected field error for %q, got %v", tc.missingFld, fields)
				}
			}
		})
	}
}

func TestClient_Do_WithStatus(t *testing.T) {
	testCases := map[string]struct {
		code    int
		body    string
		wantErr bool
	}{
		"created":   {code: http.StatusCreated, body: `{"id":1,"username":"alice"}`},
		"notFound":  {code: http.StatusNotFound, body: `{"detail":"Not Found"}`, wantErr: true},
		"badSchema": {code: http.StatusOK, body: `{"id":1}`, wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer ts.Close()

			c, err := client.Build()
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}

			testURL, _ := url.Parse(ts.URL)
			req, err := c.Request(t.Context(), testURL, http.MethodGet)
			if err != nil {
				t.Fatalf("creating request: %v", err)
			}

			var (
				dest   account
				status int
			)
			err = c.Do(req, client.WithValidation(), client.WithDestination(&dest), client.WithStatus(&status))
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr %v, got %v", tc.wantErr, err)
			}
			if status != tc.code {
				t.Fatalf("status = %d, want %d", status, tc.code)
			}
		})
	}

	if err := client.WithStatus(nil)(nil); err == nil {
		t.Fatal("expected error for nil status destination")
	}
}

func TestClient_Close(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithUserAgent("closer/1.0"))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	testURL, _ := url.Parse(ts.URL)
	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if err := c.Do(req); err != nil {
		t.Fatalf("expected no error before close, got: %v", err)
	}

	if c.IsClosed() {
		t.Fatal("client reported closed before Close")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !c.IsClosed() {
		t.Fatal("client not reported closed after Close")
	}

	req, _ = c.Request(t.Context(), testURL, http.MethodGet)
	if err := c.Do(req); !errors.Is(err, client.ErrClientClosed) {
		t.Fatalf("exp ErrClientClosed, got: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("exp 1 request to reach the server, got %d", got)
	}
}

func TestClient_CloseIsolated(t *testing.T) {
	a, err := client.Build()
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	b, err := client.Build()
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	_ = a.Close()
	if b.IsClosed() {
		t.Fatal("closing one client closed another")
	}
}

func TestClient_Request(t *testing.T) {
	testCases := map[string]struct {
		method      string
		payload     *payload
		form        url.Values
		contentType string
		expCT       string
		headers     map[string][]string
		cookies     []*http.Cookie
	}{
		"basic": {
			method: http.MethodGet,
			expCT:  "application/json",
		},
		"withPayload": {
			method:  http.MethodPost,
			payload: &payload{Body: "hey there"},
			expCT:   "application/json",
		},
		"withForm": {
			method: http.MethodPost,
			form:   url.Values{"username": {"u"}, "password": {"p"}},
			expCT:  "application/x-www-form-urlencoded",
		},
		"withCustomContentType": {
			method:      http.MethodGet,
			contentType: "text/html",
			expCT:       "text/html",
		},
		"withHeaders": {
			method: http.MethodPost,
			expCT:  "application/json",
			headers: map[string][]string{
				"Authorization": {"Bearer T"},
				"Multi-Val":     {"value", "value2"},
			},
		},
		"withCookies": {
			method: http.MethodGet,
			expCT:  "application/json",
			cookies: []*http.Cookie{
				{Name: "session", Value: "abc123"},
				{Name: "theme", Value: "dark"},
			},
		},
	}

	reqURL := client.URL("https", "localhost", "/", client.WithPort(8888))

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var opts []client.RequestOption
			if tc.payload != nil {
				opts = append(opts, client.WithPayload(*tc.payload))
			}
			if tc.form != nil {
				opts = append(opts, client.WithForm(tc.form))
			}
			if len(tc.contentType) > 0 {
				opts = append(opts, client.WithContentType(tc.contentType))
			}
			if tc.headers != nil {
				opts = append(opts, client.WithHeaders(tc.headers))
			}
			if tc.cookies != nil {
				opts = append(opts, client.WithCookies(tc.cookies...))
			}

			req, err := client.Request(t.Context(), reqURL, tc.method, opts...)
			if err != nil {
				t.Fatalf("create request exp nil err; got: %v", err)
			}

			if tc.payload != nil {
				var reqBody payload
				if err := json.NewDecoder(req.Body).Decode(&reqBody); err != nil {
					t.Fatalf("reading req body: %v", err)
				}
				if diff := cmp.Diff(*tc.payload, reqBody); diff != "" {
					t.Errorf("unexpected req body; diff %s", diff)
				}
			}

			if tc.form != nil {
				if err := req.ParseForm(); err != nil {
					t.Fatalf("parsing form: %v", err)
				}
				if diff := cmp.Diff(tc.form, req.PostForm); diff != "" {
					t.Errorf("unexpected form; diff %s", diff)
				}
			}

			if got := req.Header.Get("Content-Type"); got != tc.expCT {
				t.Errorf("exp content type[%s], got: %v", tc.expCT, got)
			}

			for k, v := range tc.headers {
				if diff := cmp.Diff(v, req.Header[k]); diff != "" {
					t.Errorf("header[%s] mismatch; diff %s", k, diff)
				}
			}

			if tc.cookies != nil {
				got := req.Cookies()
				if len(got) != len(tc.cookies) {
					t.Fatalf("exp %d cookies, got %d", len(tc.cookies), len(got))
				}
				for i, exp := range tc.cookies {
					if got[i].Name != exp.Name || got[i].Value != exp.Value {
						t.Errorf("cookie[%d]: exp %s=%s, got %s=%s", i, exp.Name, exp.Value, got[i].Name, got[i].Value)
					}
				}
			}
		})
	}
}

func TestClient_RequestPayloadAndForm(t *testing.T) {
	_, err := client.Request(t.Context(), client.URL("http", "localhost", "/"), http.MethodPost,
		client.WithPayload(payload{Body: "x"}),
		client.WithForm(url.Values{"a": {"b"}}),
	)
	if err == nil {
		t.Fatal("expected error combining payload and form")
	}
}

func TestClient_URL(t *testing.T) {
	testCases := map[string]struct {
		scheme string
		host   string
		port   int
		path   string
		qs     map[string]string
		exp    string
	}{
		"basic": {
			scheme: "https",
			host:   "localhost",
			port:   8888,
			path:   "/",
			exp:    "https://localhost:8888/",
		},
		"withQS": {
			scheme: "https",
			host:   "localhost",
			port:   8888,
			path:   "/somepath",
			qs:     map[string]string{"key": "value"},
			exp:    "https://localhost:8888/somepath?key=value",
		},
		"noPort": {
			scheme: "http",
			host:   "auth.example.com",
			path:   "/users/me",
			exp:    "http://auth.example.com/users/me",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var opts []client.URLOption
			if tc.qs != nil {
				opts = append(opts, client.WithQueryStrings(tc.qs))
			}
			if tc.port != 0 {
				opts = append(opts, client.WithPort(tc.port))
			}

			url := client.URL(tc.scheme, tc.host, tc.path, opts...)

			if url.String() != tc.exp {
				t.Errorf("exp generated url:, %q, got: %q", tc.exp, url.String())
			}
		})
	}
}

const successRespBody = "success"

func mockServer(t *testing.T) *test {
	t.Helper()

	testClient, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create testClient: %v", err)
	}

	rootHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		data, err := json.Marshal(payload{Body: successRespBody})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}

	expAcceptedHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}

	privateHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}

	echoHandler := func(w http.ResponseWriter, r *http.Request) {
		var decoded payload
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data, err := json.Marshal(decoded)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}

	numberHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":12345678901234567}`))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", rootHandler)
	mux.HandleFunc("/expstatus", expAcceptedHandler)
	mux.HandleFunc("/private", privateHandler)
	mux.HandleFunc("/echo", echoHandler)
	mux.HandleFunc("/number", numberHandler)
	server := httptest.NewServer(mux)

	testURL, err := url.ParseRequestURI(server.URL)
	if err != nil {
		t.Fatal("parsing test server URL")
	}

	ts := test{
		Client:    testClient,
		server:    server,
		serverURL: testURL,
		teardown: func() {
			_ = testClient.Close()
			server.Close()
		},
	}

	return &ts
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
