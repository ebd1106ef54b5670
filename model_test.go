package users

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoginResponse(t *testing.T) {
	r := LoginResponse{AccessToken: "abc", TokenType: "bearer"}

	t.Run("String", func(t *testing.T) {
		exp := `{"access_token": "abc", "token_type": "bearer"}`
		if got := r.String(); got != exp {
			t.Fatalf("String() = %s, want %s", got, exp)
		}
	})

	t.Run("StringEscapes", func(t *testing.T) {
		exp := `{"access_token": "a\"b", "token_type": ""}`
		if got := (LoginResponse{AccessToken: `a"b`}).String(); got != exp {
			t.Fatalf("String() = %s, want %s", got, exp)
		}
	})

	t.Run("All", func(t *testing.T) {
		var keys, vals []string
		for k, v := range r.All() {
			keys = append(keys, k)
			vals = append(vals, v)
		}

		if diff := cmp.Diff([]string{"access_token", "token_type"}, keys); diff != "" {
			t.Fatalf("unexpected key order; diff %s", diff)
		}
		if diff := cmp.Diff([]string{"abc", "bearer"}, vals); diff != "" {
			t.Fatalf("unexpected values; diff %s", diff)
		}
	})

	t.Run("AllStopsEarly", func(t *testing.T) {
		n := 0
		for range r.All() {
			n++
			break
		}
		if n != 1 {
			t.Fatalf("iterated %d times, want 1", n)
		}
	})

	t.Run("Map", func(t *testing.T) {
		exp := map[string]string{"access_token": "abc", "token_type": "bearer"}
		if diff := cmp.Diff(exp, r.Map()); diff != "" {
			t.Fatalf("unexpected map; diff %s", diff)
		}
	})

	t.Run("Values", func(t *testing.T) {
		vals, err := r.Values()
		if !errors.Is(err, errors.ErrUnsupported) {
			t.Fatalf("expected ErrUnsupported, got %v", err)
		}
		if vals != nil {
			t.Fatalf("expected no values, got %v", vals)
		}
	})

	t.Run("AuthHeader", func(t *testing.T) {
		exp := map[string][]string{"Authorization": {"Bearer abc"}}
		if diff := cmp.Diff(exp, r.AuthHeader()); diff != "" {
			t.Fatalf("unexpected header; diff %s", diff)
		}
	})
}

func TestAuthHeaders(t *testing.T) {
	exp := map[string][]string{"Authorization": {"Bearer "}}
	if diff := cmp.Diff(exp, AuthHeaders("")); diff != "" {
		t.Fatalf("unexpected header; diff %s", diff)
	}
}

func TestParseSnowflake(t *testing.T) {
	testCases := map[string]struct {
		in      string
		exp     Snowflake
		wantErr bool
	}{
		"small":    {in: "42", exp: 42},
		"above53":  {in: "9007199254740993", exp: 9007199254740993},
		"maxInt64": {in: "9223372036854775807", exp: 9223372036854775807},
		"overflow": {in: "9223372036854775808", wantErr: true},
		"notInt":   {in: "4.2", wantErr: true},
		"empty":    {in: "", wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseSnowflake(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.exp || got.String() != tc.in {
				t.Fatalf("ParseSnowflake(%q) = %d (%s)", tc.in, got, got)
			}
		})
	}
}
