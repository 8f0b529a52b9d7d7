package authapi

import (
	"net/http"
	"testing"
)

func TestSessionCookieAttributes(t *testing.T) {
	mux := newTestMux(t, nil)
	registerAlice(t, mux)

	rec := do(t, mux, call{method: http.MethodPost, path: "/api/v1/users/login", body: loginRequest{
		Username: "alice", Password: "pw123",
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}

	for _, name := range []string{"accessToken", "refreshToken"} {
		c, ok := byName[name]
		if !ok {
			t.Fatalf("missing %s cookie", name)
		}
		if !c.HttpOnly {
			t.Errorf("%s cookie must be http-only", name)
		}
		if !c.Secure {
			t.Errorf("%s cookie must be secure", name)
		}
		if c.Value == "" {
			t.Errorf("%s cookie must carry the token", name)
		}
		if c.Expires.IsZero() {
			t.Errorf("%s cookie must expire with its token", name)
		}
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	mux := newTestMux(t, nil)
	registerAlice(t, mux)
	access, _ := loginAlice(t, mux)

	rec := do(t, mux, call{method: http.MethodPost, path: "/api/v1/users/logout", bearer: access})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 && c.Value == "" {
			cleared[c.Name] = true
		}
	}
	if !cleared["accessToken"] || !cleared["refreshToken"] {
		t.Fatalf("logout must expire both cookies, got %v", cleared)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer   spaced  ", "spaced"},
	}
	for _, tc := range cases {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(r); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
