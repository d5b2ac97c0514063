package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(r); got != tc.want {
			t.Fatalf("bearerToken(%q)=%q want=%q", tc.header, got, tc.want)
		}
	}
}

func TestAccessTokenFromRequest_PrefersCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: accessCookieName, Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")

	if got := accessTokenFromRequest(r); got != "from-cookie" {
		t.Fatalf("got %q, want cookie value", got)
	}
}

func TestClearAuthCookies(t *testing.T) {
	h := &Handler{cfg: LoadConfigFromEnv()}

	rec := httptest.NewRecorder()
	h.clearAuthCookies(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if c.Value != "" || c.MaxAge != -1 {
			t.Fatalf("cookie %s not expired: value=%q max-age=%d", c.Name, c.Value, c.MaxAge)
		}
		if !c.HttpOnly {
			t.Fatalf("cookie %s must be http-only", c.Name)
		}
	}
}
