package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		apiKey     string
		header     string
		wantStatus int
		wantError  string // substring of WWW-Authenticate, empty when no challenge
	}{
		{"disabled without key", "", "", http.StatusOK, ""},
		{"disabled ignores header", "", "Bearer whatever", http.StatusOK, ""},
		{"missing header", "secret", "", http.StatusUnauthorized, `realm="findai"`},
		{"wrong token", "secret", "Bearer wrong-token", http.StatusUnauthorized, "invalid_token"},
		{"correct token", "secret", "Bearer secret", http.StatusOK, ""},
		{"lowercase scheme", "secret", "bearer secret", http.StatusOK, ""},
		{"basic scheme", "secret", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, `realm="findai"`},
		{"token prefix", "secret", "Bearer secre", http.StatusUnauthorized, "invalid_token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			authMiddleware(tc.apiKey, okHandler).ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			challenge := w.Header().Get("WWW-Authenticate")
			if tc.wantError == "" && challenge != "" {
				t.Errorf("unexpected challenge %q", challenge)
			}
			if tc.wantError != "" && !strings.Contains(challenge, tc.wantError) {
				t.Errorf("WWW-Authenticate = %q, want it to contain %q", challenge, tc.wantError)
			}
		})
	}
}

func TestAuthMiddleware_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	authMiddleware("secret", okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"kind":"unauthorized"`) {
		t.Errorf("body = %s", body)
	}
	if strings.Contains(body, "secret") {
		t.Errorf("body leaks the configured key: %s", body)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Bearer mytoken":     "mytoken",
		"BEARER mytoken":     "mytoken",
		"Bearer  spaced ":    "spaced",
		"Basic dXNlcjpwYXNz": "",
		"":                   "",
		"Bearer":             "",
		"token only":         "",
	}

	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := bearerToken(req); got != want {
			t.Errorf("header=%q: expected %q, got %q", header, want, got)
		}
	}
}
