package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/repository"
	"github.com/iliyamo/melody-camp/internal/utils"
)

const secret = "test-secret"

type stubResolver struct {
	roles map[string]model.Role
	err   error
	calls int
}

func (s *stubResolver) ResolveRole(_ context.Context, email string) (model.Role, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	r, ok := s.roles[email]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	return r, nil
}

func bearer(t *testing.T, email string) string {
	t.Helper()
	tok, err := utils.NewTokenService(secret, time.Hour).Issue(utils.IdentityClaim{Email: email})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok.Token
}

func expiredBearer(t *testing.T, email string) string {
	t.Helper()
	past := time.Now().Add(-2 * time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"iat":   past.Unix(),
		"exp":   past.Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + signed
}

// serve registers a single guarded route and performs one request.
func serve(t *testing.T, path, target, auth string, checks ...Check) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET(path, func(c echo.Context) error {
		email, _ := CurrentEmail(c)
		return c.JSON(http.StatusOK, echo.Map{"email": email})
	}, Guard(checks...))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestGuard_Authenticated(t *testing.T) {
	tokens := utils.NewTokenService(secret, time.Hour)
	cases := []struct {
		name    string
		auth    string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "unauthorized"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "unauthorized"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "unauthorized"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, "invalid token"},
		{"expired token", expiredBearer(t, "a@x.com"), http.StatusUnauthorized, "invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, "/me", "/me", tc.auth, Authenticated(tokens))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if got := errorOf(t, rec); got != tc.message {
				t.Errorf("expected %q, got %q", tc.message, got)
			}
		})
	}

	rec := serve(t, "/me", "/me", bearer(t, "A@x.com"), Authenticated(tokens))
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["email"] != "a@x.com" {
		t.Errorf("expected identity a@x.com in context, got %q", body["email"])
	}
}

func TestGuard_SameEmail(t *testing.T) {
	tokens := utils.NewTokenService(secret, time.Hour)

	rec := serve(t, "/users/:email", "/users/a@x.com", bearer(t, "a@x.com"), Authenticated(tokens), SameEmail("email"))
	if rec.Code != http.StatusOK {
		t.Errorf("own email: expected 200, got %d", rec.Code)
	}
	rec = serve(t, "/users/:email", "/users/A@X.com", bearer(t, "a@x.com"), Authenticated(tokens), SameEmail("email"))
	if rec.Code != http.StatusOK {
		t.Errorf("case-insensitive match: expected 200, got %d", rec.Code)
	}
	rec = serve(t, "/users/:email", "/users/b@x.com", bearer(t, "a@x.com"), Authenticated(tokens), SameEmail("email"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("other email: expected 403, got %d", rec.Code)
	}
	// without Authenticated there is no identity to compare
	rec = serve(t, "/users/:email", "/users/a@x.com", "", SameEmail("email"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no identity: expected 401, got %d", rec.Code)
	}
}

func TestGuard_HasRole(t *testing.T) {
	tokens := utils.NewTokenService(secret, time.Hour)
	res := &stubResolver{roles: map[string]model.Role{
		"boss@x.com": model.RoleAdmin,
		"s@x.com":    model.RoleStudent,
	}}

	rec := serve(t, "/admin", "/admin", bearer(t, "boss@x.com"), Authenticated(tokens), HasRole(res, model.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", rec.Code)
	}
	rec = serve(t, "/admin", "/admin", bearer(t, "s@x.com"), Authenticated(tokens), HasRole(res, model.RoleAdmin))
	if rec.Code != http.StatusForbidden {
		t.Errorf("student: expected 403, got %d", rec.Code)
	}
	rec = serve(t, "/admin", "/admin", bearer(t, "ghost@x.com"), Authenticated(tokens), HasRole(res, model.RoleAdmin))
	if rec.Code != http.StatusForbidden {
		t.Errorf("unknown user: expected 403, got %d", rec.Code)
	}
}

func TestGuard_StopsBeforeRoleLookup(t *testing.T) {
	tokens := utils.NewTokenService(secret, time.Hour)
	res := &stubResolver{roles: map[string]model.Role{"boss@x.com": model.RoleAdmin}}

	rec := serve(t, "/admin", "/admin", expiredBearer(t, "boss@x.com"), Authenticated(tokens), HasRole(res, model.RoleAdmin))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := errorOf(t, rec); got != "invalid token" {
		t.Errorf("expected invalid token, got %q", got)
	}
	if res.calls != 0 {
		t.Errorf("role resolver called %d times after a rejected token", res.calls)
	}
}

func TestGuard_ResolverFailureHidesDetail(t *testing.T) {
	tokens := utils.NewTokenService(secret, time.Hour)
	res := &stubResolver{err: errors.New("connection reset by mongo-7")}

	rec := serve(t, "/admin", "/admin", bearer(t, "boss@x.com"), Authenticated(tokens), HasRole(res, model.RoleAdmin))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := errorOf(t, rec); got != "internal server error" {
		t.Errorf("store detail leaked: %q", got)
	}
}
