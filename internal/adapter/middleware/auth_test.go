package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/logger"
	"fanders-backend/internal/usecase/auth"
)

type parser map[string]user.Actor

func (p parser) Parse(token string) (*auth.Claims, error) {
	a, ok := p[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{UserID: a.ID, Username: a.Username, Role: a.Role}, nil
}

func authEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/api/me", func(c echo.Context) error {
		a, _ := Actor(c)
		return c.JSON(http.StatusOK, a)
	}, mw...)
	return e
}

func get(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	p := parser{"good": {ID: 3, Username: "mgr", Role: user.RoleManager}}
	e := authEcho(JWTAuth(p))

	cases := []struct {
		authz string
		code  int
	}{
		{"", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer expired", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		rec := get(e, tc.authz)
		if rec.Code != tc.code {
			t.Fatalf("%q: want %d, got %d", tc.authz, tc.code, rec.Code)
		}
		if tc.code == http.StatusOK && !strings.Contains(rec.Body.String(), `"Username":"mgr"`) {
			t.Fatalf("actor not on context: %s", rec.Body.String())
		}
	}
}

func TestRequireRoles(t *testing.T) {
	p := parser{
		"mgr":  {ID: 3, Role: user.RoleManager},
		"cash": {ID: 4, Role: user.RoleCashier},
	}
	e := authEcho(JWTAuth(p), RequireRoles(user.Managers()...))

	if rec := get(e, "Bearer mgr"); rec.Code != http.StatusOK {
		t.Fatalf("manager: %d", rec.Code)
	}
	if rec := get(e, "Bearer cash"); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier: %d", rec.Code)
	}

	bare := authEcho(RequireRoles(user.RoleManager))
	if rec := get(bare, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no actor: %d", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logger.NewWithOutput(&buf, "info", "json")))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/missing", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })

	for _, path := range []string{"/ok", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}
	out := buf.String()
	if !strings.Contains(out, `"uri":"/ok"`) || !strings.Contains(out, `"status":200`) {
		t.Fatalf("missing access line: %s", out)
	}
	if !strings.Contains(out, `"uri":"/missing"`) {
		t.Fatalf("missing error line: %s", out)
	}
}
