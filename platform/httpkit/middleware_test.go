package httpkit

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lead_quality_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type jwtConfig string

func (c jwtConfig) GetJWTAccessSecret() string { return string(c) }

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/me", AuthRequired(jwtConfig(testSecret)), func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"subject": id.Subject(), "admin": id.HasRole("admin")})
	})
	engine.GET("/admin", AuthRequired(jwtConfig(testSecret)), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func get(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	engine := newAuthEngine()
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"valid", signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "type": "access", "exp": exp}), http.StatusOK},
		{"wrong secret", signToken(t, "other", jwt.MapClaims{"sub": "user-1", "type": "access", "exp": exp}), http.StatusUnauthorized},
		{"refresh token", signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "type": "refresh", "exp": exp}), http.StatusUnauthorized},
		{"no subject", signToken(t, testSecret, jwt.MapClaims{"type": "access", "exp": exp}), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(engine, "/me", tc.token)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	engine := newAuthEngine()
	exp := time.Now().Add(time.Hour).Unix()

	user := signToken(t, testSecret, jwt.MapClaims{"sub": "u", "type": "access", "exp": exp, "roles": []string{"user"}})
	if rec := get(engine, "/admin", user); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	admin := signToken(t, testSecret, jwt.MapClaims{"sub": "u", "type": "access", "exp": exp, "roles": []string{"admin"}})
	if rec := get(engine, "/admin", admin); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	engine := newAuthEngine()

	rec := get(engine, "/me", "")
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("expected propagated id abc-123, got %q", got)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound("lead not found").With("leadId", "x"), http.StatusNotFound},
		{"invalid state", apperr.InvalidState("group is not active"), http.StatusConflict},
		{"wrapped validation", fmt.Errorf("create: %w", apperr.Validation("bad")), http.StatusBadRequest},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			if !HandleError(c, tc.err) {
				t.Fatalf("expected error to be handled")
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
