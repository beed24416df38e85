package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serve(mw func(http.Handler) http.Handler, token string, next http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	if next == nil {
		next = func(w http.ResponseWriter, r *http.Request) {}
	}
	mw(next).ServeHTTP(rec, req)
	return rec
}

func TestAdminJWTMissingSecret(t *testing.T) {
	rec := serve(AdminJWT(""), "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTMissingHeader(t *testing.T) {
	rec := serve(AdminJWT("secret"), "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTInvalidToken(t *testing.T) {
	rec := serve(AdminJWT("secret"), signedToken(t, "wrong", RoleAdmin), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTRejectsStaffRole(t *testing.T) {
	rec := serve(AdminJWT("secret"), signedToken(t, "secret", RoleStaff), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	called := false
	rec := serve(AdminJWT("secret"), signedToken(t, "secret", RoleAdmin), func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected claims in context")
		}
		if claims.Subject != "admin1" || claims.Role != RoleAdmin {
			t.Fatalf("unexpected claims %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})
	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestStaffJWTAcceptsAnyRole(t *testing.T) {
	rec := serve(StaffJWT("secret"), signedToken(t, "secret", RoleStaff), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "admin1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	rec := serve(AdminJWT("secret"), signed, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	if _, err := IssueToken("", "admin1", RoleAdmin, time.Minute); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func signedToken(t *testing.T, secret, role string) string {
	t.Helper()
	signed, err := IssueToken(secret, "admin1", role, 5*time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
