package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	claims := StaffClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := StaffClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Role", claims.Role)
		w.WriteHeader(http.StatusOK)
	})
}

func TestStaffJWT_ValidToken(t *testing.T) {
	handler := StaffJWT(testSecret)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Header().Get("X-Role"))
}

func TestStaffJWT_MissingHeader(t *testing.T) {
	handler := StaffJWT(testSecret)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffJWT_WrongSecret(t *testing.T) {
	handler := StaffJWT(testSecret)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "admin"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffJWT_DisabledWithoutSecret(t *testing.T) {
	handler := StaffJWT("")(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIsAdmin(t *testing.T) {
	var sawAdmin bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAdmin = IsAdmin(r.Context())
	})
	handler := StaffJWT(testSecret)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "receptionist"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, sawAdmin)

	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, sawAdmin)
}
