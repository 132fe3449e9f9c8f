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

const authTestSecret = "auth-test-secret"

func adminToken(t *testing.T, secret, role string, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin-1",
		"role": role,
		"exp":  time.Now().Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stats", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serveAuth(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	handler := AdminAuth(authTestSecret, testLogger())(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth_ValidToken(t *testing.T) {
	rec := serveAuth(t, authRequest(adminToken(t, authTestSecret, "admin", time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuth_MissingHeader(t *testing.T) {
	rec := serveAuth(t, authRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAdminAuth_MalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Token abc123")

	rec := serveAuth(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth_WrongSecret(t *testing.T) {
	rec := serveAuth(t, authRequest(adminToken(t, "other-secret", "admin", time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	rec := serveAuth(t, authRequest(adminToken(t, authTestSecret, "admin", -time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth_NonAdminRole(t *testing.T) {
	rec := serveAuth(t, authRequest(adminToken(t, authTestSecret, "support", time.Hour)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestAdminAuth_MissingRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(authTestSecret))
	require.NoError(t, err)

	rec := serveAuth(t, authRequest(signed))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
