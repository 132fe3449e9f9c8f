package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/debjit15/angrybolly/internal/domain"
	apperrors "github.com/debjit15/angrybolly/pkg/errors"
)

func setupStatsRouter(stats *mockStatsRepository, limiter *mockRateLimitRepository) *chi.Mux {
	logs := new(mockReviewLogRepository)
	reviewHandler := NewReviewHandler(testReviewService(logs, stats), testLogger())
	statsHandler := NewStatsHandler(testStatsService(stats, limiter), testLogger())
	return setupRouter(reviewHandler, statsHandler)
}

func signedToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func statsSnapshot() *domain.StatsSnapshot {
	return &domain.StatsSnapshot{
		Downloads:   1200,
		Rating:      4.5,
		Reviews:     12,
		LastUpdated: time.Now().UTC(),
		Version:     3,
	}
}

// ============================================================================
// GET /api/v1/stats
// ============================================================================

func TestGetStats_Success(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	stats.On("Load", mock.Anything).Return(statsSnapshot(), nil)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeResponse(t, rec))
	assert.Equal(t, float64(1200), data["downloads"])
	assert.Equal(t, 4.5, data["rating"])
	assert.Equal(t, float64(12), data["reviews"])
	assert.NotEmpty(t, data["lastUpdated"])
}

func TestGetStats_NotFound(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	stats.On("Load", mock.Anything).Return(nil, apperrors.NotFound("stats"))

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// PUT /api/v1/stats (admin)
// ============================================================================

func putStatsRequest(body string, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stats", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSetStats_RequiresToken(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	rec := doRequest(router, putStatsRequest(`{"downloads":5000,"rating":4.5,"reviews":90}`, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	stats.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetStats_RejectsBadSignature(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	token := signedToken(t, "wrong-secret", "admin")
	rec := doRequest(router, putStatsRequest(`{"downloads":5000,"rating":4.5,"reviews":90}`, token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetStats_RejectsNonAdminRole(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	token := signedToken(t, testJWTSecret, "support")
	rec := doRequest(router, putStatsRequest(`{"downloads":5000,"rating":4.5,"reviews":90}`, token))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSetStats_Success(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	stats.On("Load", mock.Anything).Return(statsSnapshot(), nil)
	stats.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.StatsSnapshot"), 3).Return(true, nil)

	token := signedToken(t, testJWTSecret, "admin")
	rec := doRequest(router, putStatsRequest(`{"downloads":5000,"rating":4.5,"reviews":90}`, token))

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeResponse(t, rec))
	assert.Equal(t, float64(5000), data["downloads"])
	assert.Equal(t, 4.5, data["rating"])
	assert.Equal(t, float64(90), data["reviews"])
	stats.AssertExpectations(t)
}

func TestSetStats_ValidationError(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	token := signedToken(t, testJWTSecret, "admin")
	rec := doRequest(router, putStatsRequest(`{"downloads":100,"rating":5.5,"reviews":3}`, token))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Rating")
}

// ============================================================================
// POST /api/v1/stats/downloads
// ============================================================================

func TestTrackDownload_Counts(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	limiter.On("LastAction", mock.Anything, "downloads", mock.AnythingOfType("string")).
		Return(time.Time{}, false, nil)
	limiter.On("RecordAction", mock.Anything, "downloads", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(nil)
	stats.On("Load", mock.Anything).Return(statsSnapshot(), nil)
	stats.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.StatsSnapshot"), 3).Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/downloads", nil)
	rec := doRequest(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeResponse(t, rec))
	assert.Equal(t, float64(1201), data["downloads"])
}

func TestTrackDownload_WithinCooldown(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	limiter.On("LastAction", mock.Anything, "downloads", mock.AnythingOfType("string")).
		Return(time.Now().UTC().Add(-time.Minute), true, nil)
	stats.On("Load", mock.Anything).Return(statsSnapshot(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/downloads", nil)
	rec := doRequest(router, req)

	// Still a 200 with the current snapshot; the counter is untouched.
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeResponse(t, rec))
	assert.Equal(t, float64(1200), data["downloads"])
	stats.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackDownload_MissingSnapshot(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	router := setupStatsRouter(stats, limiter)

	limiter.On("LastAction", mock.Anything, "downloads", mock.AnythingOfType("string")).
		Return(time.Time{}, false, nil)
	limiter.On("RecordAction", mock.Anything, "downloads", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(nil)
	stats.On("Load", mock.Anything).Return(nil, apperrors.NotFound("stats"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/downloads", nil)
	rec := doRequest(router, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
