package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/video-hearings-api/api"
	"github.com/linesmerrill/video-hearings-api/databases"
	"github.com/linesmerrill/video-hearings-api/databases/mocks"
	"github.com/linesmerrill/video-hearings-api/models"
)

func setupAuth(t *testing.T) api.MiddlewareDB {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	db := &mocks.UserDatabase{}
	db.On("FindByUsername", mock.Anything, "judge@court.net").Return(&models.User{
		ID: "u-1",
		Details: models.UserDetails{
			Username: "judge@court.net",
			Password: string(hash),
			Roles:    []string{"Judge"},
		},
	}, nil)
	db.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, databases.ErrUserNotFound)

	m := api.NewMiddlewareDB(db, "test-secret", time.Hour)
	m.SetupGoGuardian()
	return m
}

func issueToken(t *testing.T, m api.MiddlewareDB) models.TokenResponse {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	req.SetBasicAuth("judge@court.net", "hunter2")
	rr := httptest.NewRecorder()
	m.CreateToken(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var tok models.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))
	return tok
}

// echoCaller writes back the caller the middleware resolved
var echoCaller = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.CallerFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(caller)
})

func TestMiddleware_TokenRoundTrip(t *testing.T) {
	m := setupAuth(t)
	tok := issueToken(t, m)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, "u-1", tok.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hearings/c/call-state", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rr := httptest.NewRecorder()
	api.Middleware(echoCaller).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var caller models.Caller
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &caller))
	assert.Equal(t, models.Caller{Username: "judge@court.net", Roles: []string{"Judge"}}, caller)
}

func TestMiddleware_AccessTokenQuery(t *testing.T) {
	m := setupAuth(t)
	tok := issueToken(t, m)

	req := httptest.NewRequest(http.MethodGet, "/ws/events?access_token="+tok.Token, nil)
	rr := httptest.NewRecorder()
	api.Middleware(echoCaller).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddleware_Basic(t *testing.T) {
	setupAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("judge@court.net", "wrong")
	rr := httptest.NewRecorder()
	api.Middleware(echoCaller).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("judge@court.net", "hunter2")
	rr = httptest.NewRecorder()
	api.Middleware(echoCaller).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddleware_RejectsForgedToken(t *testing.T) {
	setupAuth(t)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "judge@court.net",
		"iss":   "video-hearings-api",
		"roles": []string{"VhOfficer"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("someone-elses-secret"))
	require.NoError(t, err)

	for _, token := range []string{"not.a.jwt", forged} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		api.Middleware(echoCaller).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
}

func TestCreateToken_RequiresBasic(t *testing.T) {
	m := setupAuth(t)
	rr := httptest.NewRecorder()
	m.CreateToken(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	req.SetBasicAuth("nobody@court.net", "x")
	rr = httptest.NewRecorder()
	m.CreateToken(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRevokeToken(t *testing.T) {
	m := setupAuth(t)
	tok := issueToken(t, m)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rr := httptest.NewRecorder()
	m.RevokeToken(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rr = httptest.NewRecorder()
	api.Middleware(echoCaller).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	m := setupAuth(t)
	tok := issueToken(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/summary", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rr := httptest.NewRecorder()
	api.Middleware(api.RequireRole(models.RoleVhOfficer)(echoCaller)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	api.Middleware(api.RequireRole("Judge")(echoCaller)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rr := httptest.NewRecorder()
	api.TimeoutMiddleware(20*time.Millisecond)(slow).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request timeout")
}

func TestMetricsMiddleware_SetsRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	api.MetricsMiddleware(echoCaller).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/hearings/x/call-state", nil))
	assert.NotEmpty(t, rr.Header().Get(api.RequestIDHeader))

	rr = httptest.NewRecorder()
	api.MetricsMiddleware(echoCaller).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rr.Header().Get(api.RequestIDHeader))
}
