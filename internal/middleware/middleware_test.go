package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/pkg/jwt"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":    c.GetString(ContextUserIDKey),
			"session": GuestSessionID(c),
			"request": c.GetString(ContextRequestIDKey),
		})
	})
	return r
}

func TestGuestSessionIssuesCookie(t *testing.T) {
	r := newEngine(GuestSession(time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, GuestCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	_, err := uuid.Parse(cookies[0].Value)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Empty(t, w.Result().Cookies())
	require.Contains(t, w.Body.String(), cookies[0].Value)
}

func TestGuestSessionHeaderWins(t *testing.T) {
	r := newEngine(GuestSession(time.Hour))
	sid := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(GuestSessionHeader, sid)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), sid)
	require.Empty(t, w.Result().Cookies())

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(GuestSessionHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NotContains(t, w.Body.String(), "not-a-uuid")
	require.Len(t, w.Result().Cookies(), 1)
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("secret")
	r := newEngine(JWTAuth(secret))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Contains(t, w.Body.String(), "missing authorization")

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), "invalid token")

	token, err := jwt.GenerateToken("u1", "u1@example.com", secret, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), `"user":"u1"`)
}

func TestRequestIDAndCORS(t *testing.T) {
	r := newEngine(CORS([]string{"https://app.example.com"}), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	require.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodOptions, "/probe", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}
