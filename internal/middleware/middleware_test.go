package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	userID, _ := c.Get("userID")
	userType, _ := c.Get("userType")
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "user_type": userType})
}

func token(t *testing.T, userID, userType string) string {
	t.Helper()
	tok, err := util.GenerateToken(userID, userID+"@sasm.test", userType, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", Auth(testSecret), whoami)

	expired, err := util.GenerateToken("user-1", "u@sasm.test", "user", testSecret, -time.Minute)
	require.NoError(t, err)
	foreign, err := util.GenerateToken("user-1", "u@sasm.test", "user", "other-secret", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, "user-1", "user"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(testSecret), whoami)

	anonymous := serve(r, "")
	assert.Equal(t, http.StatusOK, anonymous.Code)
	assert.Contains(t, anonymous.Body.String(), `"user_id":null`)

	garbage := serve(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusOK, garbage.Code)
	assert.Contains(t, garbage.Body.String(), `"user_id":null`)

	signedIn := serve(r, "Bearer "+token(t, "user-2", "user"))
	assert.Contains(t, signedIn.Body.String(), `"user_id":"user-2"`)
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/", Auth(testSecret), RequireAdmin(), whoami)

	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+token(t, "user-1", "user")).Code)
	assert.Equal(t, http.StatusOK, serve(r, "Bearer "+token(t, "admin-1", UserTypeAdmin)).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, "").Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// Buckets are per client.
	assert.True(t, rl.Allow("10.0.0.9"))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	for _, path := range []string{"/posts/1", "/posts/2", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/posts/:id",status="200"} 2`), body)
	assert.Contains(t, body, `route="unmatched",status="404"`)
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
}
