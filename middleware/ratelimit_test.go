package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedRouter(n int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", RateLimit(n), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func hit(r http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitBurstThenReject(t *testing.T) {
	r := rateLimitedRouter(3)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(r, "203.0.113.9:40000"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "203.0.113.9:40000"))
}

func TestRateLimitPerIP(t *testing.T) {
	r := rateLimitedRouter(2)

	require.Equal(t, http.StatusOK, hit(r, "203.0.113.10:40000"))
	require.Equal(t, http.StatusOK, hit(r, "203.0.113.10:40000"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "203.0.113.10:40000"))

	// 另一个来源 IP 有自己独立的配额
	assert.Equal(t, http.StatusOK, hit(r, "198.51.100.20:40000"))
}
