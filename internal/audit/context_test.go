package audit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	require.NoError(t, engine.SetTrustedProxies(nil))
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "198.51.100.4:5123"
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7")
	c.Request.Header.Set("User-Agent", "curl/8")
	c.Set("userID", int64(9))
	c.Set("jti", "token-id")

	actx := FromGin(c)
	require.NotNil(t, actx.UserID)
	assert.Equal(t, int64(9), *actx.UserID)
	assert.Equal(t, "198.51.100.4", actx.IPAddress, "forwarded header from an untrusted peer is ignored")
	assert.Equal(t, "curl/8", actx.UserAgent)
	assert.Equal(t, "token-id", actx.SessionKey)
}

func TestFromGin_TrustedProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(httptest.NewRecorder())
	require.NoError(t, engine.SetTrustedProxies([]string{"10.0.0.1"}))
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:443"
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7")

	assert.Equal(t, "203.0.113.7", FromGin(c).IPAddress)
}

func TestFromGin_Anonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	actx := FromGin(c)
	assert.Nil(t, actx.UserID)
}
