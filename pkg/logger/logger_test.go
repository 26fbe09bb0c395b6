package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_FallsBackToStandardLogger(t *testing.T) {
	entry := FromContext(context.Background())
	require.NotNil(t, entry)
	assert.Equal(t, logrus.StandardLogger(), entry.Logger)
}

func TestMiddleware_StoresRequestScopedEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	require.NoError(t, Setup("info", "json", &buf))
	t.Cleanup(func() { _ = Setup("info", "text", nil) })

	r := gin.New()
	r.Use(Middleware())
	var seen *logrus.Entry
	r.GET("/ping", func(c *gin.Context) {
		seen = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	require.NotNil(t, seen)
	assert.Equal(t, "req-1", seen.Data["request-id"])

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "request finished", line["msg"])
	assert.EqualValues(t, http.StatusNoContent, line["status"])
}

func TestSetup_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Setup("loud", "text", nil))
}
