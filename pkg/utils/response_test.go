package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondSuccessDefaultsMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondSuccess(c, http.StatusOK, nil, "")

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Operation successful", body.Message)
}

func TestRespondConflictErrorAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondConflictError(c, "position occupied", map[string]any{"occupant_id": 7})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, c.IsAborted())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "position occupied", body["error"])
	assert.Equal(t, float64(7), body["details"].(map[string]any)["occupant_id"])
}

func TestRespondNotFoundError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondNotFoundError(c, "service member not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "service member not found", body.Error)
	assert.Nil(t, body.Details)
}

func TestNewPagedData(t *testing.T) {
	p := NewPagedData([]int{1}, 41, 2, 20)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.Equal(t, int64(0), NewPagedData(nil, 5, 1, 0).TotalPages)
}
