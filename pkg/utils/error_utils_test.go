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

func TestRespondWithErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithError(c, NewAPIError(http.StatusConflict, ErrCodeConflict, "Plan cannot change status", "Draft -> Completed"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, c.IsAborted())

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, ErrCodeConflict, body.Error.Code)
	assert.Equal(t, "Draft -> Completed", body.Error.Details)
}

func TestRespondPaginated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondPaginated(c, []int{1, 2}, NewPagination(1, 2, 5))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total_pages"])
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("staff@relief.org"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.True(t, IsEmpty("   "))
}
