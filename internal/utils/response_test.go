package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, rec
}

func TestSuccessEnvelope(t *testing.T) {
	c, rec := testContext(t)
	Success(c, 200, "ok", gin.H{"value": 42})

	require.Equal(t, 200, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Message)
	assert.Nil(t, resp.Error)
	assert.NotEmpty(t, resp.Meta.RequestID)
	assert.NotEmpty(t, resp.Meta.Timestamp)
}

func TestErrorEnvelope(t *testing.T) {
	c, rec := testContext(t)
	Error(c, 404, "NOT_FOUND", "Project not found")

	require.Equal(t, 404, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Nil(t, resp.Data)
}

func TestErrorWithDataCarriesPayload(t *testing.T) {
	c, rec := testContext(t)
	ErrorWithData(c, 409, "ALREADY_RUNNING", "A promo check is already in progress", gin.H{
		"progress": gin.H{"status": "running", "processed": 20, "total": 45},
	})

	require.Equal(t, 409, rec.Code)
	var resp struct {
		Success bool       `json:"success"`
		Error   *ErrorInfo `json:"error"`
		Data    struct {
			Progress struct {
				Status    string `json:"status"`
				Processed int    `json:"processed"`
				Total     int    `json:"total"`
			} `json:"progress"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_RUNNING", resp.Error.Code)
	assert.Equal(t, "running", resp.Data.Progress.Status)
	assert.Equal(t, 20, resp.Data.Progress.Processed)
	assert.Equal(t, 45, resp.Data.Progress.Total)
}
