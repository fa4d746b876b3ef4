package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boxibox/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationError(t *testing.T) {
	type quoteRequest struct {
		Months int    `json:"months" binding:"required,min=1"`
		AsOf   string `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
	}

	SetupValidator()
	r := gin.New()
	r.POST("/test", func(c *gin.Context) {
		var req quoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) (*httptest.ResponseRecorder, dto.Response) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := serve(r, req)
		var resp dto.Response
		if w.Code != http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		}
		return w, resp
	}

	t.Run("field errors use json names", func(t *testing.T) {
		w, resp := post(`{"months": 0, "as_of": "15/03/2024"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "months", resp.Error.Details[0].Field)
		assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
		assert.Equal(t, "as_of", resp.Error.Details[1].Field)
	})

	t.Run("wrong type", func(t *testing.T) {
		w, resp := post(`{"months": "three"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "months", resp.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := post(`{"months": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEqual(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("valid", func(t *testing.T) {
		w, _ := post(`{"months": 3, "as_of": "2024-03-15"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
