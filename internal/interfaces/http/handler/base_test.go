package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/interfaces/http/dto"
	"github.com/boxibox/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// perform sends a request through r; body is marshalled to JSON when not nil
func perform(r http.Handler, method, path, tenantID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != "" {
		req.Header.Set(middleware.TenantHeaderKey, tenantID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unwraps the data field of a success response
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

// decodeError unwraps the error of a failure response
func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"validation", shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1"), http.StatusBadRequest, "INVALID_QUANTITY"},
		{"not found", shared.NewNotFoundError("Add-on"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"state", shared.NewStateError("Add-on is already paused"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"wrapped conflict", fmt.Errorf("update: %w", shared.ErrConcurrencyConflict), http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"infrastructure", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := gin.New()
			r.Use(middleware.RequestID())
			r.GET("/test", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := perform(r, http.MethodGet, "/test", "", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, info.Code)
			assert.NotEmpty(t, info.RequestID)
			assert.NotContains(t, info.Message, "dial tcp")
		})
	}
}

func TestBaseHandler_AsOf(t *testing.T) {
	h := &BaseHandler{}
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	clock := shared.NewFixedClock(time.Date(2024, 3, 16, 0, 30, 0, 0, paris))

	r := gin.New()
	var got time.Time
	r.GET("/test", func(c *gin.Context) {
		if d, ok := h.asOf(c, c.Query("as_of"), clock); ok {
			got = d
			c.Status(http.StatusOK)
		}
	})

	w := perform(r, http.MethodGet, "/test", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), got)

	w = perform(r, http.MethodGet, "/test?as_of=2024-02-29", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	w = perform(r, http.MethodGet, "/test?as_of=29/02/2024", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).Code)
}

func TestBaseHandler_TenantAndPathID(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.Use(middleware.TenantWithConfig(middleware.TenantConfig{Optional: true}))
	r.GET("/items/:id", func(c *gin.Context) {
		if _, ok := h.tenantID(c); !ok {
			return
		}
		if _, ok := h.pathID(c, "id"); !ok {
			return
		}
		c.Status(http.StatusOK)
	})

	tenant := "7f0c5a3e-4d0b-4f59-9a34-57c51f1f6c11"
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/items/"+tenant, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/items/abc", tenant, nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/items/"+tenant, tenant, nil).Code)
}
