package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"assetverse/internal/service"
	"assetverse/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad id", service.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: request", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: already approved", service.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: out of stock", service.ErrUnavailable), http.StatusConflict},
		{fmt.Errorf("%w: limit reached", service.ErrQuotaExceeded), http.StatusForbidden},
		{fmt.Errorf("%w: not returnable", service.ErrInvalidOperation), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad password", service.ErrUnauthorized), http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(c, zap.NewNop(), errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Server error", body.Error)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(c, zap.NewNop(), fmt.Errorf("%w: asset no longer available", service.ErrUnavailable))

	require.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable: asset no longer available", body.Error)
	assert.Equal(t, "error", body.Status)
}
