package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeInvalidToken, http.StatusNotFound},
		{shared.CodeInvalidTransition, http.StatusConflict},
		{shared.CodeInvalidState, http.StatusConflict},
		{shared.CodeAlreadyExists, http.StatusConflict},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{shared.CodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{shared.CodeArithmeticInconsistency, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
	}{
		{"exact pages", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"empty", 0, 20, 0},
		{"zero page size", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
			assert.True(t, resp.Success)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.total, resp.Meta.Total)
		})
	}
}

func TestErrorResponses_JSON(t *testing.T) {
	t.Run("plain error omits data and details", func(t *testing.T) {
		body, err := json.Marshal(NewErrorResponse(shared.CodeNotFound, "Invoice not found"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"Invoice not found"}}`, string(body))
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
			{Field: "billing_type", Message: "must be one of: final progress"},
		})
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeValidation, resp.Error.Code)
		assert.Equal(t, "req-1", resp.Error.RequestID)
		assert.Len(t, resp.Error.Details, 1)
		assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(resp.Error.Code))
	})
}
