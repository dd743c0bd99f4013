package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: code redeemed", apperrors.ErrConflict), http.StatusConflict},
		{apperrors.NewValidationError("level", "n9", ""), http.StatusUnprocessableEntity},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{apperrors.ErrExpiredToken, http.StatusUnauthorized},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{apperrors.ErrFeatureDisabled, http.StatusServiceUnavailable},
		{apperrors.ErrUpstream, http.StatusInternalServerError},
		{errDB, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.status, statusFor(tc.err))
		})
	}
}

func TestHandleError_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.GET("/internal", func(c *gin.Context) { handleError(c, zap.NewNop(), errDB) })
	r.GET("/conflict", func(c *gin.Context) { handleError(c, zap.NewNop(), apperrors.ErrConflict) })

	internal := doJSON(r, http.MethodGet, "/internal", nil)
	assert.Equal(t, http.StatusInternalServerError, internal.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, internal.Body.String(), "Текст внутренней ошибки не отдается клиенту")

	conflict := doJSON(r, http.MethodGet, "/conflict", nil)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.JSONEq(t, `{"error":"resource state conflict"}`, conflict.Body.String())
}

func TestPagination(t *testing.T) {
	testCases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 10},
		{"?page=3&page_size=50", 3, 50},
		{"?page=0&page_size=500", 1, 10},
		{"?page=abc&page_size=-1", 1, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			var page, size int
			r := gin.New()
			r.GET("/list", func(c *gin.Context) {
				page, size = pagination(c)
				c.Status(http.StatusNoContent)
			})

			doJSON(r, http.MethodGet, "/list"+tc.query, nil)

			assert.Equal(t, tc.page, page)
			assert.Equal(t, tc.pageSize, size)
		})
	}
}
