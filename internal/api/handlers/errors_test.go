package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"bess-roi/internal/data"
	"bess-roi/internal/model"
)

func TestErrorDetail(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", model.ErrShapeMismatch), http.StatusBadRequest, "SHAPE_MISMATCH"},
		{model.ErrEmptySeries, http.StatusBadRequest, "EMPTY_SERIES"},
		{fmt.Errorf("eff: %w", model.ErrInvalidEfficiency), http.StatusBadRequest, "INVALID_EFFICIENCY"},
		{model.ErrInvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{model.ErrIncompleteDay, http.StatusBadRequest, "INCOMPLETE_DAY"},
		{&data.APIError{Source: "entsoe", StatusCode: http.StatusForbidden, Code: "UNAUTHORIZED"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{&data.APIError{Source: "entsoe", StatusCode: http.StatusTooManyRequests, Code: "RATE_LIMIT_EXCEEDED"}, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{&data.APIError{Source: "entsoe", StatusCode: http.StatusOK, Code: "NO_DATA"}, http.StatusNotFound, "NO_DATA"},
		{fmt.Errorf("fetch: %w", &data.APIError{Source: "open-meteo", StatusCode: 500, Code: "API_ERROR"}), http.StatusBadGateway, "API_ERROR"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		status, detail := errorDetail(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, detail.Code, tc.err.Error())
	}
}

func TestCheckDate(t *testing.T) {
	assert.NoError(t, checkDate(""))
	assert.NoError(t, checkDate("2025-03-10"))
	assert.ErrorIs(t, checkDate("2025-3-10"), model.ErrInvalidArgument)
}
