package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-roi/internal/api/models"
	"bess-roi/internal/data"
	"bess-roi/internal/logging"
	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondErr maps err onto an HTTP status and error code.
func respondErr(c *gin.Context, err error) {
	status, detail := errorDetail(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error("request failed", "error", err)
	}
	c.JSON(status, models.ErrorResponse{Error: detail})
}

func errorDetail(err error) (int, models.ErrorDetail) {
	var apiErr *data.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			status = http.StatusUnauthorized
		case http.StatusTooManyRequests:
			status = http.StatusTooManyRequests
		}
		if apiErr.Code == "NO_DATA" {
			status = http.StatusNotFound
		}
		return status, models.ErrorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: map[string]interface{}{
				"source":      apiErr.Source,
				"status_code": apiErr.StatusCode,
				"retry_after": apiErr.RetryAfter,
			},
		}
	}

	codes := []struct {
		err  error
		code string
	}{
		{model.ErrShapeMismatch, "SHAPE_MISMATCH"},
		{model.ErrEmptySeries, "EMPTY_SERIES"},
		{model.ErrInvalidEfficiency, "INVALID_EFFICIENCY"},
		{model.ErrIncompleteDay, "INCOMPLETE_DAY"},
		{profile.ErrUnknownProfile, "UNKNOWN_PROFILE"},
		{model.ErrInvalidArgument, "INVALID_ARGUMENT"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return http.StatusBadRequest, models.ErrorDetail{Code: c.code, Message: err.Error()}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, models.ErrorDetail{Code: "TIMEOUT", Message: err.Error()}
	}
	return http.StatusInternalServerError, models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()}
}
