package controller

import (
	"errors"
	"net/http"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/gin-gonic/gin"
)

func respondSuccess(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, models.APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// respondError maps the error taxonomy onto HTTP status codes.
// Store failure details are logged and never returned to the caller.
func respondError(c *gin.Context, log logger.Logger, message string, err error) {
	var (
		verr     *models.ValidationError
		notFound *models.NotFoundError
		conflict *models.ConflictError
	)

	resp := models.APIResponse{Status: "error", Message: message, Error: &models.APIError{}}
	switch {
	case errors.As(err, &verr):
		resp.Code = http.StatusBadRequest
		resp.Error.Type = "ValidationError"
		resp.Error.Field = verr.Field
		resp.Error.Details = verr.Message
	case errors.As(err, &notFound):
		resp.Code = http.StatusNotFound
		resp.Error.Type = "NotFoundError"
		resp.Error.Details = notFound.Error()
	case errors.As(err, &conflict):
		resp.Code = http.StatusConflict
		resp.Error.Type = "ConflictError"
		resp.Error.Field = conflict.Field
		resp.Error.Details = conflict.Error()
	default:
		log.Errorf("%s: %v", message, err)
		resp.Code = http.StatusInternalServerError
		resp.Error.Type = "StoreError"
		resp.Error.Details = "internal error"
	}
	c.JSON(resp.Code, resp)
}
