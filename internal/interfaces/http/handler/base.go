// Package handler implements the HTTP handlers.
package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"shakespeare-rag-api/internal/interfaces/http/dto"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/logger"
)

// respondError writes the uniform error shape with the status mapped
// from the error code.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)

	if appErr.HTTPStatus >= 500 {
		logger.Error(c.Request.Context(), "request failed", err,
			"path", c.Request.URL.Path,
			"code", string(appErr.Code),
		)
	}

	c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Detail:  appErr.Detail,
		TraceID: c.GetString("trace_id"),
	})
}

// bindJSON decodes the body strictly and reports violations as
// invalid_param. Unknown fields are rejected so a misspelled filter
// key fails loudly instead of silently widening the search.
func bindJSON(c *gin.Context, out any) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request body"))
		return false
	}
	if err := binding.Validator.ValidateStruct(out); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request body"))
		return false
	}
	return true
}
