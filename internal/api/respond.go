// internal/api/respond.go
package api

import (
	"net/http"

	"talent-intake/internal/common/errors"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code      errors.ErrorCode       `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    interface{}            `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func toErrorBody(err error) (int, errorBody) {
	stdErr, ok := errors.AsStandardError(err)
	if !ok {
		return http.StatusInternalServerError, errorBody{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		}
	}

	body := errorBody{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
	}
	for k, v := range stdErr.Metadata {
		if k == "fields" {
			body.Fields = v
			continue
		}
		if body.Metadata == nil {
			body.Metadata = make(map[string]interface{})
		}
		body.Metadata[k] = v
	}
	return errors.HTTPStatus(stdErr.Code), body
}

func respondError(c *gin.Context, err error) {
	status, body := toErrorBody(err)
	c.JSON(status, gin.H{"error": body})
}

func abortWithError(c *gin.Context, err error) {
	status, body := toErrorBody(err)
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// respondWithState answers with the error status when err is set and includes the
// current resource so the client can render inline errors.
func respondWithState(c *gin.Context, key string, state interface{}, err error, okStatus int) {
	if err == nil {
		c.JSON(okStatus, state)
		return
	}
	status, body := toErrorBody(err)
	resp := gin.H{"error": body}
	if state != nil {
		resp[key] = state
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, field, message string) {
	respondError(c, errors.NewApplicationValidationFailedError(map[string]string{field: message}))
}
