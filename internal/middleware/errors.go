package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/neowatch/internal/domain/dto"
)

// ErrorHandler turns errors attached with c.Error into the standard error
// envelope when the handler did not write a response itself.
//
// Usage:
//
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	last := c.Errors.Last()
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	message := "Internal server error"
	if resp, ok := last.Err.(dto.ErrorResponse); ok {
		message = resp.Message
	}
	c.JSON(status, dto.NewErrorResponse(message, last.Err))
}

// AbortWithError records err on the context, stops the chain and writes the
// error envelope with status.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
