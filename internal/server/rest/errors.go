package rest

import (
	"github.com/gin-gonic/gin"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeError(c *gin.Context, status int, message string, err error) {
	resp := errorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

func abortWithError(c *gin.Context, status int, message string, err error) {
	writeError(c, status, message, err)
	c.Abort()
}
