package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streamhub/internal/apperr"
	"streamhub/internal/logger"
)

// fail writes err as {error: message} with the status its kind maps to.
func fail(c *gin.Context, err error) {
	code := apperr.Status(err)
	if code >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, apperr.New(apperr.Validation, msg))
}
