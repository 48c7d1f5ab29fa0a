// Package response renders the API's fixed JSON envelopes.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/apperr"
	log "github.com/sirupsen/logrus"
)

// OK renders a success envelope with the given payload.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// NoContent renders an empty success response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail renders the error envelope for a domain error. Unclassified
// errors are logged and reported as a generic 500 so internals never
// leak to clients.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		Abort(c, appErr.HTTPStatus(), appErr.Message)
		return
	}
	log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	Abort(c, http.StatusInternalServerError, "Something went wrong")
}

// Abort renders the error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"statusCode": status,
		"message":    message,
	})
}
