package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rohankatakam/slatewise/internal/errors"
)

func statusFor(err error) int {
	return errors.GetType(err).HTTPStatus()
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		entry := s.logger.WithError(err).WithField("path", c.FullPath()).WithField("status", status)
		var e *errors.Error
		if stderrors.As(err, &e) {
			entry = entry.WithField("detail", e.DetailedString())
		}
		entry.Error("request error")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
