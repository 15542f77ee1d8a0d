package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// statusOf maps application error codes to HTTP statuses so the client can
// tell "don't retry" (permission, not found, precondition) apart from
// transient store failures worth retrying.
func statusOf(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case appErrors.CodeNotFound:
		return http.StatusNotFound
	case appErrors.CodePermissionDenied:
		return http.StatusForbidden
	case appErrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case appErrors.CodeFailedPrecondition:
		return http.StatusUnprocessableEntity
	case appErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{
		"error": err.Error(),
		"code":  appErrors.CodeOf(err),
	})
}
