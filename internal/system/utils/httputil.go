package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/system/error/apierror"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
)

// SendError writes a service error as a JSON error response with the HTTP
// status matching its error code.
func SendError(c *gin.Context, svcErr *serviceerror.ServiceError) {
	status := http.StatusInternalServerError

	if svcErr.Type == serviceerror.ClientErrorType {
		switch svcErr.Code {
		case serviceerror.ResourceNotFoundError.Code:
			status = http.StatusNotFound
		case serviceerror.UnauthorizedError.Code:
			status = http.StatusForbidden
		case serviceerror.ConflictError.Code:
			status = http.StatusConflict
		case serviceerror.InvalidRequestStateError.Code:
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusBadRequest
		}
	}

	c.AbortWithStatusJSON(status, apierror.NewErrorResponse(svcErr.Error, svcErr.ErrorDescription))
}

// SendValidationError writes a 400 response for a malformed request body or
// parameter, without going through the service error catalogue.
func SendValidationError(c *gin.Context, description string) {
	SendError(c, serviceerror.CustomServiceError(serviceerror.ValidationError, description))
}
