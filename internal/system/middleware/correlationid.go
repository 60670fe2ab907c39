package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inventra/asset-management-api/internal/system/constants"
)

// CorrelationID attaches a correlation identifier to every request. An
// incoming X-Correlation-ID header is honored; otherwise a fresh UUID is
// generated. The value is echoed back on the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(constants.HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(constants.ContextKeyCorrelationID, correlationID)
		c.Writer.Header().Set(constants.HeaderCorrelationID, correlationID)
		c.Next()
	}
}
