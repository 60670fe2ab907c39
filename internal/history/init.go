// Package history provides the append-only custody ledger for items.
package history

import (
	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/system/stores"
)

// Initialize sets up the history module and registers its routes
func Initialize(v1 *gin.RouterGroup, registry *stores.StoreRegistry) HistoryService {
	registry.HistoryStore = newHistoryStore(registry.DBClient())

	service := newHistoryService(registry)
	handler := newHistoryHandler(service)

	v1.GET("/items/:itemId/history", handler.getItemHistory)

	return service
}
