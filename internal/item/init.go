// Package item provides the registry of trackable assets. Item updates that
// touch an owned item's holder are not served here; the change request
// module owns the update route and routes such edits through approval.
package item

import (
	"github.com/gin-gonic/gin"

	historysvc "github.com/inventra/asset-management-api/internal/history"
	"github.com/inventra/asset-management-api/internal/system/stores"
)

// Initialize sets up the item module and registers its routes
func Initialize(v1 *gin.RouterGroup, registry *stores.StoreRegistry, history historysvc.HistoryService) ItemService {
	registry.ItemStore = newItemStore(registry.DBClient())

	service := newItemService(registry, history)
	handler := newItemHandler(service)

	items := v1.Group("/items")
	{
		items.POST("", handler.createItem)
		items.GET("", handler.listItems)
		items.GET("/:itemId", handler.getItem)
	}

	return service
}
