// Package changerequest implements the consent workflow for item changes.
// Owned items only change through requests their holder approves; true
// transfers additionally need the recipient's approval through a paired
// receive request.
package changerequest

import (
	"github.com/gin-gonic/gin"

	historysvc "github.com/inventra/asset-management-api/internal/history"
	itemsvc "github.com/inventra/asset-management-api/internal/item"
	"github.com/inventra/asset-management-api/internal/system/stores"
)

// Initialize sets up the change request module and registers its routes.
// The item update route lives here because updates to owned items must run
// through the consent workflow.
func Initialize(v1 *gin.RouterGroup, registry *stores.StoreRegistry, items itemsvc.ItemService, history historysvc.HistoryService) ChangeRequestService {
	registry.ChangeRequestStore = newChangeRequestStore(registry.DBClient())

	service := newChangeRequestService(registry, items, history)
	handler := newChangeRequestHandler(service)

	v1.PUT("/items/:itemId", handler.updateItem)
	v1.POST("/items/bulk-transfer", handler.bulkTransfer)

	requests := v1.Group("/change-requests")
	{
		requests.GET("", handler.listRequests)
		requests.GET("/:requestId", handler.getRequest)
		requests.POST("/:requestId/approve", handler.approveRequest)
		requests.POST("/:requestId/reject", handler.rejectRequest)
		requests.POST("/:requestId/force-approve", handler.forceApproveRequest)
		requests.POST("/:requestId/admin-reject", handler.adminRejectRequest)
	}

	return service
}
