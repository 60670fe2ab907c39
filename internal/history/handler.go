package history

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/system/utils"
)

// historyHandler handles HTTP requests for the item history ledger
type historyHandler struct {
	service HistoryService
}

// newHistoryHandler creates a new history handler
func newHistoryHandler(service HistoryService) *historyHandler {
	return &historyHandler{
		service: service,
	}
}

// getItemHistory handles GET /items/{itemId}/history
func (h *historyHandler) getItemHistory(c *gin.Context) {
	itemID := c.Param("itemId")

	entries, svcErr := h.service.GetItemHistory(c.Request.Context(), itemID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"itemId":  itemID,
		"history": entries,
		"count":   len(entries),
	})
}
