package item

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/item/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// itemHandler handles HTTP requests for the item registry
type itemHandler struct {
	service ItemService
}

// newItemHandler creates a new item handler
func newItemHandler(service ItemService) *itemHandler {
	return &itemHandler{
		service: service,
	}
}

// createItem handles POST /items
func (h *itemHandler) createItem(c *gin.Context) {
	var req model.ItemCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid request body"))
		return
	}

	item, svcErr := h.service.CreateItem(c.Request.Context(), req)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// getItem handles GET /items/{itemId}
func (h *itemHandler) getItem(c *gin.Context) {
	itemID := c.Param("itemId")

	item, svcErr := h.service.GetItem(c.Request.Context(), itemID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, item)
}

// listItems handles GET /items
func (h *itemHandler) listItems(c *gin.Context) {
	limit := 25
	offset := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil {
			offset = o
		}
	}

	items, svcErr := h.service.ListItems(c.Request.Context(), limit, offset)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
