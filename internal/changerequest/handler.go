package changerequest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/changerequest/model"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	"github.com/inventra/asset-management-api/internal/system/constants"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// changeRequestHandler handles HTTP requests for the consent workflow
type changeRequestHandler struct {
	service ChangeRequestService
}

// newChangeRequestHandler creates a new change request handler
func newChangeRequestHandler(service ChangeRequestService) *changeRequestHandler {
	return &changeRequestHandler{
		service: service,
	}
}

// updateItemBody wraps an item update with its request metadata.
type updateItemBody struct {
	itemmodel.ItemUpdateRequest
	Description string `json:"description"`
}

// updateItem handles PUT /items/{itemId}. The submitted state is diffed
// against the current record; owned items go through the consent workflow.
func (h *changeRequestHandler) updateItem(c *gin.Context) {
	itemID := c.Param("itemId")
	adminUser := c.GetHeader(constants.HeaderAdminUser)

	var body updateItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid request body"))
		return
	}

	result, svcErr := h.service.ProposeItemUpdate(c.Request.Context(), itemID, body.ItemUpdateRequest, adminUser, body.Description)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	status := http.StatusOK
	if len(result.Requests) > 0 {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

// listRequests handles GET /change-requests
func (h *changeRequestHandler) listRequests(c *gin.Context) {
	filters := model.Filters{
		Status:     c.Query("status"),
		ActionType: c.Query("action"),
		OwnerID:    c.Query("owner"),
		ItemID:     c.Query("item"),
		Search:     c.Query("search"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			filters.Limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil {
			filters.Offset = o
		}
	}

	requests, svcErr := h.service.ListRequests(c.Request.Context(), filters)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	counts, svcErr := h.service.StatusCounts(c.Request.Context())
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":     requests,
		"count":        len(requests),
		"statusCounts": counts,
	})
}

// getRequest handles GET /change-requests/{requestId}
func (h *changeRequestHandler) getRequest(c *gin.Context) {
	requestID := c.Param("requestId")

	request, svcErr := h.service.GetRequest(c.Request.Context(), requestID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, request)
}

// approveRequest handles POST /change-requests/{requestId}/approve
func (h *changeRequestHandler) approveRequest(c *gin.Context) {
	requestID := c.Param("requestId")
	actorID := c.GetHeader(constants.HeaderActorID)
	if actorID == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.ValidationError, "X-Actor-Id header is required"))
		return
	}

	result, svcErr := h.service.Approve(c.Request.Context(), requestID, actorID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// rejectRequest handles POST /change-requests/{requestId}/reject
func (h *changeRequestHandler) rejectRequest(c *gin.Context) {
	requestID := c.Param("requestId")
	actorID := c.GetHeader(constants.HeaderActorID)
	if actorID == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.ValidationError, "X-Actor-Id header is required"))
		return
	}

	result, svcErr := h.service.Reject(c.Request.Context(), requestID, actorID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// forceApproveRequest handles POST /change-requests/{requestId}/force-approve
func (h *changeRequestHandler) forceApproveRequest(c *gin.Context) {
	requestID := c.Param("requestId")
	adminUser := c.GetHeader(constants.HeaderAdminUser)
	if adminUser == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.ValidationError, "X-Admin-User header is required"))
		return
	}

	result, svcErr := h.service.ForceApprove(c.Request.Context(), requestID, adminUser)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// adminRejectRequest handles POST /change-requests/{requestId}/admin-reject
func (h *changeRequestHandler) adminRejectRequest(c *gin.Context) {
	requestID := c.Param("requestId")
	adminUser := c.GetHeader(constants.HeaderAdminUser)
	if adminUser == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.ValidationError, "X-Admin-User header is required"))
		return
	}

	result, svcErr := h.service.AdminReject(c.Request.Context(), requestID, adminUser)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// bulkTransfer handles POST /items/bulk-transfer
func (h *changeRequestHandler) bulkTransfer(c *gin.Context) {
	adminUser := c.GetHeader(constants.HeaderAdminUser)

	var req model.BulkTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid request body"))
		return
	}

	result, svcErr := h.service.BulkTransfer(c.Request.Context(), req, adminUser)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}
