package person

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/person/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// personHandler handles HTTP requests for the person directory
type personHandler struct {
	service PersonService
}

// newPersonHandler creates a new person handler
func newPersonHandler(service PersonService) *personHandler {
	return &personHandler{
		service: service,
	}
}

// createPerson handles POST /persons
func (h *personHandler) createPerson(c *gin.Context) {
	var req model.PersonCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid request body"))
		return
	}

	person, svcErr := h.service.CreatePerson(c.Request.Context(), req)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusCreated, person)
}

// getPerson handles GET /persons/{personnelNumber}
func (h *personHandler) getPerson(c *gin.Context) {
	personnelNumber := c.Param("personnelNumber")

	person, svcErr := h.service.GetPerson(c.Request.Context(), personnelNumber)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, person)
}

// listPersons handles GET /persons
func (h *personHandler) listPersons(c *gin.Context) {
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

	persons, svcErr := h.service.ListPersons(c.Request.Context(), limit, offset)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"persons": persons,
		"count":   len(persons),
	})
}
