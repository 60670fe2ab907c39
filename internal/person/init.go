// Package person provides the directory of people who can hold items.
package person

import (
	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/system/stores"
)

// Initialize sets up the person module and registers its routes
func Initialize(v1 *gin.RouterGroup, registry *stores.StoreRegistry) PersonService {
	registry.PersonStore = newPersonStore(registry.DBClient())

	service := newPersonService(registry)
	handler := newPersonHandler(service)

	persons := v1.Group("/persons")
	{
		persons.POST("", handler.createPerson)
		persons.GET("", handler.listPersons)
		persons.GET("/:personnelNumber", handler.getPerson)
	}

	return service
}
