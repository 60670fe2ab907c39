// Package router assembles the gin engine and wires up all modules.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra/asset-management-api/internal/changerequest"
	"github.com/inventra/asset-management-api/internal/history"
	"github.com/inventra/asset-management-api/internal/item"
	"github.com/inventra/asset-management-api/internal/person"
	"github.com/inventra/asset-management-api/internal/system/config"
	"github.com/inventra/asset-management-api/internal/system/constants"
	"github.com/inventra/asset-management-api/internal/system/database"
	"github.com/inventra/asset-management-api/internal/system/middleware"
	"github.com/inventra/asset-management-api/internal/system/stores"
)

// New builds the HTTP engine with all middleware, the health endpoint, and
// every module's routes. Modules initialize in dependency order: history
// before item so the item service can append custody entries, and both
// before the change request workflow that drives them.
func New(cfg *config.Config, db *database.DB, registry *stores.StoreRegistry) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationID())
	engine.Use(middleware.CORS(&cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := engine.Group(constants.APIBasePath)

	person.Initialize(v1, registry)
	historyService := history.Initialize(v1, registry)
	itemService := item.Initialize(v1, registry, historyService)
	changerequest.Initialize(v1, registry, itemService, historyService)

	return engine
}
