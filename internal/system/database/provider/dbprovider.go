// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"sync"

	"github.com/inventra/asset-management-api/internal/system/database"
	"github.com/inventra/asset-management-api/internal/system/log"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetAssetDBClient() (DBClientInterface, error)
}

// dbProvider is the implementation of DBProviderInterface.
type dbProvider struct {
	assetClient DBClientInterface
	assetMutex  sync.RWMutex
	db          *database.DB
}

var (
	instance *dbProvider
	once     sync.Once
)

// InitDBProvider initializes the singleton instance of DBProvider with the database connection.
func InitDBProvider(db *database.DB, dbType string) {
	once.Do(func() {
		instance = &dbProvider{
			db: db,
		}
		instance.initializeClient(dbType)
	})
}

// GetDBProvider returns the instance of DBProvider.
func GetDBProvider() DBProviderInterface {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetAssetDBClient returns a database client for the asset datasource.
// The returned client manages its own connection pool and does not need closing.
func (d *dbProvider) GetAssetDBClient() (DBClientInterface, error) {
	d.assetMutex.RLock()
	defer d.assetMutex.RUnlock()
	return d.assetClient, nil
}

// initializeClient initializes the database client.
func (d *dbProvider) initializeClient(dbType string) {
	d.assetMutex.Lock()
	defer d.assetMutex.Unlock()

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))

	if d.db == nil {
		logger.Fatal("Database connection is nil")
		return
	}

	d.assetClient = NewDBClient(d.db.DB, dbType)
	logger.Debug("Asset DB client initialized")
}
