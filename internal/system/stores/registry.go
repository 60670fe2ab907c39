// Package stores wires the module stores to the shared database client and
// exposes transaction helpers for flows that span modules.
package stores

import (
	"fmt"
	"sync"

	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/database/provider"
	"github.com/inventra/asset-management-api/internal/system/stores/interfaces"
)

// StoreRegistry holds the store implementations for all modules. Services
// resolve their dependencies through the registry so composite flows, such
// as approving a transfer, can reach every store inside one transaction.
type StoreRegistry struct {
	dbClient provider.DBClientInterface

	PersonStore        interfaces.PersonStoreInterface
	ItemStore          interfaces.ItemStoreInterface
	HistoryStore       interfaces.HistoryStoreInterface
	ChangeRequestStore interfaces.ChangeRequestStoreInterface
}

var (
	registry     *StoreRegistry
	registryOnce sync.Once
)

// NewRegistry creates a store registry around the given database client.
// Stores register themselves during module initialization.
func NewRegistry(dbClient provider.DBClientInterface) *StoreRegistry {
	return &StoreRegistry{dbClient: dbClient}
}

// InitRegistry initializes the singleton store registry with the database
// client.
func InitRegistry(dbClient provider.DBClientInterface) *StoreRegistry {
	registryOnce.Do(func() {
		registry = NewRegistry(dbClient)
	})
	return registry
}

// GetRegistry returns the singleton store registry.
func GetRegistry() *StoreRegistry {
	if registry == nil {
		panic("store registry not initialized. Call InitRegistry first.")
	}
	return registry
}

// DBClient returns the shared database client.
func (r *StoreRegistry) DBClient() provider.DBClientInterface {
	return r.dbClient
}

// ExecuteTransaction runs the given steps in a single transaction, rolling
// back all of them if any step fails.
func (r *StoreRegistry) ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error {
	return dbmodel.ExecuteTransaction(r.dbClient, queries)
}

// WithTransaction runs fn inside a transaction. It suits flows whose later
// writes depend on reads taken under the same locks, such as the approval
// engine's consent checks.
func (r *StoreRegistry) WithTransaction(fn func(tx dbmodel.TxInterface) error) error {
	tx, err := r.dbClient.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback failed: %v)", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
