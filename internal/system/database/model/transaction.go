package model

import (
	"fmt"
)

// TxStarter begins transactions. The database client implements it.
type TxStarter interface {
	BeginTx() (TxInterface, error)
}

// ExecuteTransaction executes multiple queries in a single atomic transaction.
// If any query fails, all changes are rolled back.
func ExecuteTransaction(db TxStarter, queries []func(tx TxInterface) error) error {
	tx, err := db.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, query := range queries {
		if err := query(tx); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				return fmt.Errorf("query %d failed: %w (rollback failed: %v)", i, err, rollbackErr)
			}
			return fmt.Errorf("query %d failed: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
