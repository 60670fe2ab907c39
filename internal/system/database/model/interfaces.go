package model

import (
	"database/sql"
)

// TxInterface defines the interface for transaction operations.
type TxInterface interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Commit() error
	Rollback() error
}

// Tx wraps sql.Tx to implement TxInterface.
type Tx struct {
	*sql.Tx
}

// NewTx creates a new Tx instance.
func NewTx(tx *sql.Tx) TxInterface {
	return &Tx{Tx: tx}
}
