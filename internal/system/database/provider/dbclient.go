package provider

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
)

// DBClientInterface defines the interface for executing named queries
// against the underlying database.
type DBClientInterface interface {
	Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error)
	Execute(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error)
	BeginTx() (dbmodel.TxInterface, error)
	DBType() string
}

// dbClient implements DBClientInterface on top of sqlx.
type dbClient struct {
	db     *sqlx.DB
	dbType string
}

// NewDBClient creates a new database client for the given database type.
func NewDBClient(db *sqlx.DB, dbType string) DBClientInterface {
	return &dbClient{
		db:     db,
		dbType: dbType,
	}
}

// Query executes a named query and returns the result rows as maps.
// []byte column values are normalized to string so mappers can type-assert
// uniformly across drivers.
func (c *dbClient) Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := c.db.Queryx(query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", query.GetID(), err)
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("query %s scan failed: %w", query.GetID(), err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// Execute runs a named statement and returns the result.
func (c *dbClient) Execute(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error) {
	result, err := c.db.Exec(query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("statement %s failed: %w", query.GetID(), err)
	}
	return result, nil
}

// BeginTx starts a new transaction.
func (c *dbClient) BeginTx() (dbmodel.TxInterface, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return dbmodel.NewTx(tx), nil
}

// DBType returns the configured database type.
func (c *dbClient) DBType() string {
	return c.dbType
}
