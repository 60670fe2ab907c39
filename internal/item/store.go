package item

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/inventra/asset-management-api/internal/item/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/database/provider"
	"github.com/inventra/asset-management-api/internal/system/stores/interfaces"
)

// DBQuery objects for all item registry operations
var (
	QueryCreateItem = dbmodel.DBQuery{
		ID:    "CREATE_ITEM",
		Query: "INSERT INTO ITEM (ITEM_ID, NAME, TYPE, STATUS, SUB_STATUS, BRAND, CONFIGURATION, SERIAL_NUMBER, PRODUCT_CODE, QUANTITY, HOLDER_ID, REGISTERED_TIME, UPDATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetItemByID = dbmodel.DBQuery{
		ID:    "GET_ITEM_BY_ID",
		Query: "SELECT ITEM_ID, NAME, TYPE, STATUS, SUB_STATUS, BRAND, CONFIGURATION, SERIAL_NUMBER, PRODUCT_CODE, QUANTITY, HOLDER_ID, REGISTERED_TIME, UPDATED_TIME FROM ITEM WHERE ITEM_ID = ?",
	}

	// QueryGetItemByIDForUpdate locks the item row for the rest of the
	// transaction so concurrent approvals serialize on the item.
	QueryGetItemByIDForUpdate = dbmodel.DBQuery{
		ID:          "GET_ITEM_BY_ID_FOR_UPDATE",
		Query:       "SELECT ITEM_ID, NAME, TYPE, STATUS, SUB_STATUS, BRAND, CONFIGURATION, SERIAL_NUMBER, PRODUCT_CODE, QUANTITY, HOLDER_ID, REGISTERED_TIME, UPDATED_TIME FROM ITEM WHERE ITEM_ID = ? FOR UPDATE",
		SQLiteQuery: "SELECT ITEM_ID, NAME, TYPE, STATUS, SUB_STATUS, BRAND, CONFIGURATION, SERIAL_NUMBER, PRODUCT_CODE, QUANTITY, HOLDER_ID, REGISTERED_TIME, UPDATED_TIME FROM ITEM WHERE ITEM_ID = ?",
	}

	QueryListItems = dbmodel.DBQuery{
		ID:    "LIST_ITEMS",
		Query: "SELECT ITEM_ID, NAME, TYPE, STATUS, SUB_STATUS, BRAND, CONFIGURATION, SERIAL_NUMBER, PRODUCT_CODE, QUANTITY, HOLDER_ID, REGISTERED_TIME, UPDATED_TIME FROM ITEM ORDER BY REGISTERED_TIME DESC LIMIT ? OFFSET ?",
	}

	QueryUpdateItem = dbmodel.DBQuery{
		ID:    "UPDATE_ITEM",
		Query: "UPDATE ITEM SET NAME = ?, TYPE = ?, STATUS = ?, SUB_STATUS = ?, BRAND = ?, CONFIGURATION = ?, SERIAL_NUMBER = ?, PRODUCT_CODE = ?, QUANTITY = ?, HOLDER_ID = ?, UPDATED_TIME = ? WHERE ITEM_ID = ?",
	}

	QueryUpdateItemHolder = dbmodel.DBQuery{
		ID:    "UPDATE_ITEM_HOLDER",
		Query: "UPDATE ITEM SET HOLDER_ID = ?, UPDATED_TIME = ? WHERE ITEM_ID = ?",
	}

	QueryCheckSerialNumberExists = dbmodel.DBQuery{
		ID:    "CHECK_SERIAL_NUMBER_EXISTS",
		Query: "SELECT COUNT(*) as count FROM ITEM WHERE SERIAL_NUMBER = ? AND ITEM_ID != ?",
	}
)

// store implements interfaces.ItemStoreInterface
type store struct {
	dbClient provider.DBClientInterface
}

// newItemStore creates a new item store
func newItemStore(dbClient provider.DBClientInterface) interfaces.ItemStoreInterface {
	return &store{
		dbClient: dbClient,
	}
}

// Create inserts a new item within a transaction
func (s *store) Create(tx dbmodel.TxInterface, item *model.Item) error {
	_, err := tx.Exec(QueryCreateItem.Query,
		item.ItemID, item.Name, item.Type, item.Status, item.SubStatus,
		item.Brand, item.Configuration, item.SerialNumber, item.ProductCode,
		item.Quantity, item.HolderID, item.RegisteredTime, item.UpdatedTime)
	return err
}

// Update overwrites all mutable item fields within a transaction
func (s *store) Update(tx dbmodel.TxInterface, item *model.Item) error {
	_, err := tx.Exec(QueryUpdateItem.Query,
		item.Name, item.Type, item.Status, item.SubStatus,
		item.Brand, item.Configuration, item.SerialNumber, item.ProductCode,
		item.Quantity, item.HolderID, item.UpdatedTime, item.ItemID)
	return err
}

// UpdateHolder changes only the holder within a transaction
func (s *store) UpdateHolder(tx dbmodel.TxInterface, itemID string, holderID *string, updatedTime int64) error {
	_, err := tx.Exec(QueryUpdateItemHolder.Query, holderID, updatedTime, itemID)
	return err
}

// GetByID retrieves an item by ID
func (s *store) GetByID(ctx context.Context, itemID string) (*model.Item, error) {
	rows, err := s.dbClient.Query(QueryGetItemByID, itemID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToItem(rows[0]), nil
}

// GetByIDForUpdate retrieves an item inside the caller's transaction and
// holds a row lock until the transaction commits or rolls back.
func (s *store) GetByIDForUpdate(tx dbmodel.TxInterface, itemID string) (*model.Item, error) {
	row := tx.QueryRow(QueryGetItemByIDForUpdate.GetQuery(s.dbClient.DBType()), itemID)

	var item model.Item
	var subStatus, brand, configuration, serialNumber, holderID sql.NullString
	err := row.Scan(
		&item.ItemID, &item.Name, &item.Type, &item.Status, &subStatus,
		&brand, &configuration, &serialNumber, &item.ProductCode,
		&item.Quantity, &holderID, &item.RegisteredTime, &item.UpdatedTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read item for update: %w", err)
	}

	item.SubStatus = nullableString(subStatus)
	item.Brand = nullableString(brand)
	item.Configuration = nullableString(configuration)
	item.SerialNumber = nullableString(serialNumber)
	item.HolderID = nullableString(holderID)

	return &item, nil
}

// List retrieves a paginated list of items, newest first
func (s *store) List(ctx context.Context, limit, offset int) ([]model.Item, error) {
	rows, err := s.dbClient.Query(QueryListItems, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(rows))
	for _, row := range rows {
		if item := mapToItem(row); item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

// SerialNumberExists checks whether another item already carries the serial
func (s *store) SerialNumberExists(ctx context.Context, serialNumber, excludeItemID string) (bool, error) {
	rows, err := s.dbClient.Query(QueryCheckSerialNumberExists, serialNumber, excludeItemID)
	if err != nil {
		return false, err
	}
	if len(rows) > 0 {
		if count, ok := rows[0]["count"].(int64); ok {
			return count > 0, nil
		}
	}
	return false, nil
}

// mapToItem maps a database row to an Item model
func mapToItem(row map[string]interface{}) *model.Item {
	if row == nil {
		return nil
	}

	item := &model.Item{}

	if id, ok := row["ITEM_ID"].(string); ok {
		item.ItemID = id
	}
	if name, ok := row["NAME"].(string); ok {
		item.Name = name
	}
	if itemType, ok := row["TYPE"].(string); ok {
		item.Type = itemType
	}
	if status, ok := row["STATUS"].(string); ok {
		item.Status = status
	}
	item.SubStatus = optionalString(row["SUB_STATUS"])
	item.Brand = optionalString(row["BRAND"])
	item.Configuration = optionalString(row["CONFIGURATION"])
	item.SerialNumber = optionalString(row["SERIAL_NUMBER"])
	if code, ok := row["PRODUCT_CODE"].(string); ok {
		item.ProductCode = code
	}
	item.Quantity = intValue(row["QUANTITY"])
	item.HolderID = optionalString(row["HOLDER_ID"])
	if registered, ok := row["REGISTERED_TIME"].(int64); ok {
		item.RegisteredTime = registered
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		item.UpdatedTime = updated
	}

	return item
}

func optionalString(value interface{}) *string {
	if s, ok := value.(string); ok {
		sCopy := s
		return &sCopy
	}
	return nil
}

func intValue(value interface{}) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func nullableString(ns sql.NullString) *string {
	if ns.Valid {
		value := ns.String
		return &value
	}
	return nil
}
