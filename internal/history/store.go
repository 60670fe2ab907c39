package history

import (
	"context"

	"github.com/inventra/asset-management-api/internal/history/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/database/provider"
	"github.com/inventra/asset-management-api/internal/system/stores/interfaces"
)

// DBQuery objects for the item history ledger. The ledger is append-only;
// there are no update or delete statements.
var (
	QueryCreateHistoryEntry = dbmodel.DBQuery{
		ID:    "CREATE_ITEM_HISTORY",
		Query: "INSERT INTO ITEM_HISTORY (HISTORY_ID, ITEM_ID, FROM_PERSON, TO_PERSON, ACTION_TYPE, DESCRIPTION, ACTION_TIME, CREATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryListHistoryByItemID = dbmodel.DBQuery{
		ID:    "LIST_ITEM_HISTORY_BY_ITEM_ID",
		Query: "SELECT HISTORY_ID, ITEM_ID, FROM_PERSON, TO_PERSON, ACTION_TYPE, DESCRIPTION, ACTION_TIME, CREATED_TIME FROM ITEM_HISTORY WHERE ITEM_ID = ? ORDER BY ACTION_TIME DESC, CREATED_TIME DESC",
	}
)

// store implements interfaces.HistoryStoreInterface
type store struct {
	dbClient provider.DBClientInterface
}

// newHistoryStore creates a new history store
func newHistoryStore(dbClient provider.DBClientInterface) interfaces.HistoryStoreInterface {
	return &store{
		dbClient: dbClient,
	}
}

// Create appends a history entry within a transaction
func (s *store) Create(tx dbmodel.TxInterface, entry *model.Entry) error {
	_, err := tx.Exec(QueryCreateHistoryEntry.Query,
		entry.HistoryID, entry.ItemID, entry.FromPerson, entry.ToPerson,
		entry.ActionType, entry.Description, entry.ActionTime, entry.CreatedTime)
	return err
}

// ListByItemID retrieves the history for an item, newest first
func (s *store) ListByItemID(ctx context.Context, itemID string) ([]model.Entry, error) {
	rows, err := s.dbClient.Query(QueryListHistoryByItemID, itemID)
	if err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(rows))
	for _, row := range rows {
		if e := mapToEntry(row); e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// mapToEntry maps a database row to a history Entry model
func mapToEntry(row map[string]interface{}) *model.Entry {
	if row == nil {
		return nil
	}

	entry := &model.Entry{}

	if id, ok := row["HISTORY_ID"].(string); ok {
		entry.HistoryID = id
	}
	if itemID, ok := row["ITEM_ID"].(string); ok {
		entry.ItemID = itemID
	}
	if from, ok := row["FROM_PERSON"].(string); ok {
		fromCopy := from
		entry.FromPerson = &fromCopy
	}
	if to, ok := row["TO_PERSON"].(string); ok {
		toCopy := to
		entry.ToPerson = &toCopy
	}
	if action, ok := row["ACTION_TYPE"].(string); ok {
		entry.ActionType = action
	}
	if desc, ok := row["DESCRIPTION"].(string); ok {
		entry.Description = desc
	}
	if actionTime, ok := row["ACTION_TIME"].(int64); ok {
		entry.ActionTime = actionTime
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		entry.CreatedTime = created
	}

	return entry
}
