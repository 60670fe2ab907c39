package history

import (
	"context"
	"fmt"

	"github.com/inventra/asset-management-api/internal/history/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/stores"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// HistoryService defines the exported service interface. Entries are only
// appended, never modified; writes happen inside the caller's transaction
// so custody records commit atomically with the item change they describe.
type HistoryService interface {
	RecordTx(tx dbmodel.TxInterface, itemID string, fromPerson, toPerson *string, actionType, description string) error
	GetItemHistory(ctx context.Context, itemID string) ([]model.Entry, *serviceerror.ServiceError)
}

// historyService implements the HistoryService interface
type historyService struct {
	stores *stores.StoreRegistry
}

// newHistoryService creates a new history service
func newHistoryService(registry *stores.StoreRegistry) HistoryService {
	return &historyService{
		stores: registry,
	}
}

// RecordTx appends a history entry within the caller's transaction
func (s *historyService) RecordTx(tx dbmodel.TxInterface, itemID string, fromPerson, toPerson *string, actionType, description string) error {
	if !model.ValidActionType(actionType) {
		return fmt.Errorf("unknown history action type %q", actionType)
	}

	now := utils.GetCurrentTimeMillis()
	entry := &model.Entry{
		HistoryID:   utils.GenerateUUID(),
		ItemID:      itemID,
		FromPerson:  fromPerson,
		ToPerson:    toPerson,
		ActionType:  actionType,
		Description: description,
		ActionTime:  now,
		CreatedTime: now,
	}

	return s.stores.HistoryStore.Create(tx, entry)
}

// GetItemHistory retrieves the full history for an item
func (s *historyService) GetItemHistory(ctx context.Context, itemID string) ([]model.Entry, *serviceerror.ServiceError) {
	item, err := s.stores.ItemStore.GetByID(ctx, itemID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to retrieve item: %v", err))
	}
	if item == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("item with ID '%s' not found", itemID))
	}

	entries, err := s.stores.HistoryStore.ListByItemID(ctx, itemID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to list item history: %v", err))
	}
	return entries, nil
}
