package item

import (
	"context"
	"fmt"

	historysvc "github.com/inventra/asset-management-api/internal/history"
	historymodel "github.com/inventra/asset-management-api/internal/history/model"
	"github.com/inventra/asset-management-api/internal/item/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/stores"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// ItemService defines the exported service interface
type ItemService interface {
	CreateItem(ctx context.Context, req model.ItemCreateRequest) (*model.Item, *serviceerror.ServiceError)
	GetItem(ctx context.Context, itemID string) (*model.Item, *serviceerror.ServiceError)
	ListItems(ctx context.Context, limit, offset int) ([]model.Item, *serviceerror.ServiceError)

	// ValidateItem checks item invariants plus serial-number uniqueness.
	// The approval engine calls it before applying approved edits.
	ValidateItem(ctx context.Context, item *model.Item) *serviceerror.ServiceError
}

// itemService implements the ItemService interface
type itemService struct {
	stores  *stores.StoreRegistry
	history historysvc.HistoryService
}

// newItemService creates a new item service
func newItemService(registry *stores.StoreRegistry, history historysvc.HistoryService) ItemService {
	return &itemService{
		stores:  registry,
		history: history,
	}
}

// CreateItem registers a new item. The registration and its opening history
// entry commit in one transaction.
func (s *itemService) CreateItem(ctx context.Context, req model.ItemCreateRequest) (*model.Item, *serviceerror.ServiceError) {
	now := utils.GetCurrentTimeMillis()
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item := &model.Item{
		ItemID:         utils.GenerateUUID(),
		Name:           req.Name,
		Type:           req.Type,
		Status:         req.Status,
		SubStatus:      req.SubStatus,
		Brand:          req.Brand,
		Configuration:  req.Configuration,
		SerialNumber:   req.SerialNumber,
		ProductCode:    req.ProductCode,
		Quantity:       quantity,
		HolderID:       req.HolderID,
		RegisteredTime: now,
		UpdatedTime:    now,
	}

	if svcErr := s.ValidateItem(ctx, item); svcErr != nil {
		return nil, svcErr
	}

	description := req.Description
	if description == "" {
		description = "Initial registration"
	}

	err := s.stores.ExecuteTransaction([]func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.stores.ItemStore.Create(tx, item)
		},
		func(tx dbmodel.TxInterface) error {
			return s.history.RecordTx(tx, item.ItemID, nil, item.HolderID, historymodel.ActionAssign, description)
		},
	})
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to create item: %v", err))
	}

	return item, nil
}

// GetItem retrieves an item by ID
func (s *itemService) GetItem(ctx context.Context, itemID string) (*model.Item, *serviceerror.ServiceError) {
	item, err := s.stores.ItemStore.GetByID(ctx, itemID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to retrieve item: %v", err))
	}
	if item == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("item with ID '%s' not found", itemID))
	}
	return item, nil
}

// ListItems retrieves a paginated list of items
func (s *itemService) ListItems(ctx context.Context, limit, offset int) ([]model.Item, *serviceerror.ServiceError) {
	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.stores.ItemStore.List(ctx, limit, offset)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to list items: %v", err))
	}
	return items, nil
}

// ValidateItem checks the item's invariants, that any referenced holder
// exists, and that the serial number is not used by another item.
func (s *itemService) ValidateItem(ctx context.Context, item *model.Item) *serviceerror.ServiceError {
	if err := item.Validate(); err != nil {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	if item.HolderID != nil && *item.HolderID != "" {
		holder, err := s.stores.PersonStore.GetByPersonnelNumber(ctx, *item.HolderID)
		if err != nil {
			return serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to look up holder: %v", err))
		}
		if holder == nil {
			return serviceerror.CustomServiceError(serviceerror.ValidationError,
				fmt.Sprintf("holder with personnel number '%s' not found", *item.HolderID))
		}
	}

	if item.SerialNumber != nil && *item.SerialNumber != "" {
		exists, err := s.stores.ItemStore.SerialNumberExists(ctx, *item.SerialNumber, item.ItemID)
		if err != nil {
			return serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to check serial number: %v", err))
		}
		if exists {
			return serviceerror.CustomServiceError(serviceerror.ConflictError,
				fmt.Sprintf("serial number '%s' is already registered", *item.SerialNumber))
		}
	}

	return nil
}
