package changerequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/inventra/asset-management-api/internal/changerequest/model"
	historysvc "github.com/inventra/asset-management-api/internal/history"
	historymodel "github.com/inventra/asset-management-api/internal/history/model"
	itemsvc "github.com/inventra/asset-management-api/internal/item"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/log"
	"github.com/inventra/asset-management-api/internal/system/stores"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// errRollback aborts a transaction whose failure is already captured as a
// service error.
var errRollback = errors.New("transaction aborted")

// ChangeRequestService defines the exported service interface. It owns the
// consent workflow: proposing item changes, deciding requests, and the
// admin-forced paths.
type ChangeRequestService interface {
	ProposeItemUpdate(ctx context.Context, itemID string, req itemmodel.ItemUpdateRequest, adminUser, description string) (*model.ProposeResult, *serviceerror.ServiceError)
	GetRequest(ctx context.Context, requestID string) (*model.ChangeRequest, *serviceerror.ServiceError)
	ListRequests(ctx context.Context, filters model.Filters) ([]model.ChangeRequest, *serviceerror.ServiceError)
	StatusCounts(ctx context.Context) (map[string]int64, *serviceerror.ServiceError)

	Approve(ctx context.Context, requestID, actorID string) (*model.DecisionResult, *serviceerror.ServiceError)
	Reject(ctx context.Context, requestID, actorID string) (*model.DecisionResult, *serviceerror.ServiceError)
	ForceApprove(ctx context.Context, requestID, adminUser string) (*model.DecisionResult, *serviceerror.ServiceError)
	AdminReject(ctx context.Context, requestID, adminUser string) (*model.DecisionResult, *serviceerror.ServiceError)

	BulkTransfer(ctx context.Context, req model.BulkTransferRequest, adminUser string) (*model.BulkTransferResult, *serviceerror.ServiceError)
}

// changeRequestService implements the ChangeRequestService interface
type changeRequestService struct {
	stores  *stores.StoreRegistry
	items   itemsvc.ItemService
	history historysvc.HistoryService
	consent *consentChecker
	logger  *log.Logger
}

// newChangeRequestService creates a new change request service
func newChangeRequestService(registry *stores.StoreRegistry, items itemsvc.ItemService, history historysvc.HistoryService) ChangeRequestService {
	return &changeRequestService{
		stores:  registry,
		items:   items,
		history: history,
		consent: newConsentChecker(registry.ChangeRequestStore),
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ChangeRequestService")),
	}
}

// ProposeItemUpdate diffs the submitted item state against the current
// record. Field-only changes to an unowned item apply immediately; giving an
// unowned item a holder creates an assign request for the prospective holder.
// Changes to an owned item become change requests awaiting the holder's
// consent; a holder change additionally needs the recipient's consent through
// a paired receive request.
func (s *changeRequestService) ProposeItemUpdate(ctx context.Context, itemID string, req itemmodel.ItemUpdateRequest, adminUser, description string) (*model.ProposeResult, *serviceerror.ServiceError) {
	current, err := s.stores.ItemStore.GetByID(ctx, itemID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to retrieve item: %v", err))
	}
	if current == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("item with ID '%s' not found", itemID))
	}

	quantity := current.Quantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	proposed := &itemmodel.Item{
		ItemID:         current.ItemID,
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
		RegisteredTime: current.RegisteredTime,
		UpdatedTime:    current.UpdatedTime,
	}

	if svcErr := s.items.ValidateItem(ctx, proposed); svcErr != nil {
		return nil, svcErr
	}

	fields := itemmodel.DiffFields(current, proposed)
	holderChanged := !equalPtr(current.HolderID, proposed.HolderID)

	if len(fields) == 0 && !holderChanged {
		return &model.ProposeResult{Applied: false, Message: "No changes detected."}, nil
	}

	// Field-only edits to an unowned item need nobody's consent. Giving an
	// unowned item a holder still goes through an assign request so the
	// prospective holder consents to the custody.
	if current.HolderID == nil && !holderChanged {
		if svcErr := s.applyDirect(proposed); svcErr != nil {
			return nil, svcErr
		}
		return &model.ProposeResult{Applied: true, Message: "Changes applied."}, nil
	}

	changeSet := &itemmodel.ChangeSet{Fields: fields}
	if holderChanged {
		holderChange, svcErr := s.buildHolderChange(ctx, current.HolderID, proposed.HolderID)
		if svcErr != nil {
			return nil, svcErr
		}
		changeSet.Holder = holderChange
	}

	requests, svcErr := s.createRequests(ctx, current, changeSet, holderChanged, adminUser, description)
	if svcErr != nil {
		return nil, svcErr
	}
	if len(requests) == 0 {
		return &model.ProposeResult{Applied: false, Message: "Matching change requests are already pending."}, nil
	}

	return &model.ProposeResult{
		Applied:  false,
		Requests: requests,
		Message:  "Change requests created; awaiting holder consent.",
	}, nil
}

// applyDirect writes field-only changes to an unowned item.
func (s *changeRequestService) applyDirect(proposed *itemmodel.Item) *serviceerror.ServiceError {
	proposed.UpdatedTime = utils.GetCurrentTimeMillis()

	err := s.stores.WithTransaction(func(tx dbmodel.TxInterface) error {
		return s.stores.ItemStore.Update(tx, proposed)
	})
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to apply changes: %v", err))
	}
	return nil
}

// buildHolderChange resolves both sides of a holder transition to display
// names for the audit trail.
func (s *changeRequestService) buildHolderChange(ctx context.Context, oldID, newID *string) (*itemmodel.HolderChange, *serviceerror.ServiceError) {
	change := &itemmodel.HolderChange{OldID: oldID, NewID: newID}

	for _, side := range []struct {
		id   *string
		name **string
	}{
		{oldID, &change.Old},
		{newID, &change.New},
	} {
		if side.id == nil {
			continue
		}
		person, err := s.stores.PersonStore.GetByPersonnelNumber(ctx, *side.id)
		if err != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to look up person: %v", err))
		}
		if person == nil {
			return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
				fmt.Sprintf("person with personnel number '%s' not found", *side.id))
		}
		name := person.FullName()
		*side.name = &name
	}

	return change, nil
}

// createRequests persists the change requests for a proposed change. A
// holder change towards another person creates the transfer/receive pair in
// one transaction; setting a holder on an unowned item creates an assign
// request for the prospective holder; a holder removal creates a remove
// request; anything else is an edit request for the current holder. Triples
// that already have a pending request are skipped.
func (s *changeRequestService) createRequests(ctx context.Context, current *itemmodel.Item, changeSet *itemmodel.ChangeSet, holderChanged bool, adminUser, description string) ([]model.ChangeRequest, *serviceerror.ServiceError) {
	raw, err := changeSet.Marshal()
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, err.Error())
	}

	now := utils.GetCurrentTimeMillis()
	var planned []model.ChangeRequest

	newRequest := func(ownerID, actionType string) model.ChangeRequest {
		return model.ChangeRequest{
			RequestID:       utils.GenerateUUID(),
			ItemID:          current.ItemID,
			OwnerID:         ownerID,
			AdminUser:       adminUser,
			ActionType:      actionType,
			Status:          model.StatusPending,
			ProposedChanges: raw,
			Description:     description,
			CreatedTime:     now,
		}
	}

	switch {
	case holderChanged && current.HolderID == nil:
		planned = append(planned, newRequest(*changeSet.Holder.NewID, model.ActionAssign))
	case holderChanged && changeSet.Holder.NewID == nil:
		planned = append(planned, newRequest(*current.HolderID, model.ActionRemove))
	case holderChanged:
		planned = append(planned,
			newRequest(*current.HolderID, model.ActionTransfer),
			newRequest(*changeSet.Holder.NewID, model.ActionReceive))
	default:
		planned = append(planned, newRequest(*current.HolderID, model.ActionEdit))
	}

	var toCreate []model.ChangeRequest
	for _, request := range planned {
		pending, err := s.stores.ChangeRequestStore.FindPending(ctx, request.ItemID, request.OwnerID, request.ActionType)
		if err != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to check pending requests: %v", err))
		}
		if len(pending) > 0 {
			continue
		}
		toCreate = append(toCreate, request)
	}
	if len(toCreate) == 0 {
		return nil, nil
	}

	queries := make([]func(tx dbmodel.TxInterface) error, 0, len(toCreate))
	for i := range toCreate {
		request := toCreate[i]
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return s.stores.ChangeRequestStore.Create(tx, &request)
		})
	}
	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to create change requests: %v", err))
	}

	s.logger.Info("Change requests created",
		log.String("item_id", current.ItemID),
		log.Int("count", len(toCreate)))

	return toCreate, nil
}

// GetRequest retrieves a change request by ID
func (s *changeRequestService) GetRequest(ctx context.Context, requestID string) (*model.ChangeRequest, *serviceerror.ServiceError) {
	request, err := s.stores.ChangeRequestStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to retrieve change request: %v", err))
	}
	if request == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("change request with ID '%s' not found", requestID))
	}
	return request, nil
}

// ListRequests retrieves change requests matching the filters
func (s *changeRequestService) ListRequests(ctx context.Context, filters model.Filters) ([]model.ChangeRequest, *serviceerror.ServiceError) {
	if filters.Status != "" && !model.ValidStatus(filters.Status) {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("unknown status filter '%s'", filters.Status))
	}
	if filters.ActionType != "" && !model.ValidActionType(filters.ActionType) {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("unknown action filter '%s'", filters.ActionType))
	}

	requests, err := s.stores.ChangeRequestStore.List(ctx, filters)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to list change requests: %v", err))
	}
	return requests, nil
}

// StatusCounts tallies change requests per status for the listing dashboard.
func (s *changeRequestService) StatusCounts(ctx context.Context) (map[string]int64, *serviceerror.ServiceError) {
	counts := make(map[string]int64, 3)
	for _, status := range []string{model.StatusPending, model.StatusApproved, model.StatusRejected} {
		count, err := s.stores.ChangeRequestStore.CountByStatus(ctx, status)
		if err != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to count change requests: %v", err))
		}
		counts[status] = count
	}
	return counts, nil
}

// BulkTransfer moves a batch of items towards one recipient. Unowned items
// are assigned directly; owned items get a transfer/receive pair. Items are
// processed independently so one failure does not abort the batch.
func (s *changeRequestService) BulkTransfer(ctx context.Context, req model.BulkTransferRequest, adminUser string) (*model.BulkTransferResult, *serviceerror.ServiceError) {
	recipient, err := s.stores.PersonStore.GetByPersonnelNumber(ctx, req.ToPersonID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to look up recipient: %v", err))
	}
	if recipient == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("person with personnel number '%s' not found", req.ToPersonID))
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Bulk transfer to %s", recipient.FullName())
	}

	result := &model.BulkTransferResult{}
	for _, itemID := range req.ItemIDs {
		item, err := s.stores.ItemStore.GetByID(ctx, itemID)
		if err != nil || item == nil {
			result.Skipped = append(result.Skipped, itemID)
			continue
		}
		if item.HolderID != nil && *item.HolderID == req.ToPersonID {
			result.Skipped = append(result.Skipped, itemID)
			continue
		}

		if item.HolderID == nil {
			now := utils.GetCurrentTimeMillis()
			txErr := s.stores.WithTransaction(func(tx dbmodel.TxInterface) error {
				if err := s.history.RecordTx(tx, item.ItemID, nil, &req.ToPersonID, historymodel.ActionAssign, description); err != nil {
					return err
				}
				if err := s.stores.ItemStore.UpdateHolder(tx, item.ItemID, &req.ToPersonID, now); err != nil {
					return err
				}
				_, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now)
				return err
			})
			if txErr != nil {
				result.Skipped = append(result.Skipped, itemID)
				continue
			}
			result.DirectAssigned++
			continue
		}

		holderChange, svcErr := s.buildHolderChange(ctx, item.HolderID, &req.ToPersonID)
		if svcErr != nil {
			result.Skipped = append(result.Skipped, itemID)
			continue
		}
		changeSet := &itemmodel.ChangeSet{
			Fields: map[itemmodel.ItemFieldID]itemmodel.FieldChange{},
			Holder: holderChange,
		}
		created, svcErr := s.createRequests(ctx, item, changeSet, true, adminUser, description)
		if svcErr != nil {
			result.Skipped = append(result.Skipped, itemID)
			continue
		}
		result.RequestsCreated += len(created)
	}

	return result, nil
}

func equalPtr(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
