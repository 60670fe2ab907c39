package changerequest

import (
	"context"
	"fmt"

	"github.com/inventra/asset-management-api/internal/changerequest/model"
	historymodel "github.com/inventra/asset-management-api/internal/history/model"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/log"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// Approve records the owner's consent on a pending request and applies the
// outcome once every required consent is present. The whole decision runs
// under the item's row lock: the status flip, the counterpart consent check,
// the item update, and the history entry commit or roll back together.
func (s *changeRequestService) Approve(ctx context.Context, requestID, actorID string) (*model.DecisionResult, *serviceerror.ServiceError) {
	request, svcErr := s.GetRequest(ctx, requestID)
	if svcErr != nil {
		return nil, svcErr
	}
	if request.OwnerID != actorID {
		return nil, serviceerror.CustomServiceError(serviceerror.UnauthorizedError,
			"only the request owner can respond to this request")
	}
	if request.Status != model.StatusPending {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
			fmt.Sprintf("request is already %s", request.Status))
	}

	changeSet, err := itemmodel.UnmarshalChangeSet(request.ProposedChanges)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, err.Error())
	}
	if request.ActionType == model.ActionTransfer || request.ActionType == model.ActionReceive {
		if svcErr := validateTransferChangeSet(changeSet); svcErr != nil {
			return nil, svcErr
		}
	}

	now := utils.GetCurrentTimeMillis()
	var result *model.DecisionResult

	txErr := s.stores.WithTransaction(func(tx dbmodel.TxInterface) error {
		item, err := s.stores.ItemStore.GetByIDForUpdate(tx, request.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			svcErr = serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
				fmt.Sprintf("item with ID '%s' not found", request.ItemID))
			return errRollback
		}

		flipped, err := s.stores.ChangeRequestStore.MarkResponded(tx, request.RequestID, model.StatusApproved, now)
		if err != nil {
			return err
		}
		if !flipped {
			svcErr = serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
				"request has already been decided")
			return errRollback
		}

		switch request.ActionType {
		case model.ActionTransfer, model.ActionReceive:
			both, err := s.consent.bothPartiesApproved(tx, item.ItemID, changeSet.Holder)
			if err != nil {
				return err
			}
			if !both {
				result = &model.DecisionResult{
					RequestID: request.RequestID,
					Status:    model.StatusApproved,
					Applied:   false,
					Message: fmt.Sprintf("Request approved. The item remains with %s until the other party also approves.",
						holderDisplay(changeSet.Holder.Old, changeSet.Holder.OldID)),
				}
				return nil
			}

			itemmodel.ApplyFields(item, changeSet.Fields)
			if err := item.Validate(); err != nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
				return errRollback
			}
			if err := s.applyHolderChange(tx, item, changeSet.Holder.OldID, changeSet.Holder.NewID,
				historymodel.ActionTransfer, decisionDescription(request, "Transfer approved by both parties"), now); err != nil {
				return err
			}
			if _, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now); err != nil {
				return err
			}
			result = &model.DecisionResult{
				RequestID: request.RequestID,
				Status:    model.StatusApproved,
				Applied:   true,
				Message: fmt.Sprintf("Transfer completed. The item now belongs to %s.",
					holderDisplay(changeSet.Holder.New, changeSet.Holder.NewID)),
			}

		case model.ActionRemove:
			itemmodel.ApplyFields(item, changeSet.Fields)
			if err := item.Validate(); err != nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
				return errRollback
			}
			from := item.HolderID
			if changeSet.Holder != nil {
				from = changeSet.Holder.OldID
			}
			if err := s.applyHolderChange(tx, item, from, nil,
				historymodel.ActionReturn, decisionDescription(request, "Item returned"), now); err != nil {
				return err
			}
			if _, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now); err != nil {
				return err
			}
			result = &model.DecisionResult{
				RequestID: request.RequestID,
				Status:    model.StatusApproved,
				Applied:   true,
				Message:   "Item returned. It no longer has a holder.",
			}

		case model.ActionAssign:
			if item.HolderID != nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
					"item has already been assigned to a holder")
				return errRollback
			}
			if changeSet.Holder == nil || changeSet.Holder.NewID == nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.InternalServerError,
					"assign request carries no target holder")
				return errRollback
			}
			itemmodel.ApplyFields(item, changeSet.Fields)
			if err := item.Validate(); err != nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
				return errRollback
			}
			if err := s.applyHolderChange(tx, item, nil, changeSet.Holder.NewID,
				historymodel.ActionAssign, decisionDescription(request, "Assignment approved"), now); err != nil {
				return err
			}
			if _, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now); err != nil {
				return err
			}
			result = &model.DecisionResult{
				RequestID: request.RequestID,
				Status:    model.StatusApproved,
				Applied:   true,
				Message: fmt.Sprintf("Item assigned to %s.",
					holderDisplay(changeSet.Holder.New, changeSet.Holder.NewID)),
			}

		case model.ActionEdit:
			// An edit carrying a holder change between two persons is a
			// transfer in disguise and needs the same two consents.
			if holderTransition(changeSet.Holder) {
				both, err := s.consent.bothPartiesApproved(tx, item.ItemID, changeSet.Holder)
				if err != nil {
					return err
				}
				if !both {
					result = &model.DecisionResult{
						RequestID: request.RequestID,
						Status:    model.StatusApproved,
						Applied:   false,
						Message: fmt.Sprintf("Request approved. The item remains with %s until the other party also approves.",
							holderDisplay(changeSet.Holder.Old, changeSet.Holder.OldID)),
					}
					return nil
				}

				itemmodel.ApplyFields(item, changeSet.Fields)
				if err := item.Validate(); err != nil {
					svcErr = serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
					return errRollback
				}
				if err := s.applyHolderChange(tx, item, changeSet.Holder.OldID, changeSet.Holder.NewID,
					historymodel.ActionTransfer, decisionDescription(request, "Edit approved"), now); err != nil {
					return err
				}
				if _, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now); err != nil {
					return err
				}
				result = &model.DecisionResult{
					RequestID: request.RequestID,
					Status:    model.StatusApproved,
					Applied:   true,
					Message:   "Changes applied to the item.",
				}
				return nil
			}

			itemmodel.ApplyFields(item, changeSet.Fields)
			if err := item.Validate(); err != nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
				return errRollback
			}
			from := item.HolderID
			holderSet := changeSet.Holder != nil && changeSet.Holder.OldID == nil && changeSet.Holder.NewID != nil
			if holderSet {
				item.HolderID = changeSet.Holder.NewID
			}
			item.UpdatedTime = now
			if err := s.stores.ItemStore.Update(tx, item); err != nil {
				return err
			}
			if err := s.history.RecordTx(tx, item.ItemID, from, item.HolderID,
				historymodel.ActionOther, decisionDescription(request, "Item details updated")); err != nil {
				return err
			}
			if holderSet {
				if _, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now); err != nil {
					return err
				}
			}
			result = &model.DecisionResult{
				RequestID: request.RequestID,
				Status:    model.StatusApproved,
				Applied:   true,
				Message:   "Changes applied to the item.",
			}

		default:
			svcErr = serviceerror.CustomServiceError(serviceerror.InvalidRequestError,
				fmt.Sprintf("unknown request action '%s'", request.ActionType))
			return errRollback
		}

		return nil
	})

	if txErr != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to approve request: %v", txErr))
	}

	s.logger.Info("Change request approved",
		log.String("request_id", request.RequestID),
		log.String("item_id", request.ItemID),
		log.Bool("applied", result.Applied))

	return result, nil
}

// Reject records the owner's refusal. Rejecting one half of a transfer pair
// cascades to the pending counterpart so no half-consented request lingers.
func (s *changeRequestService) Reject(ctx context.Context, requestID, actorID string) (*model.DecisionResult, *serviceerror.ServiceError) {
	request, svcErr := s.GetRequest(ctx, requestID)
	if svcErr != nil {
		return nil, svcErr
	}
	if request.OwnerID != actorID {
		return nil, serviceerror.CustomServiceError(serviceerror.UnauthorizedError,
			"only the request owner can respond to this request")
	}
	if request.Status != model.StatusPending {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
			fmt.Sprintf("request is already %s", request.Status))
	}

	return s.rejectPending(ctx, request)
}

// ForceApprove applies a pending request without consent checks. It is the
// one administrative escape hatch; every outcome it writes is attributed to
// the admin in the item history.
func (s *changeRequestService) ForceApprove(ctx context.Context, requestID, adminUser string) (*model.DecisionResult, *serviceerror.ServiceError) {
	if adminUser == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "admin user is required")
	}

	request, svcErr := s.GetRequest(ctx, requestID)
	if svcErr != nil {
		return nil, svcErr
	}
	if request.Status != model.StatusPending {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
			fmt.Sprintf("request is already %s", request.Status))
	}

	changeSet, err := itemmodel.UnmarshalChangeSet(request.ProposedChanges)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, err.Error())
	}
	if request.ActionType == model.ActionTransfer || request.ActionType == model.ActionReceive {
		if svcErr := validateTransferChangeSet(changeSet); svcErr != nil {
			return nil, svcErr
		}
	}

	now := utils.GetCurrentTimeMillis()
	description := fmt.Sprintf("Forced by admin %s", adminUser)
	if request.Description != "" {
		description = fmt.Sprintf("%s; forced by admin %s", request.Description, adminUser)
	}
	var result *model.DecisionResult

	txErr := s.stores.WithTransaction(func(tx dbmodel.TxInterface) error {
		item, err := s.stores.ItemStore.GetByIDForUpdate(tx, request.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			svcErr = serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
				fmt.Sprintf("item with ID '%s' not found", request.ItemID))
			return errRollback
		}

		flipped, err := s.stores.ChangeRequestStore.MarkResponded(tx, request.RequestID, model.StatusApproved, now)
		if err != nil {
			return err
		}
		if !flipped {
			svcErr = serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
				"request has already been decided")
			return errRollback
		}

		itemmodel.ApplyFields(item, changeSet.Fields)
		if err := item.Validate(); err != nil {
			svcErr = serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
			return errRollback
		}

		holderChanged := false
		switch request.ActionType {
		case model.ActionTransfer, model.ActionReceive:
			if err := s.applyHolderChange(tx, item, changeSet.Holder.OldID, changeSet.Holder.NewID,
				historymodel.ActionTransfer, description, now); err != nil {
				return err
			}
			holderChanged = true

		case model.ActionRemove:
			if err := s.applyHolderChange(tx, item, item.HolderID, nil,
				historymodel.ActionReturn, description, now); err != nil {
				return err
			}
			holderChanged = true

		case model.ActionAssign:
			if changeSet.Holder == nil || changeSet.Holder.NewID == nil {
				svcErr = serviceerror.CustomServiceError(serviceerror.InternalServerError,
					"assign request carries no target holder")
				return errRollback
			}
			action := historymodel.ActionAssign
			if item.HolderID != nil {
				action = historymodel.ActionTransfer
			}
			if err := s.applyHolderChange(tx, item, item.HolderID, changeSet.Holder.NewID,
				action, description, now); err != nil {
				return err
			}
			holderChanged = true

		case model.ActionEdit:
			if changeSet.Holder != nil {
				if err := s.applyHolderChange(tx, item, changeSet.Holder.OldID, changeSet.Holder.NewID,
					historymodel.ActionTransfer, description, now); err != nil {
					return err
				}
				holderChanged = true
			} else {
				item.UpdatedTime = now
				if err := s.stores.ItemStore.Update(tx, item); err != nil {
					return err
				}
				if err := s.history.RecordTx(tx, item.ItemID, item.HolderID, item.HolderID,
					historymodel.ActionOther, description); err != nil {
					return err
				}
			}

		default:
			svcErr = serviceerror.CustomServiceError(serviceerror.InvalidRequestError,
				fmt.Sprintf("unknown request action '%s'", request.ActionType))
			return errRollback
		}

		if holderChanged {
			if _, err := s.stores.ChangeRequestStore.RejectPendingByItem(tx, item.ItemID, nil, now); err != nil {
				return err
			}
		}

		result = &model.DecisionResult{
			RequestID: request.RequestID,
			Status:    model.StatusApproved,
			Applied:   true,
			Message:   fmt.Sprintf("Request force-approved by admin %s.", adminUser),
		}
		return nil
	})

	if txErr != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to force-approve request: %v", txErr))
	}

	s.logger.Info("Change request force-approved",
		log.String("request_id", request.RequestID),
		log.String("admin_user", adminUser))

	return result, nil
}

// AdminReject rejects a pending request on behalf of an administrator.
func (s *changeRequestService) AdminReject(ctx context.Context, requestID, adminUser string) (*model.DecisionResult, *serviceerror.ServiceError) {
	if adminUser == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "admin user is required")
	}

	request, svcErr := s.GetRequest(ctx, requestID)
	if svcErr != nil {
		return nil, svcErr
	}
	if request.Status != model.StatusPending {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
			fmt.Sprintf("request is already %s", request.Status))
	}

	return s.rejectPending(ctx, request)
}

// rejectPending flips a pending request to rejected and cascades to the
// counterpart half of a transfer pair.
func (s *changeRequestService) rejectPending(ctx context.Context, request *model.ChangeRequest) (*model.DecisionResult, *serviceerror.ServiceError) {
	changeSet, err := itemmodel.UnmarshalChangeSet(request.ProposedChanges)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, err.Error())
	}

	now := utils.GetCurrentTimeMillis()
	var svcErr *serviceerror.ServiceError
	var cascaded int64

	txErr := s.stores.WithTransaction(func(tx dbmodel.TxInterface) error {
		item, err := s.stores.ItemStore.GetByIDForUpdate(tx, request.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			svcErr = serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
				fmt.Sprintf("item with ID '%s' not found", request.ItemID))
			return errRollback
		}

		flipped, err := s.stores.ChangeRequestStore.MarkResponded(tx, request.RequestID, model.StatusRejected, now)
		if err != nil {
			return err
		}
		if !flipped {
			svcErr = serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
				"request has already been decided")
			return errRollback
		}

		if changeSet.Holder != nil {
			switch request.ActionType {
			case model.ActionTransfer:
				if changeSet.Holder.NewID != nil {
					cascaded, err = s.stores.ChangeRequestStore.RejectPendingTriple(tx,
						request.ItemID, *changeSet.Holder.NewID, model.ActionReceive, now)
				}
			case model.ActionReceive:
				if changeSet.Holder.OldID != nil {
					cascaded, err = s.stores.ChangeRequestStore.RejectPendingTriple(tx,
						request.ItemID, *changeSet.Holder.OldID, model.ActionTransfer, now)
				}
			}
			if err != nil {
				return err
			}
		}

		return nil
	})

	if txErr != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to reject request: %v", txErr))
	}

	message := "Request rejected."
	if cascaded > 0 {
		message = "Request rejected. The paired request was rejected as well."
	}

	s.logger.Info("Change request rejected",
		log.String("request_id", request.RequestID),
		log.Int64("cascaded", cascaded))

	return &model.DecisionResult{
		RequestID: request.RequestID,
		Status:    model.StatusRejected,
		Applied:   false,
		Message:   message,
	}, nil
}

// applyHolderChange moves the item to a new holder: the custody entry and
// the item update share the caller's transaction.
func (s *changeRequestService) applyHolderChange(tx dbmodel.TxInterface, item *itemmodel.Item, from, to *string, actionType, description string, now int64) error {
	if err := s.history.RecordTx(tx, item.ItemID, from, to, actionType, description); err != nil {
		return err
	}
	item.HolderID = to
	item.UpdatedTime = now
	return s.stores.ItemStore.Update(tx, item)
}

// validateTransferChangeSet rejects transfer and receive requests whose
// proposed changes do not identify both sides of the holder change. Such a
// request can never gather consent and must not flip to approved.
func validateTransferChangeSet(changeSet *itemmodel.ChangeSet) *serviceerror.ServiceError {
	if changeSet.Holder == nil || changeSet.Holder.OldID == nil || changeSet.Holder.NewID == nil {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestStateError,
			"request does not identify both the current and the new holder")
	}
	return nil
}

// holderTransition reports whether the holder change moves the item between
// two distinct persons.
func holderTransition(holder *itemmodel.HolderChange) bool {
	return holder != nil && holder.OldID != nil && holder.NewID != nil && *holder.OldID != *holder.NewID
}

// decisionDescription prefers the request's own description for the history
// entry, falling back to a generic one.
func decisionDescription(request *model.ChangeRequest, fallback string) string {
	if request.Description != "" {
		return request.Description
	}
	return fallback
}

// holderDisplay prefers a resolved display name over the raw personnel
// number.
func holderDisplay(name, id *string) string {
	if name != nil && *name != "" {
		return *name
	}
	if id != nil {
		return *id
	}
	return "the warehouse"
}
