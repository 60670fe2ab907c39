package changerequest

import (
	crmodel "github.com/inventra/asset-management-api/internal/changerequest/model"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/stores/interfaces"
)

// consentChecker decides whether both sides of a transfer have approved.
// A transfer only applies once the current holder has approved the transfer
// request naming the recipient, and the recipient has approved the receive
// request naming the current holder. All reads go through the caller's
// transaction so the counterpart decision is observed under the item lock.
type consentChecker struct {
	requests interfaces.ChangeRequestStoreInterface
}

func newConsentChecker(requests interfaces.ChangeRequestStoreInterface) *consentChecker {
	return &consentChecker{requests: requests}
}

// bothPartiesApproved reports whether the holder change has approval from
// both the giving and the receiving side. The request being decided right
// now has already been flipped to approved by the caller, so it is visible
// to these queries within the transaction.
func (c *consentChecker) bothPartiesApproved(tx dbmodel.TxInterface, itemID string, holder *itemmodel.HolderChange) (bool, error) {
	if holder == nil || holder.OldID == nil || holder.NewID == nil {
		return false, nil
	}

	giverApproved, err := c.sideApproved(tx, itemID, *holder.OldID, crmodel.ActionTransfer, func(hc *itemmodel.HolderChange) bool {
		return hc.NewID != nil && *hc.NewID == *holder.NewID
	})
	if err != nil {
		return false, err
	}
	if !giverApproved {
		return false, nil
	}

	receiverApproved, err := c.sideApproved(tx, itemID, *holder.NewID, crmodel.ActionReceive, func(hc *itemmodel.HolderChange) bool {
		return hc.OldID != nil && *hc.OldID == *holder.OldID
	})
	if err != nil {
		return false, err
	}

	return receiverApproved, nil
}

// sideApproved reports whether an approved request of the given action
// exists for the owner whose holder change matches the counterpart check.
func (c *consentChecker) sideApproved(tx dbmodel.TxInterface, itemID, ownerID, actionType string, matches func(*itemmodel.HolderChange) bool) (bool, error) {
	approved, err := c.requests.ListApprovedTx(tx, itemID, ownerID, actionType)
	if err != nil {
		return false, err
	}

	for _, request := range approved {
		cs, err := itemmodel.UnmarshalChangeSet(request.ProposedChanges)
		if err != nil {
			// A malformed legacy payload must not block consent checks on
			// well-formed requests.
			continue
		}
		if cs.Holder != nil && matches(cs.Holder) {
			return true, nil
		}
	}

	return false, nil
}
