// Package interfaces defines the persistence contracts shared across
// modules. Services depend on these interfaces so composite flows can be
// tested with fakes and run against any backing store implementation.
package interfaces

import (
	"context"

	crmodel "github.com/inventra/asset-management-api/internal/changerequest/model"
	historymodel "github.com/inventra/asset-management-api/internal/history/model"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	personmodel "github.com/inventra/asset-management-api/internal/person/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
)

// PersonStoreInterface persists the person directory.
type PersonStoreInterface interface {
	Create(tx dbmodel.TxInterface, person *personmodel.Person) error
	GetByPersonnelNumber(ctx context.Context, personnelNumber string) (*personmodel.Person, error)
	List(ctx context.Context, limit, offset int) ([]personmodel.Person, error)
}

// ItemStoreInterface persists items. Tx variants run inside a caller-owned
// transaction; GetByIDForUpdate additionally locks the item row until the
// transaction ends.
type ItemStoreInterface interface {
	Create(tx dbmodel.TxInterface, item *itemmodel.Item) error
	Update(tx dbmodel.TxInterface, item *itemmodel.Item) error
	UpdateHolder(tx dbmodel.TxInterface, itemID string, holderID *string, updatedTime int64) error
	GetByID(ctx context.Context, itemID string) (*itemmodel.Item, error)
	GetByIDForUpdate(tx dbmodel.TxInterface, itemID string) (*itemmodel.Item, error)
	List(ctx context.Context, limit, offset int) ([]itemmodel.Item, error)
	SerialNumberExists(ctx context.Context, serialNumber, excludeItemID string) (bool, error)
}

// HistoryStoreInterface persists the append-only item history ledger.
// Entries are never updated or deleted.
type HistoryStoreInterface interface {
	Create(tx dbmodel.TxInterface, entry *historymodel.Entry) error
	ListByItemID(ctx context.Context, itemID string) ([]historymodel.Entry, error)
}

// ChangeRequestStoreInterface persists change requests and the pending
// bookkeeping the approval engine depends on.
type ChangeRequestStoreInterface interface {
	Create(tx dbmodel.TxInterface, request *crmodel.ChangeRequest) error
	GetByID(ctx context.Context, requestID string) (*crmodel.ChangeRequest, error)
	List(ctx context.Context, filters crmodel.Filters) ([]crmodel.ChangeRequest, error)
	CountByStatus(ctx context.Context, status string) (int64, error)

	// FindPending returns pending requests for the item/owner/action triple,
	// used to avoid duplicate proposals.
	FindPending(ctx context.Context, itemID, ownerID, actionType string) ([]crmodel.ChangeRequest, error)

	// ListApprovedTx returns approved requests for the triple within the
	// caller's transaction; the dual-consent check reads through it so the
	// counterpart decision is observed under the same item lock.
	ListApprovedTx(tx dbmodel.TxInterface, itemID, ownerID, actionType string) ([]crmodel.ChangeRequest, error)

	// MarkResponded flips a request out of pending. It returns false when
	// the request was no longer pending, which makes decisions idempotent
	// under concurrent approval attempts.
	MarkResponded(tx dbmodel.TxInterface, requestID, status string, respondedTime int64) (bool, error)

	// RejectPendingByItem rejects every pending request for the item except
	// the given ones, returning the number invalidated.
	RejectPendingByItem(tx dbmodel.TxInterface, itemID string, excludeRequestIDs []string, respondedTime int64) (int64, error)

	// RejectPendingTriple rejects pending requests for the exact
	// item/owner/action triple. Rejecting one half of a transfer pair uses
	// it to cascade to the counterpart.
	RejectPendingTriple(tx dbmodel.TxInterface, itemID, ownerID, actionType string, respondedTime int64) (int64, error)
}
