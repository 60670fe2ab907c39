package changerequest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	crmodel "github.com/inventra/asset-management-api/internal/changerequest/model"
	historymodel "github.com/inventra/asset-management-api/internal/history/model"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	personmodel "github.com/inventra/asset-management-api/internal/person/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// In-memory fakes for the store interfaces. The engine only talks to
// stores, so the transaction handle is a recording stub; rollback
// guarantees are asserted through the fake client's counters.

type fakeResult struct{ affected int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return fakeResult{}, nil
}

func (t *fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("raw queries are not expected in engine tests")
}

func (t *fakeTx) QueryRow(query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error   { t.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.rolledBack = true; return nil }

type fakeDBClient struct {
	commits   int
	rollbacks int
}

func (c *fakeDBClient) Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error) {
	return nil, errors.New("direct queries are not expected in engine tests")
}

func (c *fakeDBClient) Execute(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error) {
	return nil, errors.New("direct statements are not expected in engine tests")
}

func (c *fakeDBClient) BeginTx() (dbmodel.TxInterface, error) {
	return &trackedTx{client: c}, nil
}

func (c *fakeDBClient) DBType() string { return "mysql" }

type trackedTx struct {
	fakeTx
	client *fakeDBClient
}

func (t *trackedTx) Commit() error {
	t.client.commits++
	return t.fakeTx.Commit()
}

func (t *trackedTx) Rollback() error {
	t.client.rollbacks++
	return t.fakeTx.Rollback()
}

type fakePersonStore struct {
	persons map[string]*personmodel.Person
}

func newFakePersonStore(persons ...*personmodel.Person) *fakePersonStore {
	s := &fakePersonStore{persons: make(map[string]*personmodel.Person)}
	for _, p := range persons {
		s.persons[p.PersonnelNumber] = p
	}
	return s
}

func (s *fakePersonStore) Create(tx dbmodel.TxInterface, person *personmodel.Person) error {
	s.persons[person.PersonnelNumber] = person
	return nil
}

func (s *fakePersonStore) GetByPersonnelNumber(ctx context.Context, personnelNumber string) (*personmodel.Person, error) {
	return s.persons[personnelNumber], nil
}

func (s *fakePersonStore) List(ctx context.Context, limit, offset int) ([]personmodel.Person, error) {
	var out []personmodel.Person
	for _, p := range s.persons {
		out = append(out, *p)
	}
	return out, nil
}

type fakeItemStore struct {
	items map[string]*itemmodel.Item
}

func newFakeItemStore(items ...*itemmodel.Item) *fakeItemStore {
	s := &fakeItemStore{items: make(map[string]*itemmodel.Item)}
	for _, item := range items {
		s.items[item.ItemID] = copyItem(item)
	}
	return s
}

func copyItem(item *itemmodel.Item) *itemmodel.Item {
	dup := *item
	return &dup
}

func (s *fakeItemStore) Create(tx dbmodel.TxInterface, item *itemmodel.Item) error {
	s.items[item.ItemID] = copyItem(item)
	return nil
}

func (s *fakeItemStore) Update(tx dbmodel.TxInterface, item *itemmodel.Item) error {
	s.items[item.ItemID] = copyItem(item)
	return nil
}

func (s *fakeItemStore) UpdateHolder(tx dbmodel.TxInterface, itemID string, holderID *string, updatedTime int64) error {
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("item %s not found", itemID)
	}
	item.HolderID = holderID
	item.UpdatedTime = updatedTime
	return nil
}

func (s *fakeItemStore) GetByID(ctx context.Context, itemID string) (*itemmodel.Item, error) {
	if item, ok := s.items[itemID]; ok {
		return copyItem(item), nil
	}
	return nil, nil
}

func (s *fakeItemStore) GetByIDForUpdate(tx dbmodel.TxInterface, itemID string) (*itemmodel.Item, error) {
	if item, ok := s.items[itemID]; ok {
		return copyItem(item), nil
	}
	return nil, nil
}

func (s *fakeItemStore) List(ctx context.Context, limit, offset int) ([]itemmodel.Item, error) {
	var out []itemmodel.Item
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *fakeItemStore) SerialNumberExists(ctx context.Context, serialNumber, excludeItemID string) (bool, error) {
	for id, item := range s.items {
		if id == excludeItemID {
			continue
		}
		if item.SerialNumber != nil && *item.SerialNumber == serialNumber {
			return true, nil
		}
	}
	return false, nil
}

type fakeHistoryStore struct {
	entries []historymodel.Entry
}

func (s *fakeHistoryStore) Create(tx dbmodel.TxInterface, entry *historymodel.Entry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeHistoryStore) ListByItemID(ctx context.Context, itemID string) ([]historymodel.Entry, error) {
	var out []historymodel.Entry
	for _, e := range s.entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeChangeRequestStore struct {
	requests map[string]*crmodel.ChangeRequest
}

func newFakeChangeRequestStore(requests ...*crmodel.ChangeRequest) *fakeChangeRequestStore {
	s := &fakeChangeRequestStore{requests: make(map[string]*crmodel.ChangeRequest)}
	for _, r := range requests {
		dup := *r
		s.requests[r.RequestID] = &dup
	}
	return s
}

func (s *fakeChangeRequestStore) Create(tx dbmodel.TxInterface, request *crmodel.ChangeRequest) error {
	dup := *request
	s.requests[request.RequestID] = &dup
	return nil
}

func (s *fakeChangeRequestStore) GetByID(ctx context.Context, requestID string) (*crmodel.ChangeRequest, error) {
	if r, ok := s.requests[requestID]; ok {
		dup := *r
		return &dup, nil
	}
	return nil, nil
}

func (s *fakeChangeRequestStore) List(ctx context.Context, filters crmodel.Filters) ([]crmodel.ChangeRequest, error) {
	var out []crmodel.ChangeRequest
	for _, r := range s.requests {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.ActionType != "" && r.ActionType != filters.ActionType {
			continue
		}
		if filters.OwnerID != "" && r.OwnerID != filters.OwnerID {
			continue
		}
		if filters.ItemID != "" && r.ItemID != filters.ItemID {
			continue
		}
		if filters.Search != "" && !strings.Contains(r.Description, filters.Search) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeChangeRequestStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	for _, r := range s.requests {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *fakeChangeRequestStore) FindPending(ctx context.Context, itemID, ownerID, actionType string) ([]crmodel.ChangeRequest, error) {
	var out []crmodel.ChangeRequest
	for _, r := range s.requests {
		if r.ItemID == itemID && r.OwnerID == ownerID && r.ActionType == actionType && r.Status == crmodel.StatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeChangeRequestStore) ListApprovedTx(tx dbmodel.TxInterface, itemID, ownerID, actionType string) ([]crmodel.ChangeRequest, error) {
	var out []crmodel.ChangeRequest
	for _, r := range s.requests {
		if r.ItemID == itemID && r.OwnerID == ownerID && r.ActionType == actionType && r.Status == crmodel.StatusApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeChangeRequestStore) MarkResponded(tx dbmodel.TxInterface, requestID, status string, respondedTime int64) (bool, error) {
	r, ok := s.requests[requestID]
	if !ok || r.Status != crmodel.StatusPending {
		return false, nil
	}
	r.Status = status
	r.RespondedTime = &respondedTime
	return true, nil
}

func (s *fakeChangeRequestStore) RejectPendingByItem(tx dbmodel.TxInterface, itemID string, excludeRequestIDs []string, respondedTime int64) (int64, error) {
	excluded := make(map[string]bool, len(excludeRequestIDs))
	for _, id := range excludeRequestIDs {
		excluded[id] = true
	}
	var count int64
	for _, r := range s.requests {
		if r.ItemID == itemID && r.Status == crmodel.StatusPending && !excluded[r.RequestID] {
			r.Status = crmodel.StatusRejected
			r.RespondedTime = &respondedTime
			count++
		}
	}
	return count, nil
}

func (s *fakeChangeRequestStore) RejectPendingTriple(tx dbmodel.TxInterface, itemID, ownerID, actionType string, respondedTime int64) (int64, error) {
	var count int64
	for _, r := range s.requests {
		if r.ItemID == itemID && r.OwnerID == ownerID && r.ActionType == actionType && r.Status == crmodel.StatusPending {
			r.Status = crmodel.StatusRejected
			r.RespondedTime = &respondedTime
			count++
		}
	}
	return count, nil
}

// fakeHistoryService records custody entries without a database.
type fakeHistoryService struct {
	store *fakeHistoryStore
}

func (s *fakeHistoryService) RecordTx(tx dbmodel.TxInterface, itemID string, fromPerson, toPerson *string, actionType, description string) error {
	if !historymodel.ValidActionType(actionType) {
		return fmt.Errorf("unknown history action type %q", actionType)
	}
	now := utils.GetCurrentTimeMillis()
	return s.store.Create(tx, &historymodel.Entry{
		HistoryID:   utils.GenerateUUID(),
		ItemID:      itemID,
		FromPerson:  fromPerson,
		ToPerson:    toPerson,
		ActionType:  actionType,
		Description: description,
		ActionTime:  now,
		CreatedTime: now,
	})
}

func (s *fakeHistoryService) GetItemHistory(ctx context.Context, itemID string) ([]historymodel.Entry, *serviceerror.ServiceError) {
	entries, _ := s.store.ListByItemID(ctx, itemID)
	return entries, nil
}

// fakeItemService mirrors the real validation against the fake stores.
type fakeItemService struct {
	persons *fakePersonStore
	items   *fakeItemStore
}

func (s *fakeItemService) CreateItem(ctx context.Context, req itemmodel.ItemCreateRequest) (*itemmodel.Item, *serviceerror.ServiceError) {
	return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, "not used in engine tests")
}

func (s *fakeItemService) GetItem(ctx context.Context, itemID string) (*itemmodel.Item, *serviceerror.ServiceError) {
	item, _ := s.items.GetByID(ctx, itemID)
	if item == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "item not found")
	}
	return item, nil
}

func (s *fakeItemService) ListItems(ctx context.Context, limit, offset int) ([]itemmodel.Item, *serviceerror.ServiceError) {
	items, _ := s.items.List(ctx, limit, offset)
	return items, nil
}

func (s *fakeItemService) ValidateItem(ctx context.Context, item *itemmodel.Item) *serviceerror.ServiceError {
	if err := item.Validate(); err != nil {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if item.HolderID != nil && *item.HolderID != "" {
		if s.persons.persons[*item.HolderID] == nil {
			return serviceerror.CustomServiceError(serviceerror.ValidationError,
				fmt.Sprintf("holder with personnel number '%s' not found", *item.HolderID))
		}
	}
	if item.SerialNumber != nil && *item.SerialNumber != "" {
		exists, _ := s.items.SerialNumberExists(ctx, *item.SerialNumber, item.ItemID)
		if exists {
			return serviceerror.CustomServiceError(serviceerror.ConflictError, "serial number already registered")
		}
	}
	return nil
}
