package changerequest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crmodel "github.com/inventra/asset-management-api/internal/changerequest/model"
	itemmodel "github.com/inventra/asset-management-api/internal/item/model"
	personmodel "github.com/inventra/asset-management-api/internal/person/model"
	"github.com/inventra/asset-management-api/internal/system/stores"
)

func marshalHolderChange(t *testing.T, giver, receiver *personmodel.Person, fields map[itemmodel.ItemFieldID]itemmodel.FieldChange) string {
	t.Helper()

	holder := &itemmodel.HolderChange{}
	if giver != nil {
		name := giver.FullName()
		holder.Old = &name
		holder.OldID = &giver.PersonnelNumber
	}
	if receiver != nil {
		name := receiver.FullName()
		holder.New = &name
		holder.NewID = &receiver.PersonnelNumber
	}
	if fields == nil {
		fields = map[itemmodel.ItemFieldID]itemmodel.FieldChange{}
	}

	raw, err := (&itemmodel.ChangeSet{Fields: fields, Holder: holder}).Marshal()
	require.NoError(t, err)
	return raw
}

func pendingRequest(requestID, itemID, ownerID, actionType, changes string) *crmodel.ChangeRequest {
	return &crmodel.ChangeRequest{
		RequestID:       requestID,
		ItemID:          itemID,
		OwnerID:         ownerID,
		ActionType:      actionType,
		Status:          crmodel.StatusPending,
		ProposedChanges: changes,
		CreatedTime:     1,
	}
}

// TestApprove_FirstConsentWaitsForCounterpart tests that approving only the
// transfer half leaves the item with its current holder
func TestApprove_FirstConsentWaitsForCounterpart(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes),
			pendingRequest("req-receive", "item-1", bob.PersonnelNumber, crmodel.ActionReceive, changes),
		})

	result, svcErr := f.service.Approve(context.Background(), "req-transfer", alice.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.False(t, result.Applied)
	assert.Equal(t, crmodel.StatusApproved, result.Status)
	assert.Contains(t, result.Message, "remains with Sara Ahmadi")

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)

	receive, _ := f.requests.GetByID(context.Background(), "req-receive")
	assert.Equal(t, crmodel.StatusPending, receive.Status)
	assert.Empty(t, f.history.entries)
}

// TestApprove_SecondConsentCompletesTransfer tests that once both halves
// are approved the holder changes, a transfer history entry is written, and
// other pending requests on the item are invalidated
func TestApprove_SecondConsentCompletesTransfer(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes),
			pendingRequest("req-receive", "item-1", bob.PersonnelNumber, crmodel.ActionReceive, changes),
			pendingRequest("req-stale-edit", "item-1", alice.PersonnelNumber, crmodel.ActionEdit, "{}"),
		})

	_, svcErr := f.service.Approve(context.Background(), "req-transfer", alice.PersonnelNumber)
	require.Nil(t, svcErr)

	result, svcErr := f.service.Approve(context.Background(), "req-receive", bob.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.True(t, result.Applied)
	assert.Contains(t, result.Message, "Reza Karimi")

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	require.NotNil(t, stored.HolderID)
	assert.Equal(t, bob.PersonnelNumber, *stored.HolderID)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, "transfer", entry.ActionType)
	assert.Equal(t, alice.PersonnelNumber, *entry.FromPerson)
	assert.Equal(t, bob.PersonnelNumber, *entry.ToPerson)

	stale, _ := f.requests.GetByID(context.Background(), "req-stale-edit")
	assert.Equal(t, crmodel.StatusRejected, stale.Status)
}

// TestApprove_OnlyOwnerMayRespond tests the actor check
func TestApprove_OnlyOwnerMayRespond(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes),
		})

	_, svcErr := f.service.Approve(context.Background(), "req-transfer", bob.PersonnelNumber)

	require.NotNil(t, svcErr)
	assert.Equal(t, "unauthorized", svcErr.Error)
}

// TestApprove_AlreadyDecided tests that a decided request cannot be decided
// again
func TestApprove_AlreadyDecided(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	item := testItem("item-1", &alice.PersonnelNumber)
	request := pendingRequest("req-1", "item-1", alice.PersonnelNumber, crmodel.ActionEdit, "{}")
	request.Status = crmodel.StatusRejected
	f := newEngineFixture([]*personmodel.Person{alice}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{request})

	_, svcErr := f.service.Approve(context.Background(), "req-1", alice.PersonnelNumber)

	require.NotNil(t, svcErr)
	assert.Equal(t, "invalid_request_state", svcErr.Error)
}

// TestReject_CascadesToCounterpart tests that rejecting one half of a
// transfer pair also rejects the pending counterpart
func TestReject_CascadesToCounterpart(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes),
			pendingRequest("req-receive", "item-1", bob.PersonnelNumber, crmodel.ActionReceive, changes),
		})

	result, svcErr := f.service.Reject(context.Background(), "req-transfer", alice.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.Equal(t, crmodel.StatusRejected, result.Status)
	assert.Contains(t, result.Message, "paired request")

	receive, _ := f.requests.GetByID(context.Background(), "req-receive")
	assert.Equal(t, crmodel.StatusRejected, receive.Status)

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)
	assert.Empty(t, f.history.entries)
}

// TestApprove_AssignConflictRollsBack tests that approving an assign
// request for an item that acquired a holder in the meantime fails and
// rolls the transaction back
func TestApprove_AssignConflictRollsBack(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, nil, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-assign", "item-1", bob.PersonnelNumber, crmodel.ActionAssign, changes),
		})

	_, svcErr := f.service.Approve(context.Background(), "req-assign", bob.PersonnelNumber)

	require.NotNil(t, svcErr)
	assert.Equal(t, "invalid_request_state", svcErr.Error)
	assert.Equal(t, 1, f.client.rollbacks)
	assert.Equal(t, 0, f.client.commits)

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)
	assert.Empty(t, f.history.entries)
}

// TestApprove_AssignOnUnownedItem tests that an assign request applies once
// the prospective holder approves
func TestApprove_AssignOnUnownedItem(t *testing.T) {
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", nil)
	changes := marshalHolderChange(t, nil, bob, nil)
	f := newEngineFixture([]*personmodel.Person{bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-assign", "item-1", bob.PersonnelNumber, crmodel.ActionAssign, changes),
		})

	result, svcErr := f.service.Approve(context.Background(), "req-assign", bob.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.True(t, result.Applied)
	stored, _ := f.items.GetByID(context.Background(), "item-1")
	require.NotNil(t, stored.HolderID)
	assert.Equal(t, bob.PersonnelNumber, *stored.HolderID)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "assign", f.history.entries[0].ActionType)
	assert.Nil(t, f.history.entries[0].FromPerson)
}

// TestApprove_RemoveReturnsItem tests that an approved remove request clears
// the holder and writes a return entry
func TestApprove_RemoveReturnsItem(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, nil, nil)
	f := newEngineFixture([]*personmodel.Person{alice}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-remove", "item-1", alice.PersonnelNumber, crmodel.ActionRemove, changes),
		})

	result, svcErr := f.service.Approve(context.Background(), "req-remove", alice.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.True(t, result.Applied)
	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Nil(t, stored.HolderID)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "return", f.history.entries[0].ActionType)
	assert.Equal(t, alice.PersonnelNumber, *f.history.entries[0].FromPerson)
	assert.Nil(t, f.history.entries[0].ToPerson)
}

// TestApprove_EditAppliesFields tests that an approved edit writes the new
// field values, leaves custody alone, and records the edit in the history
// ledger
func TestApprove_EditAppliesFields(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	item := testItem("item-1", &alice.PersonnelNumber)
	newName := "ThinkPad T14 Gen 2"
	oldName := item.Name
	raw, err := (&itemmodel.ChangeSet{Fields: map[itemmodel.ItemFieldID]itemmodel.FieldChange{
		itemmodel.FieldName: {Old: &oldName, New: &newName},
	}}).Marshal()
	require.NoError(t, err)
	f := newEngineFixture([]*personmodel.Person{alice}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-edit", "item-1", alice.PersonnelNumber, crmodel.ActionEdit, raw),
		})

	result, svcErr := f.service.Approve(context.Background(), "req-edit", alice.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.True(t, result.Applied)
	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Equal(t, newName, stored.Name)
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, "other", entry.ActionType)
	assert.Equal(t, alice.PersonnelNumber, *entry.FromPerson)
	assert.Equal(t, alice.PersonnelNumber, *entry.ToPerson)
}

// TestApprove_EditWithHolderChangeWaitsForConsent tests that an edit request
// carrying a holder change between two persons does not move the item or
// apply any fields on a single approval
func TestApprove_EditWithHolderChangeWaitsForConsent(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	newName := "ThinkPad T14 Gen 2"
	oldName := item.Name
	changes := marshalHolderChange(t, alice, bob, map[itemmodel.ItemFieldID]itemmodel.FieldChange{
		itemmodel.FieldName: {Old: &oldName, New: &newName},
	})
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-edit", "item-1", alice.PersonnelNumber, crmodel.ActionEdit, changes),
		})

	result, svcErr := f.service.Approve(context.Background(), "req-edit", alice.PersonnelNumber)
	require.Nil(t, svcErr)

	assert.False(t, result.Applied)
	assert.Contains(t, result.Message, "remains with Sara Ahmadi")

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Equal(t, oldName, stored.Name)
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)
	assert.Empty(t, f.history.entries)
}

// TestApprove_TransferWithoutHolderChangeIsInvalid tests that a transfer or
// receive request whose proposed changes do not name both holders is refused
// instead of being flipped to approved
func TestApprove_TransferWithoutHolderChangeIsInvalid(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	item := testItem("item-1", &alice.PersonnelNumber)
	f := newEngineFixture([]*personmodel.Person{alice}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-empty", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, "{}"),
			pendingRequest("req-one-sided", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer,
				marshalHolderChange(t, alice, nil, nil)),
		})

	for _, requestID := range []string{"req-empty", "req-one-sided"} {
		_, svcErr := f.service.Approve(context.Background(), requestID, alice.PersonnelNumber)
		require.NotNil(t, svcErr)
		assert.Equal(t, "invalid_request_state", svcErr.Error)

		request, _ := f.requests.GetByID(context.Background(), requestID)
		assert.Equal(t, crmodel.StatusPending, request.Status)
	}

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)
	assert.Empty(t, f.history.entries)
}

// TestForceApprove_TransferAppliesWithoutCounterpart tests the admin escape
// hatch: one forced decision moves the item and invalidates the counterpart
func TestForceApprove_TransferAppliesWithoutCounterpart(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes),
			pendingRequest("req-receive", "item-1", bob.PersonnelNumber, crmodel.ActionReceive, changes),
		})

	result, svcErr := f.service.ForceApprove(context.Background(), "req-transfer", "admin.user")
	require.Nil(t, svcErr)

	assert.True(t, result.Applied)

	stored, _ := f.items.GetByID(context.Background(), "item-1")
	require.NotNil(t, stored.HolderID)
	assert.Equal(t, bob.PersonnelNumber, *stored.HolderID)

	require.Len(t, f.history.entries, 1)
	assert.Contains(t, f.history.entries[0].Description, "Forced by admin admin.user")

	receive, _ := f.requests.GetByID(context.Background(), "req-receive")
	assert.Equal(t, crmodel.StatusRejected, receive.Status)
}

// staleReadRequestStore reports a request as still pending on plain reads
// while the underlying row has already been decided, mimicking a decision
// that commits between another caller's read and its status flip.
type staleReadRequestStore struct {
	*fakeChangeRequestStore
}

func (s *staleReadRequestStore) GetByID(ctx context.Context, requestID string) (*crmodel.ChangeRequest, error) {
	r, err := s.fakeChangeRequestStore.GetByID(ctx, requestID)
	if r != nil {
		r.Status = crmodel.StatusPending
	}
	return r, err
}

// TestApprove_RacingDecisionCaughtByStatusGuard tests that when a request is
// decided between the initial read and the in-transaction status flip, the
// guarded flip affects no rows and the whole decision rolls back
func TestApprove_RacingDecisionCaughtByStatusGuard(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	decided := pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes)
	decided.Status = crmodel.StatusApproved

	client := &fakeDBClient{}
	registry := stores.NewRegistry(client)
	persons := newFakePersonStore(alice, bob)
	items := newFakeItemStore(item)
	history := &fakeHistoryStore{}
	requests := &staleReadRequestStore{newFakeChangeRequestStore(decided)}
	registry.PersonStore = persons
	registry.ItemStore = items
	registry.HistoryStore = history
	registry.ChangeRequestStore = requests
	service := newChangeRequestService(registry,
		&fakeItemService{persons: persons, items: items},
		&fakeHistoryService{store: history})

	_, svcErr := service.Approve(context.Background(), "req-transfer", alice.PersonnelNumber)

	require.NotNil(t, svcErr)
	assert.Equal(t, "invalid_request_state", svcErr.Error)
	assert.Equal(t, 1, client.rollbacks)
	assert.Equal(t, 0, client.commits)

	stored, _ := items.GetByID(context.Background(), "item-1")
	assert.Equal(t, alice.PersonnelNumber, *stored.HolderID)
	assert.Empty(t, history.entries)
}

// TestAdminReject_NoOwnerCheck tests that the admin path rejects without
// owner involvement and still cascades
func TestAdminReject_NoOwnerCheck(t *testing.T) {
	alice := testPerson("100000001", "Sara", "Ahmadi")
	bob := testPerson("100000002", "Reza", "Karimi")
	item := testItem("item-1", &alice.PersonnelNumber)
	changes := marshalHolderChange(t, alice, bob, nil)
	f := newEngineFixture([]*personmodel.Person{alice, bob}, []*itemmodel.Item{item},
		[]*crmodel.ChangeRequest{
			pendingRequest("req-receive", "item-1", bob.PersonnelNumber, crmodel.ActionReceive, changes),
			pendingRequest("req-transfer", "item-1", alice.PersonnelNumber, crmodel.ActionTransfer, changes),
		})

	result, svcErr := f.service.AdminReject(context.Background(), "req-receive", "admin.user")
	require.Nil(t, svcErr)

	assert.Equal(t, crmodel.StatusRejected, result.Status)

	transfer, _ := f.requests.GetByID(context.Background(), "req-transfer")
	assert.Equal(t, crmodel.StatusRejected, transfer.Status)
}
