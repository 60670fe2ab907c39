package model

// Change request statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Change request action types.
const (
	ActionEdit     = "edit"
	ActionTransfer = "transfer"
	ActionAssign   = "assign"
	ActionRemove   = "remove"
	ActionReceive  = "receive"
)

// ChangeRequest is a pending, approved, or rejected proposal to change an
// item. OwnerID is the personnel number whose consent the request awaits.
type ChangeRequest struct {
	RequestID       string  `json:"id"`
	ItemID          string  `json:"itemId"`
	OwnerID         string  `json:"ownerId"`
	AdminUser       string  `json:"adminUser"`
	ActionType      string  `json:"actionType"`
	Status          string  `json:"status"`
	ProposedChanges string  `json:"proposedChanges"`
	Description     string  `json:"description"`
	CreatedTime     int64   `json:"createdTime"`
	RespondedTime   *int64  `json:"respondedTime,omitempty"`
}

// Filters narrows change request listings.
type Filters struct {
	Status     string
	ActionType string
	OwnerID    string
	ItemID     string
	Search     string
	Limit      int
	Offset     int
}

// DecisionResult is returned by the approval engine for approve and reject
// operations. Applied reports whether the item record changed; the message
// explains the outcome in user-facing terms.
type DecisionResult struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Applied   bool   `json:"applied"`
	Message   string `json:"message"`
}

// ProposeResult is returned when an item update is submitted. Applied
// reports whether the change was written synchronously; otherwise Requests
// holds the change requests awaiting consent.
type ProposeResult struct {
	Applied  bool            `json:"applied"`
	Requests []ChangeRequest `json:"requests,omitempty"`
	Message  string          `json:"message"`
}

// BulkTransferRequest moves a set of items towards one recipient.
type BulkTransferRequest struct {
	ItemIDs     []string `json:"itemIds" binding:"required,min=1"`
	ToPersonID  string   `json:"toPersonId" binding:"required"`
	Description string   `json:"description"`
}

// BulkTransferResult summarizes a bulk transfer run.
type BulkTransferResult struct {
	RequestsCreated int      `json:"requestsCreated"`
	DirectAssigned  int      `json:"directAssigned"`
	Skipped         []string `json:"skipped,omitempty"`
}

// ValidStatus reports whether the status is one of the known set.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ValidActionType reports whether the action is one of the known set.
func ValidActionType(action string) bool {
	switch action {
	case ActionEdit, ActionTransfer, ActionAssign, ActionRemove, ActionReceive:
		return true
	}
	return false
}
