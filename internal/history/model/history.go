package model

// History action types.
const (
	ActionAssign      = "assign"
	ActionTransfer    = "transfer"
	ActionReturn      = "return"
	ActionMaintenance = "maintenance"
	ActionOther       = "other"
)

// Entry is a single append-only record of a custody or lifecycle event.
// FromPerson and ToPerson are personnel numbers; nil means unassigned on
// that side of the movement.
type Entry struct {
	HistoryID   string  `json:"id"`
	ItemID      string  `json:"itemId"`
	FromPerson  *string `json:"fromPerson,omitempty"`
	ToPerson    *string `json:"toPerson,omitempty"`
	ActionType  string  `json:"actionType"`
	Description string  `json:"description"`
	ActionTime  int64   `json:"actionTime"`
	CreatedTime int64   `json:"createdTime"`
}

// ValidActionType reports whether the action type is one of the known set.
func ValidActionType(action string) bool {
	switch action {
	case ActionAssign, ActionTransfer, ActionReturn, ActionMaintenance, ActionOther:
		return true
	}
	return false
}
