package model

import (
	"encoding/json"
	"fmt"
)

// ItemFieldID identifies a mutable item field inside a change set.
type ItemFieldID string

const (
	FieldName          ItemFieldID = "name"
	FieldType          ItemFieldID = "type"
	FieldStatus        ItemFieldID = "status"
	FieldSubStatus     ItemFieldID = "sub_status"
	FieldBrand         ItemFieldID = "brand"
	FieldConfiguration ItemFieldID = "configuration"
	FieldSerialNumber  ItemFieldID = "serial_number"
	FieldProductCode   ItemFieldID = "product_code"
	FieldQuantity      ItemFieldID = "quantity"
)

// holderKey is the reserved change-set key for holder transitions.
const holderKey = "PersonalInfo"

// FieldChange records an old/new pair for a scalar item field. Values are
// stored as strings in the wire format; nil means the field was unset.
type FieldChange struct {
	Old *string `json:"old"`
	New *string `json:"new"`
}

// HolderChange records a holder transition. Old/New carry display names for
// the audit trail, OldID/NewID carry personnel numbers and are what the
// approval engine matches on.
type HolderChange struct {
	Old   *string `json:"old"`
	New   *string `json:"new"`
	OldID *string `json:"old_id"`
	NewID *string `json:"new_id"`
}

// ChangeSet is a typed set of proposed item changes. It round-trips through
// the flat JSON map persisted on a change request.
type ChangeSet struct {
	Fields map[ItemFieldID]FieldChange
	Holder *HolderChange
}

// IsEmpty reports whether the change set proposes nothing.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Fields) == 0 && c.Holder == nil
}

// Marshal serializes the change set to its persisted JSON form.
func (c *ChangeSet) Marshal() (string, error) {
	out := make(map[string]interface{}, len(c.Fields)+1)
	for field, change := range c.Fields {
		out[string(field)] = change
	}
	if c.Holder != nil {
		out[holderKey] = c.Holder
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal change set: %w", err)
	}
	return string(raw), nil
}

// UnmarshalChangeSet parses the persisted JSON form back into a ChangeSet.
func UnmarshalChangeSet(raw string) (*ChangeSet, error) {
	if raw == "" {
		return &ChangeSet{Fields: map[ItemFieldID]FieldChange{}}, nil
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return nil, fmt.Errorf("failed to parse change set: %w", err)
	}

	cs := &ChangeSet{Fields: make(map[ItemFieldID]FieldChange, len(flat))}
	for key, value := range flat {
		if key == holderKey {
			var hc HolderChange
			if err := json.Unmarshal(value, &hc); err != nil {
				return nil, fmt.Errorf("failed to parse holder change: %w", err)
			}
			cs.Holder = &hc
			continue
		}
		var fc FieldChange
		if err := json.Unmarshal(value, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse change for field %s: %w", key, err)
		}
		cs.Fields[ItemFieldID(key)] = fc
	}
	return cs, nil
}

// DiffFields compares two items field by field and returns the scalar
// changes. Holder transitions are not part of the result; the caller builds
// a HolderChange with resolved person names when the holder differs.
func DiffFields(current, proposed *Item) map[ItemFieldID]FieldChange {
	changes := make(map[ItemFieldID]FieldChange)

	diffString := func(field ItemFieldID, oldVal, newVal string) {
		if oldVal != newVal {
			changes[field] = FieldChange{Old: strPtr(oldVal), New: strPtr(newVal)}
		}
	}
	diffPtr := func(field ItemFieldID, oldVal, newVal *string) {
		if !strPtrEqual(oldVal, newVal) {
			changes[field] = FieldChange{Old: oldVal, New: newVal}
		}
	}

	diffString(FieldName, current.Name, proposed.Name)
	diffString(FieldType, current.Type, proposed.Type)
	diffString(FieldStatus, current.Status, proposed.Status)
	diffPtr(FieldSubStatus, current.SubStatus, proposed.SubStatus)
	diffPtr(FieldBrand, current.Brand, proposed.Brand)
	diffPtr(FieldConfiguration, current.Configuration, proposed.Configuration)
	diffPtr(FieldSerialNumber, current.SerialNumber, proposed.SerialNumber)
	diffString(FieldProductCode, current.ProductCode, proposed.ProductCode)
	if current.Quantity != proposed.Quantity {
		changes[FieldQuantity] = FieldChange{
			Old: strPtr(fmt.Sprintf("%d", current.Quantity)),
			New: strPtr(fmt.Sprintf("%d", proposed.Quantity)),
		}
	}

	return changes
}

// ApplyFields writes the New side of each scalar change onto the item.
// Unknown field keys are ignored so that old persisted requests with
// retired fields still apply cleanly.
func ApplyFields(item *Item, fields map[ItemFieldID]FieldChange) {
	for field, change := range fields {
		switch field {
		case FieldName:
			if change.New != nil {
				item.Name = *change.New
			}
		case FieldType:
			if change.New != nil {
				item.Type = *change.New
			}
		case FieldStatus:
			if change.New != nil {
				item.Status = *change.New
			}
		case FieldSubStatus:
			item.SubStatus = change.New
		case FieldBrand:
			item.Brand = change.New
		case FieldConfiguration:
			item.Configuration = change.New
		case FieldSerialNumber:
			item.SerialNumber = change.New
		case FieldProductCode:
			if change.New != nil {
				item.ProductCode = *change.New
			}
		case FieldQuantity:
			if change.New != nil {
				var q int
				if _, err := fmt.Sscanf(*change.New, "%d", &q); err == nil {
					item.Quantity = q
				}
			}
		}
	}
}

func strPtr(s string) *string {
	return &s
}

func strPtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
