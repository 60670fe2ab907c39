package model

import (
	"fmt"
)

// Item type values.
const (
	TypeTechnical    = "technical"
	TypeNonTechnical = "non_technical"
)

// Item status values.
const (
	StatusHardware  = "hardware"
	StatusDelivery  = "delivery"
	StatusWarehouse = "warehouse"
)

// SubStatusMapping constrains each status to its valid sub-statuses.
var SubStatusMapping = map[string][]string{
	StatusHardware:  {"repair", "upgrade"},
	StatusDelivery:  {"external", "internal"},
	StatusWarehouse: {"ready", "returned_good", "returned_worn"},
}

// Item is the canonical state of a trackable asset.
type Item struct {
	ItemID         string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	SubStatus      *string `json:"subStatus,omitempty"`
	Brand          *string `json:"brand,omitempty"`
	Configuration  *string `json:"configuration,omitempty"`
	SerialNumber   *string `json:"serialNumber,omitempty"`
	ProductCode    string  `json:"productCode"`
	Quantity       int     `json:"quantity"`
	HolderID       *string `json:"holderId,omitempty"`
	RegisteredTime int64   `json:"registeredTime"`
	UpdatedTime    int64   `json:"updatedTime"`
}

// ItemCreateRequest is the API payload for registering an item.
type ItemCreateRequest struct {
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Status        string  `json:"status" binding:"required"`
	SubStatus     *string `json:"subStatus"`
	Brand         *string `json:"brand"`
	Configuration *string `json:"configuration"`
	SerialNumber  *string `json:"serialNumber"`
	ProductCode   string  `json:"productCode" binding:"required"`
	Quantity      *int    `json:"quantity"`
	HolderID      *string `json:"holderId"`
	Description   string  `json:"description"`
}

// ItemUpdateRequest carries the full proposed field values for an item.
// The service diffs it against the current record; holder changes on an
// owned item are diverted into the approval workflow.
type ItemUpdateRequest struct {
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Status        string  `json:"status" binding:"required"`
	SubStatus     *string `json:"subStatus"`
	Brand         *string `json:"brand"`
	Configuration *string `json:"configuration"`
	SerialNumber  *string `json:"serialNumber"`
	ProductCode   string  `json:"productCode" binding:"required"`
	Quantity      *int    `json:"quantity"`
	HolderID      *string `json:"holderId"`
}

// Validate checks the item's own invariants: known type and status, a
// sub-status belonging to the status, and serial-number rules (technical
// items only; uniqueness is checked against the store separately).
func (i *Item) Validate() error {
	if i.Type != TypeTechnical && i.Type != TypeNonTechnical {
		return fmt.Errorf("unknown item type %q", i.Type)
	}

	subStatuses, ok := SubStatusMapping[i.Status]
	if !ok {
		return fmt.Errorf("unknown item status %q", i.Status)
	}

	if i.SubStatus != nil {
		valid := false
		for _, s := range subStatuses {
			if s == *i.SubStatus {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("sub-status %q is not valid for status %q", *i.SubStatus, i.Status)
		}
	}

	if i.Type == TypeNonTechnical && i.SerialNumber != nil && *i.SerialNumber != "" {
		return fmt.Errorf("non-technical items cannot carry a serial number")
	}

	if i.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	return nil
}
