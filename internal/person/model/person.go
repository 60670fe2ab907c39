package model

import (
	"fmt"
	"regexp"
	"strings"
)

var personnelNumberPattern = regexp.MustCompile(`^\d{9}$`)

// Person is a directory entry for someone who can hold items.
type Person struct {
	PersonnelNumber string  `json:"personnelNumber"`
	Name            string  `json:"name"`
	Family          string  `json:"family"`
	NationalID      string  `json:"nationalId"`
	Email           *string `json:"email,omitempty"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
	CreatedTime     int64   `json:"createdTime"`
}

// FullName returns the display name used in audit descriptions.
func (p *Person) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.Family)
}

// PersonCreateRequest is the API payload for registering a person.
type PersonCreateRequest struct {
	PersonnelNumber string  `json:"personnelNumber" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Family          string  `json:"family" binding:"required"`
	NationalID      string  `json:"nationalId" binding:"required"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
}

// Validate checks the directory entry invariants.
func (p *Person) Validate() error {
	if !personnelNumberPattern.MatchString(p.PersonnelNumber) {
		return fmt.Errorf("personnel number must be exactly 9 digits")
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Family) == "" {
		return fmt.Errorf("name and family are required")
	}
	if strings.TrimSpace(p.NationalID) == "" {
		return fmt.Errorf("national id is required")
	}
	return nil
}
