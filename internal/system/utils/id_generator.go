package utils

import "github.com/google/uuid"

// GenerateUUID returns a new random identifier.
func GenerateUUID() string {
	return uuid.New().String()
}

// IsValidUUID reports whether the value parses as a UUID.
func IsValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
