package common

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a new random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// Truncate shortens a string for logging, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
