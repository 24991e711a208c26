package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities. The
// time-ordered prefix keeps ledger rows sortable by id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
