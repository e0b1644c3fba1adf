package model

import "time"

// UsageKind enumerates the rate-limited operations tracked by the ledger.
type UsageKind string

const (
	UsageEnhancement UsageKind = "enhancement"
	UsageValidation  UsageKind = "validation"
)

// Valid reports whether the kind is one of the known operations.
func (k UsageKind) Valid() bool {
	switch k {
	case UsageEnhancement, UsageValidation:
		return true
	}
	return false
}

// UsageRecord is a single immutable record of a completed rate-limited
// operation. Records exist only to be counted; they are never mutated and
// never deleted by this service.
type UsageRecord struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Kind      UsageKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
