package domain

import "time"

// FlagStatus is the lifecycle of a reconciliation flag.
type FlagStatus string

const (
	FlagOpen     FlagStatus = "open"
	FlagResolved FlagStatus = "resolved"
)

// ReconciliationFlag marks an entity left in a partially-reversed
// state after a compensation run that could not fully roll back.
// Flags are queryable and resolved by hand; they are never retried
// automatically.
type ReconciliationFlag struct {
	ID            string
	Operation     string
	ResourceType  string
	ResourceID    string
	FailedStep    string
	Detail        string
	Uncompensated []string
	Status        FlagStatus
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}
