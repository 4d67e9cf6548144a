package domain

import "time"

// Account statuses. Anything other than active blocks transfers.
const (
	AccountStatusActive    = "active"
	AccountStatusSuspended = "suspended"
	AccountStatusClosed    = "closed"
)

// Account is a snapshot of a ledger account. Balances are integers in
// minor currency units; the engine never persists accounts itself.
type Account struct {
	ID        string
	OwnerName string
	Balance   int64
	Currency  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the account may participate in transfers.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
