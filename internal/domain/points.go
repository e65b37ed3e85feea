package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserPoints is the loyalty ledger for one user. Total counts lifetime
// earned points and never decreases; spending, locking and consuming
// only move or burn the spendable side, so Total >= Available + Locked
// holds after every mutation.
type UserPoints struct {
	UserID    string
	Total     decimal.Decimal
	Available decimal.Decimal
	Locked    decimal.Decimal

	// Version backs optimistic concurrency in the repository; a stale
	// writer loses instead of silently overwriting.
	Version int64

	CreatedAt   time.Time
	LastUpdated time.Time
}

// NewUserPoints creates a zero-balance ledger. Ledgers are created
// lazily on first access.
func NewUserPoints(userID string) (*UserPoints, error) {
	if userID == "" {
		return nil, NewInvalidValueError("userId", "is required")
	}
	now := time.Now()
	return &UserPoints{
		UserID:      userID,
		Total:       decimal.Zero,
		Available:   decimal.Zero,
		Locked:      decimal.Zero,
		CreatedAt:   now,
		LastUpdated: now,
	}, nil
}

func validatePoints(points decimal.Decimal) error {
	if !points.IsPositive() {
		return NewInvalidValueError("points", "must be positive")
	}
	return nil
}

// EarnPoints credits the ledger after a successful payment.
func (u *UserPoints) EarnPoints(points decimal.Decimal) error {
	if err := validatePoints(points); err != nil {
		return err
	}
	u.Total = u.Total.Add(points)
	u.Available = u.Available.Add(points)
	u.LastUpdated = time.Now()
	return nil
}

// SpendPoints debits available points. Total is untouched: spent
// points were already counted when earned.
func (u *UserPoints) SpendPoints(points decimal.Decimal) error {
	if err := validatePoints(points); err != nil {
		return err
	}
	if u.Available.LessThan(points) {
		return &InsufficientPointsError{Available: u.Available, Requested: points}
	}
	u.Available = u.Available.Sub(points)
	u.LastUpdated = time.Now()
	return nil
}

// LockPoints reserves available points for a pending operation.
func (u *UserPoints) LockPoints(points decimal.Decimal) error {
	if err := validatePoints(points); err != nil {
		return err
	}
	if u.Available.LessThan(points) {
		return &InsufficientPointsError{Available: u.Available, Requested: points}
	}
	u.Available = u.Available.Sub(points)
	u.Locked = u.Locked.Add(points)
	u.LastUpdated = time.Now()
	return nil
}

// UnlockPoints releases a reservation back to available.
func (u *UserPoints) UnlockPoints(points decimal.Decimal) error {
	if err := validatePoints(points); err != nil {
		return err
	}
	if u.Locked.LessThan(points) {
		return &LockedPointsError{Op: "unlock", Locked: u.Locked, Requested: points}
	}
	u.Locked = u.Locked.Sub(points)
	u.Available = u.Available.Add(points)
	u.LastUpdated = time.Now()
	return nil
}

// ConsumeLockedPoints permanently spends reserved points once the
// pending operation completes.
func (u *UserPoints) ConsumeLockedPoints(points decimal.Decimal) error {
	if err := validatePoints(points); err != nil {
		return err
	}
	if u.Locked.LessThan(points) {
		return &LockedPointsError{Op: "consume", Locked: u.Locked, Requested: points}
	}
	u.Locked = u.Locked.Sub(points)
	u.LastUpdated = time.Now()
	return nil
}

// HasEnoughPoints checks spendable balance without mutating.
func (u *UserPoints) HasEnoughPoints(required decimal.Decimal) bool {
	return u.Available.GreaterThanOrEqual(required)
}

// ReconstituteUserPoints rebuilds a ledger from storage.
func ReconstituteUserPoints(
	userID string,
	total, available, locked decimal.Decimal,
	version int64,
	createdAt, lastUpdated time.Time,
) *UserPoints {
	return &UserPoints{
		UserID:      userID,
		Total:       total,
		Available:   available,
		Locked:      locked,
		Version:     version,
		CreatedAt:   createdAt,
		LastUpdated: lastUpdated,
	}
}
