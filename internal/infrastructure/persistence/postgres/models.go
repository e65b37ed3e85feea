package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentModel mirrors the payments table. ConversationID carries a
// unique index; the insert path relies on it for idempotency.
type PaymentModel struct {
	ID                string
	ConversationID    string
	Amount            decimal.Decimal
	Currency          string
	Status            string
	MethodType        string
	Provider          string
	BuyerID           string
	MaskedCardNumber  string
	ExternalPaymentID *string
	ErrorCode         *string
	ErrorMessage      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserPointsModel mirrors the user_points table. Version backs the
// optimistic-lock check in Save.
type UserPointsModel struct {
	UserID      string
	Total       decimal.Decimal
	Available   decimal.Decimal
	Locked      decimal.Decimal
	Version     int64
	CreatedAt   time.Time
	LastUpdated time.Time
}
