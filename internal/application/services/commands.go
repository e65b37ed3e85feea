package services

import "github.com/shopspring/decimal"

type CardInfoCommand struct {
	CardHolderName string
	CardNumber     string
	ExpireMonth    string
	ExpireYear     string
	CVV            string
}

type CreatePaymentCommand struct {
	ConversationID string
	Amount         decimal.Decimal
	Currency       string
	BuyerID        string
	Provider       string
	Card           CardInfoCommand
}

// PointsCommand drives every ledger mutation. Reason is an optional
// audit note; it is logged, never persisted.
type PointsCommand struct {
	UserID string
	Points decimal.Decimal
	Reason string
}
