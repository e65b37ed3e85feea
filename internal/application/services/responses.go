package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumensel/payment-service/internal/domain"
)

// PaymentResult is the caller-facing view of a payment. Card data is
// reduced to the masked number.
type PaymentResult struct {
	ID                string          `json:"id"`
	ConversationID    string          `json:"conversationId"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Provider          string          `json:"provider"`
	BuyerID           string          `json:"buyerId"`
	MaskedCardNumber  string          `json:"maskedCardNumber,omitempty"`
	ExternalPaymentID string          `json:"externalPaymentId,omitempty"`
	ErrorCode         string          `json:"errorCode,omitempty"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`

	// Replayed marks an idempotent replay of an earlier request, so
	// the transport can answer 200 instead of 201. Not serialized.
	Replayed bool `json:"-"`
}

func paymentResultFrom(p *domain.Payment) *PaymentResult {
	return &PaymentResult{
		ID:                p.ID,
		ConversationID:    p.ConversationID,
		Amount:            p.Amount.Amount,
		Currency:          string(p.Amount.Currency),
		Status:            string(p.Status),
		Provider:          string(p.Provider),
		BuyerID:           p.BuyerID,
		MaskedCardNumber:  p.MaskedCardNumber,
		ExternalPaymentID: p.ExternalPaymentID,
		ErrorCode:         p.ErrorCode,
		ErrorMessage:      p.ErrorMessage,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type UserPointsResult struct {
	UserID          string          `json:"userId"`
	TotalPoints     decimal.Decimal `json:"totalPoints"`
	AvailablePoints decimal.Decimal `json:"availablePoints"`
	LockedPoints    decimal.Decimal `json:"lockedPoints"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastUpdated     time.Time       `json:"lastUpdated"`
}

func userPointsResultFrom(u *domain.UserPoints) *UserPointsResult {
	return &UserPointsResult{
		UserID:          u.UserID,
		TotalPoints:     u.Total,
		AvailablePoints: u.Available,
		LockedPoints:    u.Locked,
		CreatedAt:       u.CreatedAt,
		LastUpdated:     u.LastUpdated,
	}
}
