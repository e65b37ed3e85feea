// Package domain holds the payment and loyalty-points aggregates and
// their value objects. Nothing in here touches infrastructure.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusSuccess   PaymentStatus = "SUCCESS"
	StatusFailed    PaymentStatus = "FAILED"
	StatusCancelled PaymentStatus = "CANCELLED"
	// StatusRefunded is reserved for a future refund path. No
	// transition reaches it yet.
	StatusRefunded PaymentStatus = "REFUNDED"
)

// IsFinal reports whether the status permits no further mutation in
// the current lifecycle.
func (s PaymentStatus) IsFinal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// Provider identifies an external payment gateway.
type Provider string

const (
	ProviderCraftgate Provider = "CRAFTGATE"
	ProviderAkbank    Provider = "AKBANK"
)

// ParseProvider maps a request string onto the closed provider set.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderCraftgate, ProviderAkbank:
		return Provider(s), nil
	default:
		return "", NewInvalidValueError("provider", "unsupported provider: "+s)
	}
}

type PaymentType string

const PaymentTypeCreditCard PaymentType = "CREDIT_CARD"

// PaymentMethod pairs a payment type with its card details. Card info
// is carried in memory for the gateway call and never persisted in
// full.
type PaymentMethod struct {
	Type PaymentType
	Card *CardInfo
}

func NewPaymentMethod(t PaymentType, card *CardInfo) (PaymentMethod, error) {
	if t == PaymentTypeCreditCard && card == nil {
		return PaymentMethod{}, NewInvalidValueError("cardInfo", "required for credit card payments")
	}
	return PaymentMethod{Type: t, Card: card}, nil
}

// Payment is the aggregate root for a single charge attempt against an
// external provider. ConversationID is the caller-supplied idempotency
// key; it is globally unique and a repeat submission must resolve to
// this same aggregate.
type Payment struct {
	ID             string
	ConversationID string
	Amount         Money
	Status         PaymentStatus
	Method         PaymentMethod
	Provider       Provider
	BuyerID        string

	// MaskedCardNumber survives persistence; the full PAN does not.
	MaskedCardNumber string

	ExternalPaymentID string
	ErrorCode         string
	ErrorMessage      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPayment(conversationID string, amount Money, method PaymentMethod, provider Provider, buyerID string) (*Payment, error) {
	if conversationID == "" {
		return nil, NewInvalidValueError("conversationId", "is required")
	}
	if buyerID == "" {
		return nil, NewInvalidValueError("buyerId", "is required")
	}

	masked := ""
	if method.Card != nil {
		masked = method.Card.MaskedNumber()
	}

	now := time.Now()
	return &Payment{
		ID:               uuid.New().String(),
		ConversationID:   conversationID,
		Amount:           amount,
		Status:           StatusPending,
		Method:           method,
		Provider:         provider,
		BuyerID:          buyerID,
		MaskedCardNumber: masked,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// MarkAsSuccess records the provider's reference id. A payment that
// already succeeded cannot be touched again.
func (p *Payment) MarkAsSuccess(externalPaymentID string) error {
	if p.Status == StatusSuccess {
		return NewInvalidTransitionError(p.Status, StatusSuccess)
	}
	p.Status = StatusSuccess
	p.ExternalPaymentID = externalPaymentID
	p.UpdatedAt = time.Now()
	return nil
}

// MarkAsFailed records a gateway decline or timeout. A successful
// payment cannot be un-succeeded by a late failure signal.
func (p *Payment) MarkAsFailed(errorCode, errorMessage string) error {
	if p.Status == StatusSuccess {
		return NewInvalidTransitionError(p.Status, StatusFailed)
	}
	p.Status = StatusFailed
	p.ErrorCode = errorCode
	p.ErrorMessage = errorMessage
	p.UpdatedAt = time.Now()
	return nil
}

// Cancel aborts a non-successful payment. Successful payments must go
// through a refund path instead.
func (p *Payment) Cancel() error {
	if p.Status == StatusSuccess {
		return NewInvalidTransitionError(p.Status, StatusCancelled)
	}
	p.Status = StatusCancelled
	p.UpdatedAt = time.Now()
	return nil
}

// IsSameConversation is the idempotency equality check.
func (p *Payment) IsSameConversation(conversationID string) bool {
	return p.ConversationID == conversationID
}

// ReconstitutePayment rebuilds an aggregate from storage. The card
// details are gone by then; only the masked number survives.
func ReconstitutePayment(
	id, conversationID string,
	amount Money,
	status PaymentStatus,
	methodType PaymentType,
	provider Provider,
	buyerID, maskedCardNumber string,
	externalPaymentID, errorCode, errorMessage string,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		ID:                id,
		ConversationID:    conversationID,
		Amount:            amount,
		Status:            status,
		Method:            PaymentMethod{Type: methodType},
		Provider:          provider,
		BuyerID:           buyerID,
		MaskedCardNumber:  maskedCardNumber,
		ExternalPaymentID: externalPaymentID,
		ErrorCode:         errorCode,
		ErrorMessage:      errorMessage,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}
