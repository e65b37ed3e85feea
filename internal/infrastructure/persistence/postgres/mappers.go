package postgres

import (
	"github.com/dumensel/payment-service/internal/domain"
)

// toDomainPayment: maps db model to domain entity
func toDomainPayment(m PaymentModel) *domain.Payment {
	return domain.ReconstitutePayment(
		m.ID,
		m.ConversationID,
		domain.Money{Amount: m.Amount, Currency: domain.Currency(m.Currency)},
		domain.PaymentStatus(m.Status),
		domain.PaymentType(m.MethodType),
		domain.Provider(m.Provider),
		m.BuyerID,
		m.MaskedCardNumber,
		deref(m.ExternalPaymentID),
		deref(m.ErrorCode),
		deref(m.ErrorMessage),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// toPaymentModel: maps domain entity to db model
func toPaymentModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:                p.ID,
		ConversationID:    p.ConversationID,
		Amount:            p.Amount.Amount,
		Currency:          string(p.Amount.Currency),
		Status:            string(p.Status),
		MethodType:        string(p.Method.Type),
		Provider:          string(p.Provider),
		BuyerID:           p.BuyerID,
		MaskedCardNumber:  p.MaskedCardNumber,
		ExternalPaymentID: nullable(p.ExternalPaymentID),
		ErrorCode:         nullable(p.ErrorCode),
		ErrorMessage:      nullable(p.ErrorMessage),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toDomainUserPoints(m UserPointsModel) *domain.UserPoints {
	return domain.ReconstituteUserPoints(
		m.UserID,
		m.Total,
		m.Available,
		m.Locked,
		m.Version,
		m.CreatedAt,
		m.LastUpdated,
	)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
