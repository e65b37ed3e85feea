package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/interfaces/rest"
)

var validate = validator.New()

// CreatePaymentRequest carries the card in the clear; it must never be
// logged or echoed back.
type CreatePaymentRequest struct {
	ConversationID string          `json:"conversationId" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Currency       string          `json:"currency" validate:"required"`
	BuyerID        string          `json:"buyerId" validate:"required"`
	Provider       string          `json:"provider" validate:"required"`
	Card           CardRequest     `json:"card" validate:"required"`
}

type CardRequest struct {
	CardHolderName string `json:"cardHolderName" validate:"required"`
	CardNumber     string `json:"cardNumber" validate:"required"`
	ExpireMonth    string `json:"expireMonth" validate:"required"`
	ExpireYear     string `json:"expireYear" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
}

type PointsRequest struct {
	Points decimal.Decimal `json:"points" validate:"required"`
	Reason string          `json:"reason"`
}

// decodeAndValidate parses the body and runs struct validation,
// writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, h *Handlers) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rest.WriteError(w, application.NewValidationError(application.FieldError{
			Field:  "body",
			Reason: "request body is not valid JSON",
		}), h.logger)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		fields := make([]application.FieldError, 0)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, verr := range verrs {
				fields = append(fields, application.FieldError{
					Field:  verr.Field(),
					Reason: "failed validation rule: " + verr.Tag(),
				})
			}
		}
		rest.WriteError(w, application.NewValidationError(fields...), h.logger)
		return false
	}

	return true
}
