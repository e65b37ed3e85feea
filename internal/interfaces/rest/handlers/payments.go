package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dumensel/payment-service/internal/application/services"
	"github.com/dumensel/payment-service/internal/interfaces/rest"
)

// CreatePayment handles POST /api/v1/payments. Replaying a known
// conversation id returns the recorded outcome with a 200 instead of
// a 201.
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decodeAndValidate(w, r, &req, h) {
		return
	}

	cmd := services.CreatePaymentCommand{
		ConversationID: req.ConversationID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		BuyerID:        req.BuyerID,
		Provider:       req.Provider,
		Card: services.CardInfoCommand{
			CardHolderName: req.Card.CardHolderName,
			CardNumber:     req.Card.CardNumber,
			ExpireMonth:    req.Card.ExpireMonth,
			ExpireYear:     req.Card.ExpireYear,
			CVV:            req.Card.CVV,
		},
	}

	result, err := h.paymentService.CreatePayment(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	rest.WriteJSON(w, status, result)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.paymentService.GetPayment(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetPaymentByConversationID(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	result, err := h.paymentService.GetPaymentByConversationID(r.Context(), conversationID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListPaymentsByBuyer(w http.ResponseWriter, r *http.Request) {
	buyerID := chi.URLParam(r, "buyerId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	results, err := h.paymentService.ListPaymentsByBuyer(r.Context(), buyerID, limit, offset)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, results)
}

// CheckProviderStatus asks the owning provider for its view of the
// payment. The local record is not modified.
func (h *Handlers) CheckProviderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.paymentService.CheckProviderStatus(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]string{
		"paymentId":      id,
		"providerStatus": status,
	})
}
