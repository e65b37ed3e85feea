package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/application/services"
)

const (
	shopifyHmacHeader  = "X-Shopify-Hmac-SHA256"
	shopifyTopicHeader = "X-Shopify-Topic"
)

var fullPAN = regexp.MustCompile(`^[0-9]{13,19}$`)

// ShopifyWebhookHandler turns Shopify order webhooks into payment
// requests. Shopify payloads carry masked card data only; an order
// without a chargeable card is rejected, never guessed at.
type ShopifyWebhookHandler struct {
	secret         string
	paymentService *services.PaymentService
	logger         *slog.Logger
}

func NewShopifyWebhookHandler(secret string, paymentService *services.PaymentService, logger *slog.Logger) *ShopifyWebhookHandler {
	return &ShopifyWebhookHandler{
		secret:         secret,
		paymentService: paymentService,
		logger:         logger,
	}
}

type shopifyOrder struct {
	ID              int64                  `json:"id"`
	OrderNumber     json.Number            `json:"order_number"`
	TotalPrice      decimal.Decimal        `json:"total_price"`
	Currency        string                 `json:"currency"`
	FinancialStatus string                 `json:"financial_status"`
	Customer        *shopifyCustomer       `json:"customer"`
	PaymentDetails  *shopifyPaymentDetails `json:"payment_details"`
}

type shopifyCustomer struct {
	ID int64 `json:"id"`
}

type shopifyPaymentDetails struct {
	CreditCardName     string `json:"credit_card_name"`
	CreditCardNumber   string `json:"credit_card_number"`
	CreditCardExpMonth int    `json:"credit_card_exp_month"`
	CreditCardExpYear  int    `json:"credit_card_exp_year"`
	CreditCardCVV      string `json:"credit_card_cvv"`
}

type webhookResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (h *ShopifyWebhookHandler) HandleOrderWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeResponse(w, http.StatusBadRequest, webhookResponse{
			Success: false, ErrorCode: "INVALID_PAYLOAD", Message: "could not read request body",
		})
		return
	}

	if !h.verifySignature(r.Header.Get(shopifyHmacHeader), body) {
		h.logger.Error("invalid shopify webhook signature",
			"topic", r.Header.Get(shopifyTopicHeader),
		)
		h.writeResponse(w, http.StatusUnauthorized, webhookResponse{
			Success: false, ErrorCode: "INVALID_SIGNATURE", Message: "webhook signature verification failed",
		})
		return
	}

	if !supportedTopic(r.Header.Get(shopifyTopicHeader)) {
		h.writeResponse(w, http.StatusOK, webhookResponse{
			Success: false, ErrorCode: "UNSUPPORTED_TOPIC", Message: "webhook topic is not handled",
		})
		return
	}

	var order shopifyOrder
	if err := json.Unmarshal(body, &order); err != nil {
		h.writeResponse(w, http.StatusBadRequest, webhookResponse{
			Success: false, ErrorCode: "INVALID_PAYLOAD", Message: "webhook payload is not valid JSON",
		})
		return
	}

	h.logger.Info("processing shopify order webhook",
		"order_id", order.ID,
		"order_number", order.OrderNumber.String(),
		"amount", order.TotalPrice,
	)

	if order.FinancialStatus == "paid" {
		h.writeResponse(w, http.StatusUnprocessableEntity, webhookResponse{
			Success: false, ErrorCode: "ORDER_ALREADY_PAID", Message: "order is already marked as paid in Shopify",
		})
		return
	}

	card, ok := chargeableCard(order.PaymentDetails)
	if !ok {
		// Shopify sends masked card data only. Without a stored-card
		// token there is nothing chargeable here.
		h.writeResponse(w, http.StatusUnprocessableEntity, webhookResponse{
			Success: false, ErrorCode: "PAYMENT_DETAILS_MISSING", Message: "payment details are required to process payment",
		})
		return
	}

	buyerID := "shopify-customer"
	if order.Customer != nil {
		buyerID = fmt.Sprintf("shopify-customer-%d", order.Customer.ID)
	}

	cmd := services.CreatePaymentCommand{
		ConversationID: "SHOPIFY-" + order.OrderNumber.String(),
		Amount:         order.TotalPrice,
		Currency:       order.Currency,
		BuyerID:        buyerID,
		Provider:       "CRAFTGATE",
		Card:           card,
	}

	result, err := h.paymentService.CreatePayment(r.Context(), cmd)
	if err != nil {
		status, code, message := webhookError(err)
		h.writeResponse(w, status, webhookResponse{
			Success: false, ErrorCode: code, Message: message,
		})
		return
	}

	h.writeResponse(w, http.StatusOK, webhookResponse{
		Success:   true,
		PaymentID: result.ID,
	})
}

// verifySignature checks the HMAC-SHA256 of the raw body against the
// header, constant-time.
func (h *ShopifyWebhookHandler) verifySignature(header string, body []byte) bool {
	if header == "" || h.secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(header), []byte(expected))
}

func supportedTopic(topic string) bool {
	switch topic {
	case "orders/create", "orders/paid", "orders/cancelled":
		return true
	default:
		return false
	}
}

// chargeableCard accepts the payment details only when they carry a
// full card number and CVV. Masked numbers are never completed into
// real ones.
func chargeableCard(details *shopifyPaymentDetails) (services.CardInfoCommand, bool) {
	if details == nil {
		return services.CardInfoCommand{}, false
	}
	if !fullPAN.MatchString(details.CreditCardNumber) || details.CreditCardCVV == "" {
		return services.CardInfoCommand{}, false
	}

	return services.CardInfoCommand{
		CardHolderName: details.CreditCardName,
		CardNumber:     details.CreditCardNumber,
		ExpireMonth:    fmt.Sprintf("%02d", details.CreditCardExpMonth),
		ExpireYear:     fmt.Sprintf("%d", details.CreditCardExpYear),
		CVV:            details.CreditCardCVV,
	}, true
}

func webhookError(err error) (int, string, string) {
	if svcErr, ok := application.IsServiceError(err); ok {
		return svcErr.HTTPStatus, svcErr.Code, svcErr.Message
	}
	var gwErr *application.GatewayError
	if errors.As(err, &gwErr) {
		return http.StatusUnprocessableEntity, gwErr.Code, gwErr.Message
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred while processing the order"
}

func (h *ShopifyWebhookHandler) writeResponse(w http.ResponseWriter, status int, resp webhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
