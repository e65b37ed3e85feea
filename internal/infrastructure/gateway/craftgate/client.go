package craftgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/config"
	"github.com/dumensel/payment-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Client talks to the Craftgate card-payments API. Every failure mode,
// transport, decode or declined payment, comes back as
// *application.GatewayError so the orchestrator records one uniform
// outcome.
type Client struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) application.PaymentGateway {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *Client) Provider() domain.Provider {
	return domain.ProviderCraftgate
}

type cardRequest struct {
	CardHolderName string `json:"cardHolderName"`
	CardNumber     string `json:"cardNumber"`
	ExpireMonth    string `json:"expireMonth"`
	ExpireYear     string `json:"expireYear"`
	CVC            string `json:"cvc"`
}

type paymentRequest struct {
	Price          decimal.Decimal `json:"price"`
	PaidPrice      decimal.Decimal `json:"paidPrice"`
	Currency       string          `json:"currency"`
	ConversationID string          `json:"conversationId"`
	BuyerID        string          `json:"buyerMemberExternalId"`
	Card           cardRequest     `json:"card"`
}

type paymentResponse struct {
	ID            int64  `json:"id"`
	PaymentStatus string `json:"paymentStatus"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorDescription"`
}

type errorResponse struct {
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

// ProcessPayment makes exactly one charge attempt. The full card number
// and CVC travel here and nowhere else.
func (c *Client) ProcessPayment(ctx context.Context, payment *domain.Payment) (string, error) {
	if payment.Method.Card == nil {
		return "", &application.GatewayError{
			Code:    "PAYMENT_DETAILS_MISSING",
			Message: "payment has no card details to charge",
		}
	}
	card := payment.Method.Card

	req := paymentRequest{
		Price:          payment.Amount.Amount,
		PaidPrice:      payment.Amount.Amount,
		Currency:       string(payment.Amount.Currency),
		ConversationID: payment.ConversationID,
		BuyerID:        payment.BuyerID,
		Card: cardRequest{
			CardHolderName: card.HolderName(),
			CardNumber:     card.Number(),
			ExpireMonth:    card.ExpireMonth(),
			ExpireYear:     card.ExpireYear(),
			CVC:            card.CVV(),
		},
	}

	var resp paymentResponse
	if err := c.send(ctx, http.MethodPost, "/payment/v1/card-payments", &req, &resp); err != nil {
		return "", err
	}

	if resp.PaymentStatus != "SUCCESS" {
		code := resp.ErrorCode
		if code == "" {
			code = "PAYMENT_DECLINED"
		}
		message := resp.ErrorMessage
		if message == "" {
			message = "craftgate declined the payment"
		}
		return "", &application.GatewayError{Code: code, Message: message}
	}

	return fmt.Sprintf("%d", resp.ID), nil
}

// CheckPaymentStatus asks Craftgate for its view of a previously
// created payment.
func (c *Client) CheckPaymentStatus(ctx context.Context, externalPaymentID string) (string, error) {
	var resp paymentResponse
	path := "/payment/v1/card-payments/" + externalPaymentID
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.PaymentStatus, nil
}

func (c *Client) send(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return &application.GatewayError{
				Code:    "GATEWAY_REQUEST_FAILED",
				Message: "error marshalling craftgate request",
				Err:     err,
			}
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &application.GatewayError{
			Code:    "GATEWAY_REQUEST_FAILED",
			Message: "error creating craftgate request",
			Err:     err,
		}
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("x-rnd-key", c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &application.GatewayError{
			Code:    "GATEWAY_UNREACHABLE",
			Message: "craftgate request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.ErrorCode == "" {
			return &application.GatewayError{
				Code:    "GATEWAY_ERROR",
				Message: fmt.Sprintf("craftgate returned status %d", resp.StatusCode),
			}
		}
		return &application.GatewayError{
			Code:    errResp.ErrorCode,
			Message: errResp.ErrorDescription,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return &application.GatewayError{
			Code:    "GATEWAY_RESPONSE_INVALID",
			Message: "error decoding craftgate response",
			Err:     err,
		}
	}

	return nil
}
