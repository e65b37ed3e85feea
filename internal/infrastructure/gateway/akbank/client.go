package akbank

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

// Client talks to the Akbank virtual POS API. Same contract as the
// Craftgate client: one attempt per call, every failure wrapped in
// *application.GatewayError.
type Client struct {
	baseURL    string
	merchantID string
	terminalID string
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) application.PaymentGateway {
	return &Client{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.APIKey,
		terminalID: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *Client) Provider() domain.Provider {
	return domain.ProviderAkbank
}

type saleRequest struct {
	MerchantID     string          `json:"merchantId"`
	TerminalID     string          `json:"terminalId"`
	OrderID        string          `json:"orderId"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currencyCode"`
	CardHolderName string          `json:"cardHolderName"`
	CardNumber     string          `json:"cardNumber"`
	ExpireDate     string          `json:"expireDate"`
	CVV            string          `json:"cvv2"`
}

type saleResponse struct {
	TransactionID string `json:"txnId"`
	ResponseCode  string `json:"responseCode"`
	ResponseMsg   string `json:"responseMessage"`
	TxnStatus     string `json:"txnStatus"`
}

// ProcessPayment runs a single sale transaction against the POS.
func (c *Client) ProcessPayment(ctx context.Context, payment *domain.Payment) (string, error) {
	if payment.Method.Card == nil {
		return "", &application.GatewayError{
			Code:    "PAYMENT_DETAILS_MISSING",
			Message: "payment has no card details to charge",
		}
	}
	card := payment.Method.Card

	req := saleRequest{
		MerchantID:     c.merchantID,
		TerminalID:     c.terminalID,
		OrderID:        payment.ConversationID,
		Amount:         payment.Amount.Amount,
		CurrencyCode:   string(payment.Amount.Currency),
		CardHolderName: card.HolderName(),
		CardNumber:     card.Number(),
		ExpireDate:     card.ExpireMonth() + "/" + card.ExpireYear(),
		CVV:            card.CVV(),
	}

	var resp saleResponse
	if err := c.send(ctx, http.MethodPost, "/api/v1/sale", &req, &resp); err != nil {
		return "", err
	}

	// Akbank signals approval with response code "00".
	if resp.ResponseCode != "00" {
		code := resp.ResponseCode
		if code == "" {
			code = "PAYMENT_DECLINED"
		}
		message := resp.ResponseMsg
		if message == "" {
			message = "akbank declined the transaction"
		}
		return "", &application.GatewayError{Code: code, Message: message}
	}

	return resp.TransactionID, nil
}

func (c *Client) CheckPaymentStatus(ctx context.Context, externalPaymentID string) (string, error) {
	var resp saleResponse
	path := "/api/v1/transactions/" + externalPaymentID
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.TxnStatus, nil
}

func (c *Client) send(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return &application.GatewayError{
				Code:    "GATEWAY_REQUEST_FAILED",
				Message: "error marshalling akbank request",
				Err:     err,
			}
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &application.GatewayError{
			Code:    "GATEWAY_REQUEST_FAILED",
			Message: "error creating akbank request",
			Err:     err,
		}
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &application.GatewayError{
			Code:    "GATEWAY_UNREACHABLE",
			Message: "akbank request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp saleResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.ResponseCode == "" {
			return &application.GatewayError{
				Code:    "GATEWAY_ERROR",
				Message: fmt.Sprintf("akbank returned status %d", resp.StatusCode),
			}
		}
		return &application.GatewayError{
			Code:    errResp.ResponseCode,
			Message: errResp.ResponseMsg,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return &application.GatewayError{
			Code:    "GATEWAY_RESPONSE_INVALID",
			Message: "error decoding akbank response",
			Err:     err,
		}
	}

	return nil
}
