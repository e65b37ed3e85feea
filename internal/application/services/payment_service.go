package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/domain"
)

// PaymentService orchestrates the create-payment use case: idempotency
// lookup, aggregate construction, PENDING persistence, gateway call,
// outcome recording. A duplicate conversation id never reaches a
// gateway twice.
type PaymentService struct {
	paymentRepo application.PaymentRepository
	router      *application.GatewayRouter
	logger      *slog.Logger
}

func NewPaymentService(
	paymentRepo application.PaymentRepository,
	router *application.GatewayRouter,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		router:      router,
		logger:      logger,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (*PaymentResult, error) {
	existing, err := s.paymentRepo.FindByConversationID(ctx, cmd.ConversationID)
	if err == nil {
		// Replay: return the recorded outcome without touching any
		// gateway.
		result := paymentResultFrom(existing)
		result.Replayed = true
		return result, nil
	}
	if !errors.Is(err, application.ErrPaymentNotFound) {
		return nil, application.NewInternalError(err)
	}

	payment, svcErr := s.paymentFromCommand(cmd)
	if svcErr != nil {
		return nil, svcErr
	}

	// Persist before the external call so a crash from here on leaves
	// a discoverable PENDING record for the conversation id.
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, application.ErrDuplicateConversationID) {
			// Lost a concurrent race for the key; the winner's row
			// answers this request.
			winner, findErr := s.paymentRepo.FindByConversationID(ctx, cmd.ConversationID)
			if findErr != nil {
				return nil, application.NewInternalError(findErr)
			}
			result := paymentResultFrom(winner)
			result.Replayed = true
			return result, nil
		}
		return nil, application.NewInternalError(err)
	}

	gateway, err := s.router.Select(payment.Provider)
	if err != nil {
		// The PENDING record stays observable; this is a
		// configuration failure, not a business outcome.
		return nil, err
	}

	externalID, err := gateway.ProcessPayment(ctx, payment)
	if err != nil {
		return s.recordFailure(ctx, payment, err)
	}

	if err := payment.MarkAsSuccess(externalID); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("payment succeeded",
		"payment_id", payment.ID,
		"conversation_id", payment.ConversationID,
		"provider", payment.Provider,
		"external_payment_id", externalID,
	)
	paymentOutcomes.WithLabelValues(string(payment.Provider), string(payment.Status)).Inc()

	return paymentResultFrom(payment), nil
}

// recordFailure turns a gateway error into a FAILED payment returned
// to the caller. A decline is a normal business outcome, not an
// exception.
func (s *PaymentService) recordFailure(ctx context.Context, payment *domain.Payment, gatewayErr error) (*PaymentResult, error) {
	gwErr, ok := application.IsGatewayError(gatewayErr)
	if !ok {
		gwErr = &application.GatewayError{Code: "GATEWAY_FAILURE", Message: gatewayErr.Error(), Err: gatewayErr}
	}

	if err := payment.MarkAsFailed(gwErr.Code, gwErr.Message); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Warn("payment failed",
		"payment_id", payment.ID,
		"conversation_id", payment.ConversationID,
		"provider", payment.Provider,
		"error_code", gwErr.Code,
	)
	paymentOutcomes.WithLabelValues(string(payment.Provider), string(payment.Status)).Inc()

	return paymentResultFrom(payment), nil
}

// paymentFromCommand builds the aggregate, collecting every field
// failure instead of stopping at the first.
func (s *PaymentService) paymentFromCommand(cmd CreatePaymentCommand) (*domain.Payment, *application.ServiceError) {
	var fields []application.FieldError

	currency, err := domain.ParseCurrency(cmd.Currency)
	if err != nil {
		fields = appendFieldError(fields, err)
	}

	var amount domain.Money
	if err == nil {
		amount, err = domain.NewMoney(cmd.Amount, currency)
		if err != nil {
			fields = appendFieldError(fields, err)
		}
	}

	card, err := domain.NewCardInfo(
		cmd.Card.CardHolderName,
		cmd.Card.CardNumber,
		cmd.Card.ExpireMonth,
		cmd.Card.ExpireYear,
		cmd.Card.CVV,
	)
	if err != nil {
		fields = appendFieldError(fields, err)
	}

	provider, err := domain.ParseProvider(cmd.Provider)
	if err != nil {
		fields = appendFieldError(fields, err)
	}

	if len(fields) > 0 {
		return nil, application.NewValidationError(fields...)
	}

	method, err := domain.NewPaymentMethod(domain.PaymentTypeCreditCard, &card)
	if err != nil {
		return nil, application.NewValidationErrorFrom(err)
	}

	payment, err := domain.NewPayment(cmd.ConversationID, amount, method, provider, cmd.BuyerID)
	if err != nil {
		return nil, application.NewValidationErrorFrom(err)
	}
	return payment, nil
}

func appendFieldError(fields []application.FieldError, err error) []application.FieldError {
	var invErr *domain.InvalidValueError
	if errors.As(err, &invErr) {
		return append(fields, application.FieldError{Field: invErr.Field, Reason: invErr.Reason})
	}
	return append(fields, application.FieldError{Field: "request", Reason: err.Error()})
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*PaymentResult, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, application.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError("payment not found: " + id)
		}
		return nil, application.NewInternalError(err)
	}
	return paymentResultFrom(payment), nil
}

func (s *PaymentService) GetPaymentByConversationID(ctx context.Context, conversationID string) (*PaymentResult, error) {
	payment, err := s.paymentRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, application.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError("payment not found for conversation: " + conversationID)
		}
		return nil, application.NewInternalError(err)
	}
	return paymentResultFrom(payment), nil
}

func (s *PaymentService) ListPaymentsByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]*PaymentResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	payments, err := s.paymentRepo.FindByBuyerID(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	results := make([]*PaymentResult, 0, len(payments))
	for _, p := range payments {
		results = append(results, paymentResultFrom(p))
	}
	return results, nil
}

// CheckProviderStatus probes the provider for its view of a payment
// that already has an external id.
func (s *PaymentService) CheckProviderStatus(ctx context.Context, id string) (string, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, application.ErrPaymentNotFound) {
			return "", application.NewNotFoundError("payment not found: " + id)
		}
		return "", application.NewInternalError(err)
	}
	if payment.ExternalPaymentID == "" {
		return "", application.NewInvalidStateError(errors.New("payment has no external payment id"))
	}

	gateway, err := s.router.Select(payment.Provider)
	if err != nil {
		return "", err
	}
	return gateway.CheckPaymentStatus(ctx, payment.ExternalPaymentID)
}
