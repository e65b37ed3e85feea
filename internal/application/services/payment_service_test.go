package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/application/services"
	"github.com/dumensel/payment-service/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validCommand(conversationID string) services.CreatePaymentCommand {
	return services.CreatePaymentCommand{
		ConversationID: conversationID,
		Amount:         decimal.RequireFromString("250.00"),
		Currency:       "TRY",
		BuyerID:        "buyer-1",
		Provider:       "CRAFTGATE",
		Card: services.CardInfoCommand{
			CardHolderName: "Jane Doe",
			CardNumber:     "4242424242424242",
			ExpireMonth:    "12",
			ExpireYear:     fmt.Sprint(time.Now().Year() + 2),
			CVV:            "123",
		},
	}
}

func newPaymentService(t *testing.T, repo *MockPaymentRepository, gateway *MockGateway) *services.PaymentService {
	t.Helper()
	router, err := application.NewGatewayRouter(gateway)
	require.NoError(t, err)
	return services.NewPaymentService(repo, router, testLogger())
}

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("successful payment", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		gateway.ProcessPaymentFn = func(ctx context.Context, payment *domain.Payment) (string, error) {
			// The record must already be persisted as PENDING when the
			// gateway sees it.
			stored, err := repo.FindByConversationID(ctx, payment.ConversationID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusPending, stored.Status)
			return "ext-100", nil
		}
		svc := newPaymentService(t, repo, gateway)

		result, err := svc.CreatePayment(ctx, validCommand("conv-1"))

		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", result.Status)
		assert.Equal(t, "ext-100", result.ExternalPaymentID)
		assert.Equal(t, "************4242", result.MaskedCardNumber)
		assert.Equal(t, 1, gateway.ProcessCalls())

		stored, err := repo.FindByConversationID(ctx, "conv-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuccess, stored.Status)
	})

	t.Run("gateway decline becomes FAILED result, not an error", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		gateway.ProcessPaymentFn = func(ctx context.Context, payment *domain.Payment) (string, error) {
			return "", &application.GatewayError{Code: "CARD_DECLINED", Message: "insufficient funds"}
		}
		svc := newPaymentService(t, repo, gateway)

		result, err := svc.CreatePayment(ctx, validCommand("conv-2"))

		require.NoError(t, err)
		assert.Equal(t, "FAILED", result.Status)
		assert.Equal(t, "CARD_DECLINED", result.ErrorCode)
		assert.Equal(t, "insufficient funds", result.ErrorMessage)

		stored, err := repo.FindByConversationID(ctx, "conv-2")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, stored.Status)
	})

	t.Run("unexpected gateway failure is wrapped and recorded", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		gateway.ProcessPaymentFn = func(ctx context.Context, payment *domain.Payment) (string, error) {
			return "", errors.New("connection reset")
		}
		svc := newPaymentService(t, repo, gateway)

		result, err := svc.CreatePayment(ctx, validCommand("conv-3"))

		require.NoError(t, err)
		assert.Equal(t, "FAILED", result.Status)
		assert.Equal(t, "GATEWAY_FAILURE", result.ErrorCode)
	})

	t.Run("replay returns recorded outcome without second gateway call", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		svc := newPaymentService(t, repo, gateway)

		first, err := svc.CreatePayment(ctx, validCommand("conv-4"))
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		second, err := svc.CreatePayment(ctx, validCommand("conv-4"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Status, second.Status)
		assert.True(t, second.Replayed)
		assert.Equal(t, 1, gateway.ProcessCalls())
	})

	t.Run("replay of a FAILED payment returns the failure, no retry", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		gateway.ProcessPaymentFn = func(ctx context.Context, payment *domain.Payment) (string, error) {
			return "", &application.GatewayError{Code: "CARD_DECLINED", Message: "declined"}
		}
		svc := newPaymentService(t, repo, gateway)

		_, err := svc.CreatePayment(ctx, validCommand("conv-5"))
		require.NoError(t, err)

		replay, err := svc.CreatePayment(ctx, validCommand("conv-5"))
		require.NoError(t, err)

		assert.Equal(t, "FAILED", replay.Status)
		assert.Equal(t, 1, gateway.ProcessCalls())
	})

	t.Run("losing the insert race resolves to the winner's payment", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		svc := newPaymentService(t, repo, gateway)

		winner, err := svc.CreatePayment(ctx, validCommand("conv-6"))
		require.NoError(t, err)
		stored, err := repo.FindByConversationID(ctx, "conv-6")
		require.NoError(t, err)

		// Simulate the race: the duplicate check misses, the insert
		// collides, the re-read sees the winner's row.
		lookups := 0
		repo.FindByConversationIDFn = func(ctx context.Context, conversationID string) (*domain.Payment, error) {
			lookups++
			if lookups == 1 {
				return nil, application.ErrPaymentNotFound
			}
			return stored, nil
		}

		result, err := svc.CreatePayment(ctx, validCommand("conv-6"))

		require.NoError(t, err)
		assert.Equal(t, winner.ID, result.ID)
		assert.True(t, result.Replayed)
		assert.Equal(t, 1, gateway.ProcessCalls())
	})

	t.Run("validation failures collect every bad field", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		svc := newPaymentService(t, repo, gateway)

		cmd := validCommand("conv-7")
		cmd.Currency = "JPY"
		cmd.Card.CardNumber = "1234"
		cmd.Provider = "STRIPE"

		_, err := svc.CreatePayment(ctx, cmd)

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeValidation, svcErr.Code)
		assert.Len(t, svcErr.Fields, 3)
		assert.Equal(t, 0, gateway.ProcessCalls())
	})

	t.Run("persistence failure stops before the gateway", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		repo.CreateFn = func(ctx context.Context, payment *domain.Payment) error {
			return errors.New("connection refused")
		}
		gateway := NewMockGateway(domain.ProviderCraftgate)
		svc := newPaymentService(t, repo, gateway)

		_, err := svc.CreatePayment(ctx, validCommand("conv-8"))

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeInternal, svcErr.Code)
		assert.Equal(t, 0, gateway.ProcessCalls())
	})

	t.Run("unregistered provider leaves the PENDING record observable", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		svc := newPaymentService(t, repo, gateway)

		cmd := validCommand("conv-9")
		cmd.Provider = "AKBANK"

		_, err := svc.CreatePayment(ctx, cmd)

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeUnknownProvider, svcErr.Code)

		stored, err := repo.FindByConversationID(ctx, "conv-9")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, stored.Status)
	})
}

func TestPaymentService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("GetPayment maps missing id to NOT_FOUND", func(t *testing.T) {
		svc := newPaymentService(t, NewMockPaymentRepository(), NewMockGateway(domain.ProviderCraftgate))

		_, err := svc.GetPayment(ctx, "nope")

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)
	})

	t.Run("GetPaymentByConversationID returns the stored payment", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		svc := newPaymentService(t, repo, gateway)

		created, err := svc.CreatePayment(ctx, validCommand("conv-q1"))
		require.NoError(t, err)

		found, err := svc.GetPaymentByConversationID(ctx, "conv-q1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("ListPaymentsByBuyer clamps the page size", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		var seenLimit int
		repo.FindByBuyerIDFn = func(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Payment, error) {
			seenLimit = limit
			return nil, nil
		}
		svc := newPaymentService(t, repo, NewMockGateway(domain.ProviderCraftgate))

		_, err := svc.ListPaymentsByBuyer(ctx, "buyer-1", 5000, 0)
		require.NoError(t, err)
		assert.Equal(t, 20, seenLimit)
	})
}

func TestPaymentService_CheckProviderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns provider view for completed payment", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		gateway.CheckPaymentStatusFn = func(ctx context.Context, externalPaymentID string) (string, error) {
			assert.Equal(t, "ext-1", externalPaymentID)
			return "SUCCESS", nil
		}
		svc := newPaymentService(t, repo, gateway)

		created, err := svc.CreatePayment(ctx, validCommand("conv-s1"))
		require.NoError(t, err)

		status, err := svc.CheckProviderStatus(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", status)
	})

	t.Run("rejects payment without external id", func(t *testing.T) {
		repo := NewMockPaymentRepository()
		gateway := NewMockGateway(domain.ProviderCraftgate)
		gateway.ProcessPaymentFn = func(ctx context.Context, payment *domain.Payment) (string, error) {
			return "", &application.GatewayError{Code: "CARD_DECLINED", Message: "declined"}
		}
		svc := newPaymentService(t, repo, gateway)

		created, err := svc.CreatePayment(ctx, validCommand("conv-s2"))
		require.NoError(t, err)

		_, err = svc.CheckProviderStatus(ctx, created.ID)

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeInvalidState, svcErr.Code)
	})
}
