package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumensel/payment-service/internal/domain"
)

func createTestPayment(t *testing.T) *domain.Payment {
	t.Helper()

	money, err := domain.NewMoney(decimal.RequireFromString("100.00"), domain.CurrencyTRY)
	require.NoError(t, err)

	card, err := domain.NewCardInfo("Jane Doe", validPAN, "12", fmt.Sprint(time.Now().Year()+2), "123")
	require.NoError(t, err)

	method, err := domain.NewPaymentMethod(domain.PaymentTypeCreditCard, &card)
	require.NoError(t, err)

	payment, err := domain.NewPayment("conv-123", money, method, domain.ProviderCraftgate, "buyer-1")
	require.NoError(t, err)
	return payment
}

func TestNewPayment(t *testing.T) {
	t.Run("creates payment in PENDING", func(t *testing.T) {
		payment := createTestPayment(t)

		assert.NotEmpty(t, payment.ID)
		assert.Equal(t, "conv-123", payment.ConversationID)
		assert.Equal(t, domain.StatusPending, payment.Status)
		assert.Equal(t, domain.ProviderCraftgate, payment.Provider)
		assert.Equal(t, "************4242", payment.MaskedCardNumber)
		assert.NotZero(t, payment.CreatedAt)
	})

	t.Run("rejects empty conversation id", func(t *testing.T) {
		money, _ := domain.NewMoney(decimal.RequireFromString("100"), domain.CurrencyTRY)

		_, err := domain.NewPayment("", money, domain.PaymentMethod{Type: domain.PaymentTypeCreditCard}, domain.ProviderCraftgate, "buyer-1")
		assert.Error(t, err)
	})

	t.Run("rejects empty buyer id", func(t *testing.T) {
		money, _ := domain.NewMoney(decimal.RequireFromString("100"), domain.CurrencyTRY)

		_, err := domain.NewPayment("conv-123", money, domain.PaymentMethod{Type: domain.PaymentTypeCreditCard}, domain.ProviderCraftgate, "")
		assert.Error(t, err)
	})
}

func TestNewPaymentMethod(t *testing.T) {
	t.Run("credit card requires card info", func(t *testing.T) {
		_, err := domain.NewPaymentMethod(domain.PaymentTypeCreditCard, nil)
		assert.Error(t, err)
	})
}

func TestPayment_StateTransitions(t *testing.T) {
	t.Run("PENDING -> SUCCESS records external id", func(t *testing.T) {
		payment := createTestPayment(t)

		err := payment.MarkAsSuccess("ext-42")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuccess, payment.Status)
		assert.Equal(t, "ext-42", payment.ExternalPaymentID)
	})

	t.Run("PENDING -> FAILED records error detail", func(t *testing.T) {
		payment := createTestPayment(t)

		err := payment.MarkAsFailed("CARD_DECLINED", "insufficient funds")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, payment.Status)
		assert.Equal(t, "CARD_DECLINED", payment.ErrorCode)
		assert.Equal(t, "insufficient funds", payment.ErrorMessage)
	})

	t.Run("PENDING -> CANCELLED", func(t *testing.T) {
		payment := createTestPayment(t)

		require.NoError(t, payment.Cancel())
		assert.Equal(t, domain.StatusCancelled, payment.Status)
	})

	t.Run("SUCCESS cannot be failed", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkAsSuccess("ext-42"))

		err := payment.MarkAsFailed("LATE_DECLINE", "too late")

		assert.Error(t, err)
		_, isDomainErr := domain.IsDomainError(err)
		assert.True(t, isDomainErr)
		assert.Equal(t, domain.StatusSuccess, payment.Status)
		assert.Equal(t, "ext-42", payment.ExternalPaymentID)
	})

	t.Run("SUCCESS cannot be cancelled", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkAsSuccess("ext-42"))

		err := payment.Cancel()

		assert.Error(t, err)
		assert.Equal(t, domain.StatusSuccess, payment.Status)
	})

	t.Run("SUCCESS cannot succeed twice", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkAsSuccess("ext-42"))

		err := payment.MarkAsSuccess("ext-43")

		assert.Error(t, err)
		assert.Equal(t, "ext-42", payment.ExternalPaymentID)
	})

	t.Run("FAILED payment can still be cancelled", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkAsFailed("CARD_DECLINED", "declined"))

		require.NoError(t, payment.Cancel())
		assert.Equal(t, domain.StatusCancelled, payment.Status)
	})
}

func TestPaymentStatus_IsFinal(t *testing.T) {
	assert.False(t, domain.StatusPending.IsFinal())
	for _, status := range []domain.PaymentStatus{
		domain.StatusSuccess, domain.StatusFailed, domain.StatusCancelled, domain.StatusRefunded,
	} {
		assert.True(t, status.IsFinal(), "status %s", status)
	}
}

func TestPayment_IsSameConversation(t *testing.T) {
	payment := createTestPayment(t)

	assert.True(t, payment.IsSameConversation("conv-123"))
	assert.False(t, payment.IsSameConversation("conv-999"))
}

func TestParseProvider(t *testing.T) {
	t.Run("accepts known providers", func(t *testing.T) {
		for _, name := range []string{"CRAFTGATE", "AKBANK"} {
			provider, err := domain.ParseProvider(name)
			require.NoError(t, err)
			assert.Equal(t, domain.Provider(name), provider)
		}
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		_, err := domain.ParseProvider("STRIPE")
		assert.Error(t, err)
	})
}
