package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/domain"
	"github.com/dumensel/payment-service/internal/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, conversation_id, amount, currency, status, method_type, provider,
	buyer_id, masked_card_number, external_payment_id, error_code, error_message,
	created_at, updated_at
`

type PaymentRepository struct {
	db *persistence.DB
}

func NewPaymentRepository(db *persistence.DB) application.PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment. The unique index on conversation_id is
// the idempotency gate: losing a concurrent insert race surfaces as
// ErrDuplicateConversationID.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, conversation_id, amount, currency, status, method_type, provider,
			buyer_id, masked_card_number, external_payment_id, error_code, error_message,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	p := toPaymentModel(payment)
	_, err := r.db.Pool.Exec(ctx, query,
		p.ID,
		p.ConversationID,
		p.Amount,
		p.Currency,
		p.Status,
		p.MethodType,
		p.Provider,
		p.BuyerID,
		p.MaskedCardNumber,
		p.ExternalPaymentID,
		p.ErrorCode,
		p.ErrorMessage,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return application.ErrDuplicateConversationID
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1,
			external_payment_id = $2, error_code = $3, error_message = $4,
			updated_at = $5
		WHERE id = $6
	`

	p := toPaymentModel(payment)
	result, err := r.db.Pool.Exec(ctx, query,
		p.Status,
		p.ExternalPaymentID,
		p.ErrorCode,
		p.ErrorMessage,
		p.UpdatedAt,
		p.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return application.ErrPaymentNotFound
	}

	return nil
}

// UpdateIfPending writes the payment outcome only while the stored row
// is still PENDING. The status predicate is the lost-update guard: a
// concurrently recorded SUCCESS or FAILED stays untouched and the
// caller gets ErrPaymentNotPending.
func (r *PaymentRepository) UpdateIfPending(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1,
			external_payment_id = $2, error_code = $3, error_message = $4,
			updated_at = $5
		WHERE id = $6 AND status = 'PENDING'
	`

	p := toPaymentModel(payment)
	result, err := r.db.Pool.Exec(ctx, query,
		p.Status,
		p.ExternalPaymentID,
		p.ErrorCode,
		p.ErrorMessage,
		p.UpdatedAt,
		p.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update pending payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return application.ErrPaymentNotPending
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByConversationID(ctx context.Context, conversationID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE conversation_id = $1`

	row := r.db.Pool.QueryRow(ctx, query, conversationID)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByExternalPaymentID(ctx context.Context, externalPaymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_payment_id = $1`

	row := r.db.Pool.QueryRow(ctx, query, externalPaymentID)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query payments by buyer_id: %w", err)
	}
	return collectPayments(rows)
}

// FindPendingOlderThan finds PENDING payments created before the cutoff
// time. The expirer worker feeds on this.
func (r *PaymentRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'PENDING'
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending payments: %w", err)
	}
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		var m PaymentModel
		err := row.Scan(
			&m.ID, &m.ConversationID, &m.Amount, &m.Currency, &m.Status, &m.MethodType, &m.Provider,
			&m.BuyerID, &m.MaskedCardNumber, &m.ExternalPaymentID, &m.ErrorCode, &m.ErrorMessage,
			&m.CreatedAt, &m.UpdatedAt,
		)
		return toDomainPayment(m), err
	})

	if err != nil {
		return nil, fmt.Errorf("scan payment rows: %w", err)
	}
	return results, nil
}

// scanPayment converts a database row into a domain Payment.
// Returns ErrPaymentNotFound if the row doesn't exist.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.Amount, &m.Currency, &m.Status, &m.MethodType, &m.Provider,
		&m.BuyerID, &m.MaskedCardNumber, &m.ExternalPaymentID, &m.ErrorCode, &m.ErrorMessage,
		&m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toDomainPayment(m), nil
}
