package application

import (
	"context"
	"errors"
	"time"

	"github.com/dumensel/payment-service/internal/domain"
)

// Sentinel errors shared by repository implementations.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPointsNotFound  = errors.New("user points not found")

	// ErrDuplicateConversationID is returned by Create when another
	// payment already holds the conversation id. The caller resolves
	// it by re-reading the winner's row.
	ErrDuplicateConversationID = errors.New("conversation id already exists")

	// ErrPaymentNotPending is returned by UpdateIfPending when the
	// stored row already left PENDING; the caller's snapshot is stale
	// and must not overwrite the recorded outcome.
	ErrPaymentNotPending = errors.New("payment is no longer pending")

	// ErrVersionConflict signals a lost update on the points ledger;
	// the caller reloads and retries.
	ErrVersionConflict = errors.New("user points modified concurrently")
)

// PaymentRepository persists Payment aggregates. Create must be
// atomic-unique on conversation id.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	// UpdateIfPending persists the payment only while the stored row
	// is still PENDING, so a writer working from a stale snapshot
	// cannot clobber a concurrently recorded outcome.
	UpdateIfPending(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindByConversationID(ctx context.Context, conversationID string) (*domain.Payment, error)
	FindByExternalPaymentID(ctx context.Context, externalPaymentID string) (*domain.Payment, error)
	FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Payment, error)
	FindPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error)
}

// PointsRepository persists UserPoints ledgers. Save detects lost
// updates via the aggregate's version and returns ErrVersionConflict
// for stale writers.
type PointsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.UserPoints, error)
	Save(ctx context.Context, points *domain.UserPoints) (*domain.UserPoints, error)
	Delete(ctx context.Context, userID string) error
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

// PointsCache is a best-effort read-through cache over ledger lookups.
// Misses and failures fall back to the repository.
type PointsCache interface {
	Get(ctx context.Context, userID string) (*domain.UserPoints, bool)
	Set(ctx context.Context, points *domain.UserPoints)
	Invalidate(ctx context.Context, userID string)
}

// PaymentGateway is the uniform contract every provider client
// implements. ProcessPayment makes exactly one charge attempt and
// returns the provider's payment id; failures of any kind come back as
// *GatewayError.
type PaymentGateway interface {
	Provider() domain.Provider
	ProcessPayment(ctx context.Context, payment *domain.Payment) (string, error)
	CheckPaymentStatus(ctx context.Context, externalPaymentID string) (string, error)
}
