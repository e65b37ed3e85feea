package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dumensel/payment-service/internal/application"
)

// ExpirerWorker sweeps payments stuck in PENDING. A payment stays
// PENDING only when the process died between persisting the record and
// recording the gateway outcome; after the timeout the safe terminal
// state is FAILED.
type ExpirerWorker struct {
	paymentRepo    application.PaymentRepository
	interval       time.Duration
	pendingTimeout time.Duration
	batchSize      int
	logger         *slog.Logger
}

func NewExpirerWorker(
	paymentRepo application.PaymentRepository,
	interval time.Duration,
	pendingTimeout time.Duration,
	batchSize int,
	logger *slog.Logger,
) *ExpirerWorker {
	return &ExpirerWorker{
		paymentRepo:    paymentRepo,
		interval:       interval,
		pendingTimeout: pendingTimeout,
		batchSize:      batchSize,
		logger:         logger,
	}
}

func (w *ExpirerWorker) Start(ctx context.Context) {
	w.logger.Info("expirer worker started",
		"interval", w.interval,
		"pending_timeout", w.pendingTimeout,
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.processStalePayments(ctx); err != nil {
		w.logger.Error("stale payment processing failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expirer worker stopping")
			return
		case <-ticker.C:
			if err := w.processStalePayments(ctx); err != nil {
				w.logger.Error("stale payment processing failed", "error", err)
			}
		}
	}
}

func (w *ExpirerWorker) processStalePayments(ctx context.Context) error {
	cutoff := time.Now().Add(-w.pendingTimeout)

	stale, err := w.paymentRepo.FindPendingOlderThan(ctx, cutoff, w.batchSize)
	if err != nil {
		return err
	}

	if len(stale) == 0 {
		return nil
	}

	var expired int

	for _, payment := range stale {
		if err := payment.MarkAsFailed("GATEWAY_TIMEOUT", "payment did not complete within the allowed time"); err != nil {
			w.logger.Error("failed to mark stale payment",
				"payment_id", payment.ID,
				"error", err)
			continue
		}
		if err := w.paymentRepo.UpdateIfPending(ctx, payment); err != nil {
			if errors.Is(err, application.ErrPaymentNotPending) {
				// The payment completed between our snapshot and this
				// write; its recorded outcome wins.
				w.logger.Debug("stale payment completed concurrently, skipping",
					"payment_id", payment.ID)
				continue
			}
			w.logger.Error("failed to persist stale payment",
				"payment_id", payment.ID,
				"error", err)
			continue
		}
		expired++
	}

	w.logger.Info("processed stale pending payments",
		"found", len(stale),
		"marked_failed", expired,
	)

	return nil
}
