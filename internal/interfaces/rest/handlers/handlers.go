package handlers

import (
	"log/slog"

	"github.com/dumensel/payment-service/internal/application/services"
)

// Handlers holds the HTTP entry points for payments and points.
type Handlers struct {
	paymentService *services.PaymentService
	pointsService  *services.PointsService
	logger         *slog.Logger
}

func NewHandlers(
	paymentService *services.PaymentService,
	pointsService *services.PointsService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		paymentService: paymentService,
		pointsService:  pointsService,
		logger:         logger,
	}
}
