package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/application/services"
	"github.com/dumensel/payment-service/internal/interfaces/rest"
)

func (h *Handlers) GetUserPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	result, err := h.pointsService.GetUserPoints(r.Context(), userID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) EarnPoints(w http.ResponseWriter, r *http.Request) {
	h.mutatePoints(w, r, h.pointsService.EarnPoints)
}

func (h *Handlers) SpendPoints(w http.ResponseWriter, r *http.Request) {
	h.mutatePoints(w, r, h.pointsService.SpendPoints)
}

func (h *Handlers) LockPoints(w http.ResponseWriter, r *http.Request) {
	h.mutatePoints(w, r, h.pointsService.LockPoints)
}

func (h *Handlers) UnlockPoints(w http.ResponseWriter, r *http.Request) {
	h.mutatePoints(w, r, h.pointsService.UnlockPoints)
}

func (h *Handlers) ConsumeLockedPoints(w http.ResponseWriter, r *http.Request) {
	h.mutatePoints(w, r, h.pointsService.ConsumeLockedPoints)
}

func (h *Handlers) mutatePoints(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, cmd services.PointsCommand) (*services.UserPointsResult, error),
) {
	userID := chi.URLParam(r, "userId")

	var req PointsRequest
	if !decodeAndValidate(w, r, &req, h) {
		return
	}

	result, err := op(r.Context(), services.PointsCommand{
		UserID: userID,
		Points: req.Points,
		Reason: req.Reason,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, result)
}

// CheckPoints handles GET /api/v1/points/{userId}/check?required=N.
func (h *Handlers) CheckPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	required, err := decimal.NewFromString(r.URL.Query().Get("required"))
	if err != nil {
		rest.WriteError(w, application.NewValidationError(application.FieldError{
			Field:  "required",
			Reason: "must be a decimal number",
		}), h.logger)
		return
	}

	enough, err := h.pointsService.HasEnoughPoints(r.Context(), userID, required)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]any{
		"userId":    userID,
		"required":  required,
		"hasEnough": enough,
	})
}

func (h *Handlers) DeleteUserPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := h.pointsService.DeleteUserPoints(r.Context(), userID); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
