package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/domain"
)

// saveRetries bounds the reload loop on optimistic-version conflicts.
const saveRetries = 3

// PointsService runs the ledger use cases. Every mutation is
// load-mutate-save on the aggregate; a concurrent writer surfaces as a
// version conflict and triggers a reload, never a lost update.
type PointsService struct {
	pointsRepo application.PointsRepository
	cache      application.PointsCache
	logger     *slog.Logger
}

// NewPointsService accepts a nil cache; lookups then always hit the
// repository.
func NewPointsService(
	pointsRepo application.PointsRepository,
	cache application.PointsCache,
	logger *slog.Logger,
) *PointsService {
	return &PointsService{
		pointsRepo: pointsRepo,
		cache:      cache,
		logger:     logger,
	}
}

// GetUserPoints returns the ledger, creating a zero-balance one on
// first access.
func (s *PointsService) GetUserPoints(ctx context.Context, userID string) (*UserPointsResult, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, userID); ok {
			return userPointsResultFrom(cached), nil
		}
	}

	points, err := s.pointsRepo.FindByUserID(ctx, userID)
	if errors.Is(err, application.ErrPointsNotFound) {
		created, createErr := domain.NewUserPoints(userID)
		if createErr != nil {
			return nil, application.NewValidationErrorFrom(createErr)
		}
		points, err = s.pointsRepo.Save(ctx, created)
		if errors.Is(err, application.ErrVersionConflict) {
			// Another request created it first; read theirs.
			points, err = s.pointsRepo.FindByUserID(ctx, userID)
		}
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, points)
	}
	return userPointsResultFrom(points), nil
}

// EarnPoints credits the ledger, creating it if absent.
func (s *PointsService) EarnPoints(ctx context.Context, cmd PointsCommand) (*UserPointsResult, error) {
	return s.mutate(ctx, cmd, true, func(u *domain.UserPoints) error {
		return u.EarnPoints(cmd.Points)
	})
}

// SpendPoints debits available points. Spend never auto-creates: a
// missing ledger is a distinct not-found failure.
func (s *PointsService) SpendPoints(ctx context.Context, cmd PointsCommand) (*UserPointsResult, error) {
	return s.mutate(ctx, cmd, false, func(u *domain.UserPoints) error {
		return u.SpendPoints(cmd.Points)
	})
}

func (s *PointsService) LockPoints(ctx context.Context, cmd PointsCommand) (*UserPointsResult, error) {
	return s.mutate(ctx, cmd, false, func(u *domain.UserPoints) error {
		return u.LockPoints(cmd.Points)
	})
}

func (s *PointsService) UnlockPoints(ctx context.Context, cmd PointsCommand) (*UserPointsResult, error) {
	return s.mutate(ctx, cmd, false, func(u *domain.UserPoints) error {
		return u.UnlockPoints(cmd.Points)
	})
}

func (s *PointsService) ConsumeLockedPoints(ctx context.Context, cmd PointsCommand) (*UserPointsResult, error) {
	return s.mutate(ctx, cmd, false, func(u *domain.UserPoints) error {
		return u.ConsumeLockedPoints(cmd.Points)
	})
}

// HasEnoughPoints reports spendable balance. A non-existent ledger has
// nothing to spend: false, not an error.
func (s *PointsService) HasEnoughPoints(ctx context.Context, userID string, required decimal.Decimal) (bool, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, userID); ok {
			return cached.HasEnoughPoints(required), nil
		}
	}

	points, err := s.pointsRepo.FindByUserID(ctx, userID)
	if errors.Is(err, application.ErrPointsNotFound) {
		return false, nil
	}
	if err != nil {
		return false, application.NewInternalError(err)
	}
	return points.HasEnoughPoints(required), nil
}

// DeleteUserPoints removes a ledger entirely. Administrative reset, no
// business rules attached.
func (s *PointsService) DeleteUserPoints(ctx context.Context, userID string) error {
	exists, err := s.pointsRepo.ExistsByUserID(ctx, userID)
	if err != nil {
		return application.NewInternalError(err)
	}
	if !exists {
		return application.NewNotFoundError("user points not found for user: " + userID)
	}
	if err := s.pointsRepo.Delete(ctx, userID); err != nil {
		return application.NewInternalError(err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return nil
}

func (s *PointsService) mutate(
	ctx context.Context,
	cmd PointsCommand,
	autoCreate bool,
	op func(*domain.UserPoints) error,
) (*UserPointsResult, error) {
	for attempt := 0; attempt < saveRetries; attempt++ {
		points, err := s.pointsRepo.FindByUserID(ctx, cmd.UserID)
		if errors.Is(err, application.ErrPointsNotFound) {
			if !autoCreate {
				return nil, application.NewNotFoundError("user points not found for user: " + cmd.UserID)
			}
			points, err = domain.NewUserPoints(cmd.UserID)
			if err != nil {
				return nil, application.NewValidationErrorFrom(err)
			}
		} else if err != nil {
			return nil, application.NewInternalError(err)
		}

		if err := op(points); err != nil {
			return nil, mapPointsError(err)
		}

		saved, err := s.pointsRepo.Save(ctx, points)
		if err == nil {
			if s.cache != nil {
				s.cache.Invalidate(ctx, cmd.UserID)
				s.cache.Set(ctx, saved)
			}
			if cmd.Reason != "" {
				s.logger.Info("points updated", "user_id", cmd.UserID, "reason", cmd.Reason)
			}
			return userPointsResultFrom(saved), nil
		}
		if errors.Is(err, application.ErrVersionConflict) {
			s.logger.Debug("points version conflict, retrying", "user_id", cmd.UserID, "attempt", attempt+1)
			continue
		}
		return nil, application.NewInternalError(err)
	}
	return nil, application.NewInternalError(fmt.Errorf("user points save kept conflicting for user %s", cmd.UserID))
}

func mapPointsError(err error) error {
	var invErr *domain.InvalidValueError
	if errors.As(err, &invErr) {
		return application.NewValidationError(application.FieldError{Field: invErr.Field, Reason: invErr.Reason})
	}
	var insufErr *domain.InsufficientPointsError
	if errors.As(err, &insufErr) {
		return application.NewInsufficientPointsError(insufErr)
	}
	var lockErr *domain.LockedPointsError
	if errors.As(err, &lockErr) {
		return application.NewInvalidStateError(lockErr)
	}
	return application.NewInternalError(err)
}
