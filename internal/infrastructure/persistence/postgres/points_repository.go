package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/domain"
	"github.com/dumensel/payment-service/internal/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
)

type PointsRepository struct {
	db *persistence.DB
}

func NewPointsRepository(db *persistence.DB) application.PointsRepository {
	return &PointsRepository{db: db}
}

func (r *PointsRepository) FindByUserID(ctx context.Context, userID string) (*domain.UserPoints, error) {
	query := `
		SELECT user_id, total_points, available_points, locked_points, version,
		       created_at, last_updated
		FROM user_points WHERE user_id = $1
	`

	var m UserPointsModel
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&m.UserID, &m.Total, &m.Available, &m.Locked, &m.Version,
		&m.CreatedAt, &m.LastUpdated,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrPointsNotFound
		}
		return nil, fmt.Errorf("failed to scan user points: %w", err)
	}
	return toDomainUserPoints(m), nil
}

// Save writes the ledger with an optimistic-lock check. A version-zero
// aggregate is inserted; anything else must update the exact version it
// was loaded at. Both a duplicate insert and a stale update report
// ErrVersionConflict so the caller reloads and retries.
func (r *PointsRepository) Save(ctx context.Context, points *domain.UserPoints) (*domain.UserPoints, error) {
	if points.Version == 0 {
		return r.insert(ctx, points)
	}
	return r.update(ctx, points)
}

func (r *PointsRepository) insert(ctx context.Context, points *domain.UserPoints) (*domain.UserPoints, error) {
	query := `
		INSERT INTO user_points (
			user_id, total_points, available_points, locked_points, version,
			created_at, last_updated
		) VALUES ($1, $2, $3, $4, 1, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		points.UserID,
		points.Total,
		points.Available,
		points.Locked,
		points.CreatedAt,
		points.LastUpdated,
	)

	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, application.ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to insert user points: %w", err)
	}

	return domain.ReconstituteUserPoints(
		points.UserID, points.Total, points.Available, points.Locked,
		1, points.CreatedAt, points.LastUpdated,
	), nil
}

func (r *PointsRepository) update(ctx context.Context, points *domain.UserPoints) (*domain.UserPoints, error) {
	query := `
		UPDATE user_points
		SET total_points = $1, available_points = $2, locked_points = $3,
			version = version + 1, last_updated = $4
		WHERE user_id = $5 AND version = $6
	`

	result, err := r.db.Pool.Exec(ctx, query,
		points.Total,
		points.Available,
		points.Locked,
		points.LastUpdated,
		points.UserID,
		points.Version,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to update user points: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row moved past our version or it was deleted;
		// both mean our copy is stale.
		return nil, application.ErrVersionConflict
	}

	return domain.ReconstituteUserPoints(
		points.UserID, points.Total, points.Available, points.Locked,
		points.Version+1, points.CreatedAt, points.LastUpdated,
	), nil
}

func (r *PointsRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM user_points WHERE user_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user points: %w", err)
	}

	if result.RowsAffected() == 0 {
		return application.ErrPointsNotFound
	}

	return nil
}

func (r *PointsRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_points WHERE user_id = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user points existence: %w", err)
	}
	return exists, nil
}
