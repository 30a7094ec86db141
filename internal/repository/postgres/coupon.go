package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clarionhq/daypress/internal/domain"
)

// CouponRepository handles coupon data access
type CouponRepository struct {
	db *DB
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *DB) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `
	id, workspace_id, owner_id, title, description, code, discount_type,
	discount_value, status, start_date, end_date, created_at, updated_at
`

// Create creates a new coupon
func (r *CouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		coupon.ID,
		coupon.WorkspaceID,
		coupon.OwnerID,
		coupon.Title,
		coupon.Description,
		nullString(coupon.Code),
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.Status,
		coupon.StartDate,
		coupon.EndDate,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// GetByIDAndWorkspace retrieves a coupon by ID scoped to a workspace
func (r *CouponRepository) GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 AND workspace_id = $2`

	var coupon domain.Coupon
	var code *string
	err := r.db.Pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&coupon.ID,
		&coupon.WorkspaceID,
		&coupon.OwnerID,
		&coupon.Title,
		&coupon.Description,
		&code,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.Status,
		&coupon.StartDate,
		&coupon.EndDate,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	if code != nil {
		coupon.Code = *code
	}

	return &coupon, nil
}

// Update updates a coupon
func (r *CouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		UPDATE coupons
		SET title = $2,
		    description = $3,
		    code = $4,
		    discount_type = $5,
		    discount_value = $6,
		    status = $7,
		    start_date = $8,
		    end_date = $9,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		coupon.ID,
		coupon.Title,
		coupon.Description,
		nullString(coupon.Code),
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.Status,
		coupon.StartDate,
		coupon.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	return nil
}

// Delete deletes a coupon
func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return nil
}

// List retrieves a filtered page of coupons with the total count.
func (r *CouponRepository) List(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.Coupon, int, error) {
	where := "WHERE workspace_id = $1"
	args := []any{workspaceID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR code ILIKE $%d)", n, n, n)
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM coupons "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT `+couponColumns+`
		FROM coupons
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var coupon domain.Coupon
		var code *string
		if err := rows.Scan(
			&coupon.ID,
			&coupon.WorkspaceID,
			&coupon.OwnerID,
			&coupon.Title,
			&coupon.Description,
			&code,
			&coupon.DiscountType,
			&coupon.DiscountValue,
			&coupon.Status,
			&coupon.StartDate,
			&coupon.EndDate,
			&coupon.CreatedAt,
			&coupon.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan coupon: %w", err)
		}
		if code != nil {
			coupon.Code = *code
		}
		coupons = append(coupons, coupon)
	}

	return coupons, total, nil
}

// CodeExists checks code uniqueness within a workspace, excluding the
// record under update. Codes are compared case-insensitively.
func (r *CouponRepository) CodeExists(ctx context.Context, workspaceID uuid.UUID, code string, ignoreID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM coupons
			WHERE workspace_id = $1 AND LOWER(code) = LOWER($2) AND id != $3
		)
	`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, workspaceID, code, ignoreID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check coupon code: %w", err)
	}

	return exists, nil
}

// ExpireDue marks active coupons whose end date has passed.
func (r *CouponRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE coupons
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND end_date IS NOT NULL AND end_date <= $3
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		domain.CouponStatusExpired,
		domain.CouponStatusActive,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire coupons: %w", err)
	}

	return tag.RowsAffected(), nil
}
