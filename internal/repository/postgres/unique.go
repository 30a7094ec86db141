package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UniquenessChecker answers workspace-scoped uniqueness questions for
// the validation rules. Each scope maps to one repository lookup.
type UniquenessChecker struct {
	content *ContentRepository
	coupons *CouponRepository
}

// NewUniquenessChecker creates a new uniqueness checker
func NewUniquenessChecker(content *ContentRepository, coupons *CouponRepository) *UniquenessChecker {
	return &UniquenessChecker{content: content, coupons: coupons}
}

// IsUnique reports whether value is free to use within the workspace,
// ignoring the record identified by ignoreID.
func (c *UniquenessChecker) IsUnique(ctx context.Context, scope, value string, workspaceID, ignoreID uuid.UUID) (bool, error) {
	switch scope {
	case "content.slug":
		exists, err := c.content.SlugExists(ctx, workspaceID, value, ignoreID)
		if err != nil {
			return false, err
		}
		return !exists, nil
	case "coupon.code":
		exists, err := c.coupons.CodeExists(ctx, workspaceID, value, ignoreID)
		if err != nil {
			return false, err
		}
		return !exists, nil
	default:
		return false, fmt.Errorf("unknown uniqueness scope %q", scope)
	}
}
