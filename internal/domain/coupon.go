package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DiscountType enumerates coupon discount kinds.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
	DiscountFreeItem    DiscountType = "free_item"
)

// CouponStatus enumerates coupon lifecycle states.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusExpired  CouponStatus = "expired"
	CouponStatusDisabled CouponStatus = "disabled"
)

// Coupon is a workspace-scoped promotional offer. DiscountValue is
// required precisely when DiscountType is percentage or fixed_amount.
// Code is optional but unique within the workspace when present.
type Coupon struct {
	ID            uuid.UUID    `json:"id"`
	WorkspaceID   uuid.UUID    `json:"workspace_id"`
	OwnerID       uuid.UUID    `json:"owner_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Code          string       `json:"code,omitempty"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value,omitempty"`
	Status        CouponStatus `json:"status"`
	StartDate     *time.Time   `json:"start_date,omitempty"`
	EndDate       *time.Time   `json:"end_date,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Owner implements the authorization resource contract.
func (c *Coupon) Owner() uuid.UUID { return c.OwnerID }

// Workspace implements the authorization resource contract.
func (c *Coupon) Workspace() uuid.UUID { return c.WorkspaceID }

// Mutable reports whether the coupon can still be edited. Expired
// coupons are frozen; active and disabled ones remain editable.
func (c *Coupon) Mutable() bool { return c.Status != CouponStatusExpired }

// CouponRepository defines the interface for coupon storage.
type CouponRepository interface {
	Create(ctx context.Context, coupon *Coupon) error
	GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*Coupon, error)
	Update(ctx context.Context, coupon *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Coupon, int, error)
	CodeExists(ctx context.Context, workspaceID uuid.UUID, code string, ignoreID uuid.UUID) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
