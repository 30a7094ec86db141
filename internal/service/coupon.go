package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/authz"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/pipeline"
	"github.com/clarionhq/daypress/internal/rules"
)

// CouponService handles coupon operations
type CouponService struct {
	couponRepo    domain.CouponRepository
	workspaceRepo domain.WorkspaceRepository
	pipe          *pipeline.Pipeline
	gate          *authz.Gate
}

// NewCouponService creates a new coupon service
func NewCouponService(
	couponRepo domain.CouponRepository,
	workspaceRepo domain.WorkspaceRepository,
	pipe *pipeline.Pipeline,
	gate *authz.Gate,
) *CouponService {
	return &CouponService{
		couponRepo:    couponRepo,
		workspaceRepo: workspaceRepo,
		pipe:          pipe,
		gate:          gate,
	}
}

// Create validates and persists a new active coupon.
func (s *CouponService) Create(ctx context.Context, actor domain.Actor, payload rules.Payload) (*domain.Coupon, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, actor.WorkspaceID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "coupon",
		Mode:    rules.ModeCreate,
		Schema:  rules.CouponSchema,
		Payload: payload,
		Authorize: func() bool {
			return isMember && s.gate.CanCreate(actor, actor.WorkspaceID)
		},
		Normalize: normalizeCoupon,
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			now := time.Now()
			coupon := &domain.Coupon{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				Status:      domain.CouponStatusActive,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			applyCoupon(coupon, p)

			if err := s.couponRepo.Create(ctx, coupon); err != nil {
				return nil, err
			}
			return coupon, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Coupon), nil
}

// Update validates and persists a partial update to a coupon. Expired
// coupons are frozen and reject updates.
func (s *CouponService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, payload rules.Payload) (*domain.Coupon, error) {
	coupon, err := s.getCoupon(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:    actor,
		Kind:     "coupon",
		Mode:     rules.ModeUpdate,
		Schema:   rules.CouponSchema,
		Payload:  payload,
		Existing: couponPayload(coupon),
		IgnoreID: coupon.ID,
		Authorize: func() bool {
			return s.gate.CanUpdate(actor, coupon)
		},
		Normalize: normalizeCoupon,
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			updated := *coupon
			applyCoupon(&updated, p)

			if err := s.couponRepo.Update(ctx, &updated); err != nil {
				return nil, err
			}
			return &updated, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Coupon), nil
}

// GetByID retrieves a coupon scoped to the actor's workspace.
func (s *CouponService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Coupon, error) {
	coupon, err := s.getCoupon(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccess(actor, coupon) {
		return nil, domain.ErrForbidden
	}
	return coupon, nil
}

// List retrieves a filtered page of coupons.
func (s *CouponService) List(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.Coupon, domain.PageInfo, error) {
	filter.Normalize()

	coupons, total, err := s.couponRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return coupons, domain.NewPageInfo(filter, total), nil
}

// Delete deletes a coupon. Owner-gated, any state.
func (s *CouponService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	coupon, err := s.getCoupon(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.gate.CanDelete(actor, coupon) {
		return domain.ErrForbidden
	}
	return s.couponRepo.Delete(ctx, id)
}

// Disable turns an active coupon off without losing it.
func (s *CouponService) Disable(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Coupon, error) {
	return s.setStatus(ctx, actor, id, domain.CouponStatusDisabled)
}

// Enable turns a disabled coupon back on.
func (s *CouponService) Enable(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Coupon, error) {
	return s.setStatus(ctx, actor, id, domain.CouponStatusActive)
}

// ExpireDue marks active coupons whose end date has passed and returns
// the number expired.
func (s *CouponService) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.couponRepo.ExpireDue(ctx, now)
}

func (s *CouponService) setStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.CouponStatus) (*domain.Coupon, error) {
	coupon, err := s.getCoupon(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanTransition(actor, coupon) {
		return nil, domain.ErrForbidden
	}
	if coupon.Status == domain.CouponStatusExpired {
		return nil, &domain.TransitionError{
			Entity: "coupon",
			From:   string(coupon.Status),
			Name:   "set status",
			Reason: "cannot change an expired coupon",
		}
	}
	if coupon.Status == status {
		return coupon, nil
	}

	coupon.Status = status
	coupon.UpdatedAt = time.Now()
	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) getCoupon(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Coupon, error) {
	coupon, err := s.couponRepo.GetByIDAndWorkspace(ctx, id, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, domain.ErrNotFound
	}
	return coupon, nil
}

// normalizeCoupon trims code whitespace before validation so the
// uniqueness rule compares clean values.
func normalizeCoupon(p rules.Payload) {
	if code := pipeline.StringField(p, "code"); code != "" {
		p.Set("code", strings.TrimSpace(code))
	}
}

func applyCoupon(coupon *domain.Coupon, p rules.Payload) {
	if v, ok := p.Get("title"); ok {
		coupon.Title = asString(v)
	}
	if v, ok := p.Get("description"); ok {
		coupon.Description = asString(v)
	}
	if v, ok := p.Get("code"); ok {
		coupon.Code = asString(v)
	}
	if v, ok := p.Get("discount_type"); ok {
		coupon.DiscountType = domain.DiscountType(asString(v))
	}
	if _, ok := p.Get("discount_value"); ok {
		coupon.DiscountValue = pipeline.NumberField(p, "discount_value")
	}
	if _, ok := p.Get("start_date"); ok {
		coupon.StartDate = pipeline.DateField(p, "start_date")
	}
	if _, ok := p.Get("end_date"); ok {
		coupon.EndDate = pipeline.DateField(p, "end_date")
	}
}

func couponPayload(coupon *domain.Coupon) rules.Payload {
	p := rules.Payload{
		"title":         coupon.Title,
		"discount_type": string(coupon.DiscountType),
	}
	if coupon.Description != "" {
		p["description"] = coupon.Description
	}
	if coupon.Code != "" {
		p["code"] = coupon.Code
	}
	if coupon.DiscountValue != 0 {
		p["discount_value"] = coupon.DiscountValue
	}
	if coupon.StartDate != nil {
		p["start_date"] = coupon.StartDate.Format(time.RFC3339)
	}
	if coupon.EndDate != nil {
		p["end_date"] = coupon.EndDate.Format(time.RFC3339)
	}
	return p
}
