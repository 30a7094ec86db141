package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clarionhq/daypress/internal/authz"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
)

func newCouponService(couponRepo *MockCouponRepository, workspaceRepo *MockWorkspaceRepository) *CouponService {
	return NewCouponService(couponRepo, workspaceRepo, newTestPipeline(), authz.NewGate())
}

func TestCouponService_Create(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.New(), WorkspaceID: uuid.New()}

	t.Run("success", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		workspaceRepo := new(MockWorkspaceRepository)
		svc := newCouponService(couponRepo, workspaceRepo)

		workspaceRepo.On("IsMember", ctx, actor.WorkspaceID, actor.ID).Return(true, nil)
		couponRepo.On("Create", ctx, mock.AnythingOfType("*domain.Coupon")).Return(nil)

		coupon, err := svc.Create(ctx, actor, rules.Payload{
			"title":          "Ten Percent Off",
			"code":           "  SAVE10 ",
			"discount_type":  "percentage",
			"discount_value": float64(10),
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.CouponStatusActive, coupon.Status)
		assert.Equal(t, "SAVE10", coupon.Code)
		assert.Equal(t, float64(10), coupon.DiscountValue)

		couponRepo.AssertExpectations(t)
	})

	t.Run("missing discount value", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		workspaceRepo := new(MockWorkspaceRepository)
		svc := newCouponService(couponRepo, workspaceRepo)

		workspaceRepo.On("IsMember", ctx, actor.WorkspaceID, actor.ID).Return(true, nil)

		_, err := svc.Create(ctx, actor, rules.Payload{
			"title":         "Broken",
			"discount_type": "fixed_amount",
		})
		var verr *rules.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "required", verr.Fields["discount_value"])
		couponRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCouponService_DisableEnable(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.New(), WorkspaceID: uuid.New()}

	newCoupon := func(status domain.CouponStatus) *domain.Coupon {
		return &domain.Coupon{
			ID:           uuid.New(),
			WorkspaceID:  actor.WorkspaceID,
			OwnerID:      actor.ID,
			Title:        "Seasonal",
			DiscountType: domain.DiscountFreeItem,
			Status:       status,
		}
	}

	t.Run("disable active", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

		coupon := newCoupon(domain.CouponStatusActive)
		couponRepo.On("GetByIDAndWorkspace", ctx, coupon.ID, actor.WorkspaceID).Return(coupon, nil)
		couponRepo.On("Update", ctx, mock.AnythingOfType("*domain.Coupon")).Return(nil)

		out, err := svc.Disable(ctx, actor, coupon.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.CouponStatusDisabled, out.Status)
	})

	t.Run("disable twice is a no-op", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

		coupon := newCoupon(domain.CouponStatusDisabled)
		couponRepo.On("GetByIDAndWorkspace", ctx, coupon.ID, actor.WorkspaceID).Return(coupon, nil)

		out, err := svc.Disable(ctx, actor, coupon.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.CouponStatusDisabled, out.Status)
		couponRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("expired coupons are frozen", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

		coupon := newCoupon(domain.CouponStatusExpired)
		couponRepo.On("GetByIDAndWorkspace", ctx, coupon.ID, actor.WorkspaceID).Return(coupon, nil)

		_, err := svc.Enable(ctx, actor, coupon.ID)
		var te *domain.TransitionError
		assert.ErrorAs(t, err, &te)
		assert.Equal(t, "cannot change an expired coupon", te.Error())
	})

	t.Run("non-owner denied", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

		coupon := newCoupon(domain.CouponStatusActive)
		coupon.OwnerID = uuid.New()
		couponRepo.On("GetByIDAndWorkspace", ctx, coupon.ID, actor.WorkspaceID).Return(coupon, nil)

		_, err := svc.Disable(ctx, actor, coupon.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestCouponService_Update(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.New(), WorkspaceID: uuid.New()}

	t.Run("expired coupon not editable", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

		coupon := &domain.Coupon{
			ID:           uuid.New(),
			WorkspaceID:  actor.WorkspaceID,
			OwnerID:      actor.ID,
			Title:        "Expired Deal",
			DiscountType: domain.DiscountFreeItem,
			Status:       domain.CouponStatusExpired,
		}
		couponRepo.On("GetByIDAndWorkspace", ctx, coupon.ID, actor.WorkspaceID).Return(coupon, nil)

		_, err := svc.Update(ctx, actor, coupon.ID, rules.Payload{"title": "Still Expired"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("end date must follow start date", func(t *testing.T) {
		couponRepo := new(MockCouponRepository)
		svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

		start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		coupon := &domain.Coupon{
			ID:           uuid.New(),
			WorkspaceID:  actor.WorkspaceID,
			OwnerID:      actor.ID,
			Title:        "Summer",
			DiscountType: domain.DiscountFreeItem,
			Status:       domain.CouponStatusActive,
			StartDate:    &start,
		}
		couponRepo.On("GetByIDAndWorkspace", ctx, coupon.ID, actor.WorkspaceID).Return(coupon, nil)

		// The persisted start date is consulted even though only the
		// end date is resubmitted.
		_, err := svc.Update(ctx, actor, coupon.ID, rules.Payload{"end_date": "2026-05-01"})
		var verr *rules.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "must be after start_date", verr.Fields["end_date"])
	})
}

func TestCouponService_ExpireDue(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	couponRepo := new(MockCouponRepository)
	svc := newCouponService(couponRepo, new(MockWorkspaceRepository))

	couponRepo.On("ExpireDue", ctx, now).Return(int64(3), nil)

	n, err := svc.ExpireDue(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
