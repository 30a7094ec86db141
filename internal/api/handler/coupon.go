package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/service"
)

// CouponHandler handles coupon endpoints
type CouponHandler struct {
	couponService *service.CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// Create handles coupon creation
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	coupon, err := h.couponService.Create(r.Context(), a, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, coupon)
}

// Update handles partial coupon updates
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "couponID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	coupon, err := h.couponService.Update(r.Context(), a, id, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, coupon)
}

// Get handles getting a coupon by ID
func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "couponID")
	if !ok {
		return
	}

	coupon, err := h.couponService.GetByID(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, coupon)
}

// List handles listing coupons with filters
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	filter := listFilter(r)
	coupons, page, err := h.couponService.List(r.Context(), a, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, coupons, page)
}

// Delete handles deleting a coupon
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "couponID")
	if !ok {
		return
	}

	if err := h.couponService.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Disable turns an active coupon off
func (h *CouponHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.couponService.Disable)
}

// Enable turns a disabled coupon back on
func (h *CouponHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.couponService.Enable)
}

func (h *CouponHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, domain.Actor, uuid.UUID) (*domain.Coupon, error)) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "couponID")
	if !ok {
		return
	}

	coupon, err := apply(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, coupon)
}
