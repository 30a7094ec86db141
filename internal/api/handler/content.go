package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/service"
)

// ContentHandler handles content item endpoints
type ContentHandler struct {
	contentService *service.ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// Create handles content creation
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	item, err := h.contentService.Create(r.Context(), a, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, item)
}

// Update handles partial content updates
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "contentID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	item, err := h.contentService.Update(r.Context(), a, id, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, item)
}

// Get handles getting a content item by ID
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "contentID")
	if !ok {
		return
	}

	item, err := h.contentService.GetByID(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, item)
}

// List handles listing content with filters
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	filter := listFilter(r)
	items, page, err := h.contentService.List(r.Context(), a, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, items, page)
}

// Feed handles the public published-content feed for a workspace
func (h *ContentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := urlID(w, r, "workspaceID")
	if !ok {
		return
	}

	filter := listFilter(r)
	items, page, err := h.contentService.Feed(r.Context(), workspaceID, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, items, page)
}

// Delete handles deleting a content item
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "contentID")
	if !ok {
		return
	}

	if err := h.contentService.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Submit moves a draft into pending review
func (h *ContentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.contentService.Submit)
}

// Publish publishes a draft or pending item
func (h *ContentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.contentService.Publish)
}

// Close closes a pending or published item
func (h *ContentHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.contentService.Close)
}

// ListRegions returns the global region list
func (h *ContentHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.contentService.ListRegions(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, regions)
}

func (h *ContentHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, domain.Actor, uuid.UUID) (*domain.ContentItem, error)) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "contentID")
	if !ok {
		return
	}

	item, err := apply(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, item)
}
