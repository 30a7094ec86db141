package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
	"github.com/clarionhq/daypress/internal/service"
)

// CampaignHandler handles email campaign endpoints
type CampaignHandler struct {
	campaignService *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// Create handles campaign creation
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.Create(r.Context(), a, payload, smtpCredentials(payload))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, campaign)
}

// Update handles partial campaign updates
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "campaignID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.Update(r.Context(), a, id, payload, smtpCredentials(payload))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, campaign)
}

// Get handles getting a campaign by ID
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "campaignID")
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetByID(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, campaign)
}

// List handles listing campaigns with filters
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	filter := listFilter(r)
	campaigns, page, err := h.campaignService.List(r.Context(), a, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, campaigns, page)
}

// Delete handles deleting a campaign
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "campaignID")
	if !ok {
		return
	}

	if err := h.campaignService.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Schedule schedules a campaign for sending
func (h *CampaignHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "campaignID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	at, ok := payload.Get("scheduled_for")
	s, _ := at.(string)
	if !ok || s == "" {
		response.BadRequest(w, "missing scheduled_for")
		return
	}
	when, err := time.Parse(time.RFC3339, s)
	if err != nil {
		response.BadRequest(w, "invalid scheduled_for")
		return
	}

	campaign, err := h.campaignService.Schedule(r.Context(), a, id, when)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, campaign)
}

// Credentials returns the decrypted sender credentials to the campaign
// owner, e.g. for verifying delivery configuration.
func (h *CampaignHandler) Credentials(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "campaignID")
	if !ok {
		return
	}

	creds, err := h.campaignService.Credentials(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if creds == nil {
		response.FromError(w, domain.ErrNotFound)
		return
	}

	response.OK(w, creds)
}

// Send marks a campaign as sent
func (h *CampaignHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.campaignService.Send)
}

// Cancel cancels a campaign
func (h *CampaignHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.campaignService.Cancel)
}

func (h *CampaignHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, domain.Actor, uuid.UUID) (*domain.Campaign, error)) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "campaignID")
	if !ok {
		return
	}

	campaign, err := apply(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, campaign)
}

// smtpCredentials pulls the optional sender credentials out of the
// payload so they never hit the validation log or storage unencrypted.
func smtpCredentials(payload rules.Payload) *domain.SMTPCredentials {
	v, ok := payload.Get("smtp")
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	delete(payload, "smtp")

	creds := &domain.SMTPCredentials{}
	if s, ok := m["host"].(string); ok {
		creds.Host = s
	}
	if n, ok := m["port"].(float64); ok {
		creds.Port = int(n)
	}
	if s, ok := m["username"].(string); ok {
		creds.Username = s
	}
	if s, ok := m["password"].(string); ok {
		creds.Password = s
	}
	return creds
}
