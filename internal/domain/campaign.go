package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus enumerates email campaign lifecycle states.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// Campaign is a workspace-scoped email campaign. SMTP credentials are
// stored encrypted; delivery itself is delegated to an external sender.
type Campaign struct {
	ID             uuid.UUID      `json:"id"`
	WorkspaceID    uuid.UUID      `json:"workspace_id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	Name           string         `json:"name"`
	Subject        string         `json:"subject"`
	Body           string         `json:"body"`
	FromAddress    string         `json:"from_address"`
	SMTPEncrypted  []byte         `json:"-"`
	Status         CampaignStatus `json:"status"`
	ScheduledFor   *time.Time     `json:"scheduled_for,omitempty"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
	RecipientCount int            `json:"recipient_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Owner implements the authorization resource contract.
func (c *Campaign) Owner() uuid.UUID { return c.OwnerID }

// Workspace implements the authorization resource contract.
func (c *Campaign) Workspace() uuid.UUID { return c.WorkspaceID }

// Mutable reports whether the campaign can still be edited. Once a
// campaign starts sending it is frozen.
func (c *Campaign) Mutable() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}

// SMTPCredentials are the per-campaign sender credentials, encrypted at
// rest with AES-GCM.
type SMTPCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// CampaignRepository defines the interface for campaign storage.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*Campaign, error)
	Update(ctx context.Context, campaign *Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Campaign, int, error)
}
