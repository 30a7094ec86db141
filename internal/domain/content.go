package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContentType enumerates the publishable unit kinds.
type ContentType string

const (
	ContentTypeArticle      ContentType = "article"
	ContentTypeAnnouncement ContentType = "announcement"
	ContentTypeNotice       ContentType = "notice"
	ContentTypeAd           ContentType = "ad"
	ContentTypeSchedule     ContentType = "schedule"
)

// ContentStatus enumerates the content lifecycle states.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPending   ContentStatus = "pending"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusExpired   ContentStatus = "expired"
	ContentStatusClosed    ContentStatus = "closed"
)

// ContentItem is any publishable unit: article, announcement, legal
// notice, classified ad or schedule. Type-specific fields live in
// Metadata; the rule schemas decide which keys are required per type.
type ContentItem struct {
	ID          uuid.UUID      `json:"id"`
	WorkspaceID uuid.UUID      `json:"workspace_id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	Type        ContentType    `json:"type"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Body        string         `json:"body"`
	Excerpt     string         `json:"excerpt,omitempty"`
	Status      ContentStatus  `json:"status"`
	Category    string         `json:"category,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	PublishDate *time.Time     `json:"publish_date,omitempty"`
	ExpiryDate  *time.Time     `json:"expiry_date,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	Regions     []Region       `json:"regions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Owner implements the authorization resource contract.
func (c *ContentItem) Owner() uuid.UUID { return c.OwnerID }

// Workspace implements the authorization resource contract.
func (c *ContentItem) Workspace() uuid.UUID { return c.WorkspaceID }

// Mutable reports whether the item is still in an editable state.
// Content is editable only while draft; anything later requires a
// transition, not an update.
func (c *ContentItem) Mutable() bool { return c.Status == ContentStatusDraft }

// Region is a geographic area content can be associated with.
type Region struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentRepository defines the interface for content storage. Create
// and Update persist the item and its region associations as one
// transaction; an unresolvable region fails the whole write.
type ContentRepository interface {
	Create(ctx context.Context, item *ContentItem, regionIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*ContentItem, error)
	Update(ctx context.Context, item *ContentItem, regionIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]ContentItem, int, error)
	SlugExists(ctx context.Context, workspaceID uuid.UUID, slug string, ignoreID uuid.UUID) (bool, error)
	ListRegions(ctx context.Context, contentID uuid.UUID) ([]Region, error)
	// ExpireDue marks published items whose expiry date has passed.
	// Keyed on current status, so it is safe to run concurrently from
	// multiple sweep workers.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// RegionRepository defines the interface for region lookup.
type RegionRepository interface {
	List(ctx context.Context) ([]Region, error)
	// Resolve returns the regions for the given ids, or ErrNotFound if
	// any id does not exist.
	Resolve(ctx context.Context, ids []uuid.UUID) ([]Region, error)
}
