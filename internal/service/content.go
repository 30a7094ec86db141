package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clarionhq/daypress/internal/authz"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/lifecycle"
	"github.com/clarionhq/daypress/internal/pipeline"
	"github.com/clarionhq/daypress/internal/repository/redis"
	"github.com/clarionhq/daypress/internal/rules"
)

// ContentService handles content item operations. Every create and
// update goes through the submission pipeline; state changes go through
// the lifecycle transitions.
type ContentService struct {
	contentRepo   domain.ContentRepository
	regionRepo    domain.RegionRepository
	workspaceRepo domain.WorkspaceRepository
	feedCache     *redis.FeedCache
	pipe          *pipeline.Pipeline
	gate          *authz.Gate
}

// NewContentService creates a new content service
func NewContentService(
	contentRepo domain.ContentRepository,
	regionRepo domain.RegionRepository,
	workspaceRepo domain.WorkspaceRepository,
	feedCache *redis.FeedCache,
	pipe *pipeline.Pipeline,
	gate *authz.Gate,
) *ContentService {
	return &ContentService{
		contentRepo:   contentRepo,
		regionRepo:    regionRepo,
		workspaceRepo: workspaceRepo,
		feedCache:     feedCache,
		pipe:          pipe,
		gate:          gate,
	}
}

// Create validates and persists a new content item as a draft.
func (s *ContentService) Create(ctx context.Context, actor domain.Actor, payload rules.Payload) (*domain.ContentItem, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, actor.WorkspaceID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "content",
		Mode:    rules.ModeCreate,
		Schema:  rules.ContentSchema,
		Payload: payload,
		Authorize: func() bool {
			return isMember && s.gate.CanCreate(actor, actor.WorkspaceID)
		},
		Normalize: normalizeContent,
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			now := time.Now()
			item := &domain.ContentItem{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				Status:      domain.ContentStatusDraft,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			applyContent(item, p)

			regionIDs := pipeline.UUIDList(p, "region_ids")
			regions, err := s.regionRepo.Resolve(ctx, regionIDs)
			if err != nil {
				return nil, err
			}
			item.Regions = regions

			if err := s.contentRepo.Create(ctx, item, regionIDs); err != nil {
				return nil, err
			}
			return item, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.invalidateFeed(ctx, actor.WorkspaceID)
	return out.(*domain.ContentItem), nil
}

// Update validates and persists a partial update to a draft item.
// Fields absent from the payload keep their persisted values.
func (s *ContentService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, payload rules.Payload) (*domain.ContentItem, error) {
	item, err := s.getItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:    actor,
		Kind:     "content",
		Mode:     rules.ModeUpdate,
		Schema:   rules.ContentSchema,
		Payload:  payload,
		Existing: contentPayload(item),
		IgnoreID: item.ID,
		Authorize: func() bool {
			return s.gate.CanUpdate(actor, item)
		},
		Normalize: normalizeContent,
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			updated := *item
			applyContent(&updated, p)

			// A nil region list leaves the existing links untouched; an
			// explicit list, empty included, replaces them.
			var regionIDs []uuid.UUID
			if _, ok := p.Get("region_ids"); ok {
				regionIDs = pipeline.UUIDList(p, "region_ids")
				if regionIDs == nil {
					regionIDs = []uuid.UUID{}
				}
				regions, err := s.regionRepo.Resolve(ctx, regionIDs)
				if err != nil {
					return nil, err
				}
				updated.Regions = regions
			}

			if err := s.contentRepo.Update(ctx, &updated, regionIDs); err != nil {
				return nil, err
			}
			return &updated, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.invalidateFeed(ctx, actor.WorkspaceID)
	return out.(*domain.ContentItem), nil
}

// GetByID retrieves a content item with its regions, scoped to the
// actor's workspace.
func (s *ContentService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContentItem, error) {
	item, err := s.getItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccess(actor, item) {
		return nil, domain.ErrForbidden
	}

	regions, err := s.contentRepo.ListRegions(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content regions: %w", err)
	}
	item.Regions = regions

	return item, nil
}

// List retrieves a filtered page of content items in the actor's
// workspace.
func (s *ContentService) List(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.ContentItem, domain.PageInfo, error) {
	filter.Normalize()

	items, total, err := s.contentRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return items, domain.NewPageInfo(filter, total), nil
}

// Feed retrieves the public published-content feed for a workspace.
// Pages are served from cache when fresh; any workspace write
// invalidates the whole workspace feed.
func (s *ContentService) Feed(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.ContentItem, domain.PageInfo, error) {
	filter.Status = string(domain.ContentStatusPublished)
	filter.Normalize()

	if s.feedCache != nil {
		page, err := s.feedCache.Get(ctx, workspaceID, filter)
		if err != nil {
			return nil, domain.PageInfo{}, err
		}
		if page != nil {
			return page.Items, domain.NewPageInfo(filter, page.Total), nil
		}
	}

	items, total, err := s.contentRepo.List(ctx, workspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	if s.feedCache != nil {
		if err := s.feedCache.Set(ctx, workspaceID, filter, &redis.FeedPage{Items: items, Total: total}); err != nil {
			log.Warn().Err(err).Msg("failed to cache feed page")
		}
	}

	return items, domain.NewPageInfo(filter, total), nil
}

// Delete deletes a content item. Deletion is owner-gated but not
// state-gated.
func (s *ContentService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	item, err := s.getItem(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.gate.CanDelete(actor, item) {
		return domain.ErrForbidden
	}

	if err := s.contentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateFeed(ctx, actor.WorkspaceID)
	return nil
}

// Submit moves a draft into pending review.
func (s *ContentService) Submit(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContentItem, error) {
	return s.transition(ctx, actor, id, func(item *domain.ContentItem) (bool, error) {
		return lifecycle.SubmitContent(item)
	})
}

// Publish publishes a draft or pending item. Publishing an already
// published item is a no-op success.
func (s *ContentService) Publish(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContentItem, error) {
	return s.transition(ctx, actor, id, func(item *domain.ContentItem) (bool, error) {
		return lifecycle.PublishContent(item, time.Now())
	})
}

// Close closes a pending or published item.
func (s *ContentService) Close(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContentItem, error) {
	return s.transition(ctx, actor, id, func(item *domain.ContentItem) (bool, error) {
		return lifecycle.CloseContent(item)
	})
}

// ListRegions retrieves the global region reference list.
func (s *ContentService) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return s.regionRepo.List(ctx)
}

// ExpireDue marks published items whose expiry date has passed and
// returns the number of items expired. Stale cached feed pages age out
// on their own TTL.
func (s *ContentService) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.contentRepo.ExpireDue(ctx, now)
}

func (s *ContentService) transition(ctx context.Context, actor domain.Actor, id uuid.UUID, apply func(*domain.ContentItem) (bool, error)) (*domain.ContentItem, error) {
	item, err := s.getItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanTransition(actor, item) {
		return nil, domain.ErrForbidden
	}

	changed, err := apply(item)
	if err != nil {
		return nil, err
	}
	if !changed {
		return item, nil
	}

	item.UpdatedAt = time.Now()
	if err := s.contentRepo.Update(ctx, item, nil); err != nil {
		return nil, err
	}

	s.invalidateFeed(ctx, actor.WorkspaceID)
	return item, nil
}

func (s *ContentService) getItem(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContentItem, error) {
	item, err := s.contentRepo.GetByIDAndWorkspace(ctx, id, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *ContentService) invalidateFeed(ctx context.Context, workspaceID uuid.UUID) {
	if s.feedCache == nil {
		return
	}
	if _, err := s.feedCache.Invalidate(ctx, workspaceID); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate feed cache")
	}
}

// normalizeContent derives the slug before validation so the
// uniqueness rule sees the final value. An explicit slug is cleaned,
// otherwise one is derived from the title.
func normalizeContent(p rules.Payload) {
	slug := pipeline.StringField(p, "slug")
	title := pipeline.StringField(p, "title")
	switch {
	case slug != "":
		p.Set("slug", pipeline.Slugify(slug))
	case title != "":
		p.Set("slug", pipeline.Slugify(title))
	}
}

// applyContent copies the submitted fields onto the item. Only keys
// present in the payload are touched, so update mode leaves the rest
// alone. An explicit null clears nullable date fields.
func applyContent(item *domain.ContentItem, p rules.Payload) {
	if v, ok := p.Get("type"); ok {
		item.Type = domain.ContentType(asString(v))
	}
	if v, ok := p.Get("title"); ok {
		item.Title = asString(v)
	}
	if v, ok := p.Get("slug"); ok {
		item.Slug = asString(v)
	}
	if v, ok := p.Get("body"); ok {
		item.Body = asString(v)
	}
	if v, ok := p.Get("excerpt"); ok {
		item.Excerpt = asString(v)
	}
	if v, ok := p.Get("category"); ok {
		item.Category = asString(v)
	}
	if _, ok := p.Get("publish_date"); ok {
		item.PublishDate = pipeline.DateField(p, "publish_date")
	}
	if _, ok := p.Get("expiry_date"); ok {
		item.ExpiryDate = pipeline.DateField(p, "expiry_date")
	}
	if m := pipeline.MetadataField(p, "metadata"); m != nil {
		item.Metadata = m
	}
}

// contentPayload rebuilds a payload view of the persisted item, used as
// the fallback for cross-field rules during partial updates.
func contentPayload(item *domain.ContentItem) rules.Payload {
	p := rules.Payload{
		"type":  string(item.Type),
		"title": item.Title,
		"slug":  item.Slug,
	}
	if item.Body != "" {
		p["body"] = item.Body
	}
	if item.Excerpt != "" {
		p["excerpt"] = item.Excerpt
	}
	if item.Category != "" {
		p["category"] = item.Category
	}
	if item.PublishDate != nil {
		p["publish_date"] = item.PublishDate.Format(time.RFC3339)
	}
	if item.ExpiryDate != nil {
		p["expiry_date"] = item.ExpiryDate.Format(time.RFC3339)
	}
	if item.Metadata != nil {
		p["metadata"] = item.Metadata
	}
	return p
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
