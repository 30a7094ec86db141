package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
)

const feedCachePrefix = "feed:"

// FeedPage is the cached form of one page of a published-content feed.
type FeedPage struct {
	Items []domain.ContentItem `json:"items"`
	Total int                  `json:"total"`
}

// FeedCache caches pages of the public published-content feed in Redis.
// Keys carry the workspace so writes can invalidate one workspace's
// feed without touching the rest.
type FeedCache struct {
	client *Client
	ttl    time.Duration
}

// NewFeedCache creates a new feed cache
func NewFeedCache(client *Client, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

// feedKey encodes every filter dimension the repository applies, so two
// requests share a cache entry only when they would produce the same page.
func feedKey(workspaceID uuid.UUID, filter domain.ListFilter) string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%s:%s:%d:%d",
		feedCachePrefix,
		workspaceID,
		filter.Type,
		filter.Category,
		filter.RegionID,
		filter.Search,
		timeKey(filter.From),
		timeKey(filter.To),
		filter.Page,
		filter.PageSize,
	)
}

func timeKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Get retrieves a cached feed page. A miss returns (nil, nil).
func (c *FeedCache) Get(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) (*FeedPage, error) {
	data, err := c.client.rdb.Get(ctx, feedKey(workspaceID, filter)).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var page FeedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed page: %w", err)
	}

	return &page, nil
}

// Set caches a feed page
func (c *FeedCache) Set(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter, page *FeedPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal feed page: %w", err)
	}

	return c.client.rdb.Set(ctx, feedKey(workspaceID, filter), data, c.ttl).Err()
}

// Invalidate removes every cached feed page for a workspace. Called
// after any write that can change what the feed shows.
func (c *FeedCache) Invalidate(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	pattern := fmt.Sprintf("%s%s:*", feedCachePrefix, workspaceID)
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
