package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clarionhq/daypress/internal/domain"
)

// ContentRepository handles content item data access. Writes that touch
// region associations run in a single transaction so a bad region id
// rolls back the whole submission.
type ContentRepository struct {
	db *DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = `
	id, workspace_id, owner_id, type, title, slug, body, excerpt,
	status, category, metadata, publish_date, expiry_date, published_at,
	created_at, updated_at
`

// Create persists a new content item and its region links atomically.
func (r *ContentRepository) Create(ctx context.Context, item *domain.ContentItem, regionIDs []uuid.UUID) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO content_items (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			item.ID,
			item.WorkspaceID,
			item.OwnerID,
			item.Type,
			item.Title,
			item.Slug,
			item.Body,
			item.Excerpt,
			item.Status,
			nullString(item.Category),
			metadata,
			item.PublishDate,
			item.ExpiryDate,
			item.PublishedAt,
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create content item: %w", err)
		}

		return r.linkRegions(ctx, tx, item.ID, regionIDs)
	})
}

// Update persists changes to an item. A nil regionIDs leaves existing
// links untouched; a non-nil slice (including empty) replaces them.
func (r *ContentRepository) Update(ctx context.Context, item *domain.ContentItem, regionIDs []uuid.UUID) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		UPDATE content_items
		SET title = $2,
		    slug = $3,
		    body = $4,
		    excerpt = $5,
		    status = $6,
		    category = $7,
		    metadata = $8,
		    publish_date = $9,
		    expiry_date = $10,
		    published_at = $11,
		    updated_at = NOW()
		WHERE id = $1
	`

	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			item.ID,
			item.Title,
			item.Slug,
			item.Body,
			item.Excerpt,
			item.Status,
			nullString(item.Category),
			metadata,
			item.PublishDate,
			item.ExpiryDate,
			item.PublishedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update content item: %w", err)
		}

		if regionIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM content_regions WHERE content_id = $1`, item.ID); err != nil {
			return fmt.Errorf("failed to clear region links: %w", err)
		}
		return r.linkRegions(ctx, tx, item.ID, regionIDs)
	})
}

// linkRegions inserts region links by selecting from regions, so every
// id is verified to exist. A count mismatch means an unresolvable
// region and fails the transaction.
func (r *ContentRepository) linkRegions(ctx context.Context, tx pgx.Tx, contentID uuid.UUID, regionIDs []uuid.UUID) error {
	if len(regionIDs) == 0 {
		return nil
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO content_regions (content_id, region_id)
		SELECT $1, id FROM regions WHERE id = ANY($2)
	`, contentID, regionIDs)
	if err != nil {
		return fmt.Errorf("failed to link regions: %w", err)
	}
	if tag.RowsAffected() != int64(len(uniqueIDs(regionIDs))) {
		return fmt.Errorf("region %w", domain.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a content item by ID
func (r *ContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByIDAndWorkspace retrieves a content item by ID scoped to a workspace
func (r *ContentRepository) GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*domain.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE id = $1 AND workspace_id = $2`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id, workspaceID))
}

func (r *ContentRepository) scanOne(row pgx.Row) (*domain.ContentItem, error) {
	var item domain.ContentItem
	var category *string
	var metadataJSON []byte

	err := row.Scan(
		&item.ID,
		&item.WorkspaceID,
		&item.OwnerID,
		&item.Type,
		&item.Title,
		&item.Slug,
		&item.Body,
		&item.Excerpt,
		&item.Status,
		&category,
		&metadataJSON,
		&item.PublishDate,
		&item.ExpiryDate,
		&item.PublishedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	if category != nil {
		item.Category = *category
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &item, nil
}

// List retrieves a filtered, ordered page of items plus the total row
// count for the filter. Ordering is fixed per type: schedules soonest
// start first, everything else newest first, id as tiebreak so pages
// are stable across requests.
func (r *ContentRepository) List(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.ContentItem, int, error) {
	where := "WHERE c.workspace_id = $1"
	args := []any{workspaceID}

	add := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.Status != "" {
		add("c.status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("c.type = $%d", filter.Type)
	}
	if filter.Category != "" {
		add("c.category = $%d", filter.Category)
	}
	if filter.RegionID != uuid.Nil {
		add("EXISTS (SELECT 1 FROM content_regions cr WHERE cr.content_id = c.id AND cr.region_id = $%d)", filter.RegionID)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (c.title ILIKE $%d OR c.body ILIKE $%d)", n, n)
	}
	if filter.From != nil {
		add("c.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("c.created_at <= $%d", *filter.To)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM content_items c " + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count content items: %w", err)
	}

	order := "ORDER BY c.created_at DESC, c.id"
	if filter.Type == string(domain.ContentTypeSchedule) {
		order = "ORDER BY c.publish_date ASC NULLS LAST, c.id"
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT c.id, c.workspace_id, c.owner_id, c.type, c.title, c.slug,
		       c.body, c.excerpt, c.status, c.category, c.metadata,
		       c.publish_date, c.expiry_date, c.published_at,
		       c.created_at, c.updated_at
		FROM content_items c
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, where, order, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content items: %w", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var item domain.ContentItem
		var category *string
		var metadataJSON []byte

		if err := rows.Scan(
			&item.ID,
			&item.WorkspaceID,
			&item.OwnerID,
			&item.Type,
			&item.Title,
			&item.Slug,
			&item.Body,
			&item.Excerpt,
			&item.Status,
			&category,
			&metadataJSON,
			&item.PublishDate,
			&item.ExpiryDate,
			&item.PublishedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan content item: %w", err)
		}

		if category != nil {
			item.Category = *category
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		items = append(items, item)
	}

	return items, total, nil
}

// Delete deletes a content item; region links cascade with it.
func (r *ContentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM content_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	return nil
}

// SlugExists checks slug uniqueness within a workspace, excluding the
// record under update.
func (r *ContentRepository) SlugExists(ctx context.Context, workspaceID uuid.UUID, slug string, ignoreID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM content_items
			WHERE workspace_id = $1 AND slug = $2 AND id != $3
		)
	`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, workspaceID, slug, ignoreID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return exists, nil
}

// ListRegions retrieves the regions linked to a content item.
func (r *ContentRepository) ListRegions(ctx context.Context, contentID uuid.UUID) ([]domain.Region, error) {
	query := `
		SELECT rg.id, rg.name, rg.slug, rg.created_at
		FROM regions rg
		INNER JOIN content_regions cr ON cr.region_id = rg.id
		WHERE cr.content_id = $1
		ORDER BY rg.name, rg.id
	`

	rows, err := r.db.Pool.Query(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var region domain.Region
		if err := rows.Scan(&region.ID, &region.Name, &region.Slug, &region.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, region)
	}

	return regions, nil
}

// ExpireDue marks published items whose expiry date has passed. The
// update is keyed on current status, so concurrent sweeps cannot
// double-apply it.
func (r *ContentRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE content_items
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expiry_date IS NOT NULL AND expiry_date <= $3
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		domain.ContentStatusExpired,
		domain.ContentStatusPublished,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire content items: %w", err)
	}

	return tag.RowsAffected(), nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
