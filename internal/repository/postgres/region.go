package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
)

// RegionRepository handles region lookups. Regions are global reference
// data; they are not workspace-scoped.
type RegionRepository struct {
	db *DB
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// List retrieves all regions
func (r *RegionRepository) List(ctx context.Context) ([]domain.Region, error) {
	query := `SELECT id, name, slug, created_at FROM regions ORDER BY name, id`

	rows, err := r.db.Pool.Query(ctx, query)
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

// Resolve returns the regions for the given ids. Any id that does not
// reference an existing region makes the whole call fail with
// domain.ErrNotFound.
func (r *RegionRepository) Resolve(ctx context.Context, ids []uuid.UUID) ([]domain.Region, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, slug, created_at FROM regions WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve regions: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]domain.Region, len(ids))
	for rows.Next() {
		var region domain.Region
		if err := rows.Scan(&region.ID, &region.Name, &region.Slug, &region.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		found[region.ID] = region
	}

	regions := make([]domain.Region, 0, len(ids))
	for _, id := range ids {
		region, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("region %s: %w", id, domain.ErrNotFound)
		}
		regions = append(regions, region)
	}

	return regions, nil
}
