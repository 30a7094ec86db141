package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clarionhq/daypress/internal/domain"
)

// CampaignRepository handles email campaign data access
type CampaignRepository struct {
	db *DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `
	id, workspace_id, owner_id, name, subject, body, from_address,
	smtp_encrypted, status, scheduled_for, sent_at, cancelled_at,
	recipient_count, created_at, updated_at
`

// Create creates a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		campaign.ID,
		campaign.WorkspaceID,
		campaign.OwnerID,
		campaign.Name,
		campaign.Subject,
		campaign.Body,
		campaign.FromAddress,
		campaign.SMTPEncrypted,
		campaign.Status,
		campaign.ScheduledFor,
		campaign.SentAt,
		campaign.CancelledAt,
		campaign.RecipientCount,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByIDAndWorkspace retrieves a campaign by ID scoped to a workspace
func (r *CampaignRepository) GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 AND workspace_id = $2`

	var campaign domain.Campaign
	err := r.db.Pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&campaign.ID,
		&campaign.WorkspaceID,
		&campaign.OwnerID,
		&campaign.Name,
		&campaign.Subject,
		&campaign.Body,
		&campaign.FromAddress,
		&campaign.SMTPEncrypted,
		&campaign.Status,
		&campaign.ScheduledFor,
		&campaign.SentAt,
		&campaign.CancelledAt,
		&campaign.RecipientCount,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// Update updates a campaign
func (r *CampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $2,
		    subject = $3,
		    body = $4,
		    from_address = $5,
		    smtp_encrypted = $6,
		    status = $7,
		    scheduled_for = $8,
		    sent_at = $9,
		    cancelled_at = $10,
		    recipient_count = $11,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.Subject,
		campaign.Body,
		campaign.FromAddress,
		campaign.SMTPEncrypted,
		campaign.Status,
		campaign.ScheduledFor,
		campaign.SentAt,
		campaign.CancelledAt,
		campaign.RecipientCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	return nil
}

// Delete deletes a campaign
func (r *CampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// List retrieves a filtered page of campaigns with the total count.
func (r *CampaignRepository) List(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.Campaign, int, error) {
	where := "WHERE workspace_id = $1"
	args := []any{workspaceID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR subject ILIKE $%d)", n, n)
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM campaigns "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT `+campaignColumns+`
		FROM campaigns
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		var campaign domain.Campaign
		if err := rows.Scan(
			&campaign.ID,
			&campaign.WorkspaceID,
			&campaign.OwnerID,
			&campaign.Name,
			&campaign.Subject,
			&campaign.Body,
			&campaign.FromAddress,
			&campaign.SMTPEncrypted,
			&campaign.Status,
			&campaign.ScheduledFor,
			&campaign.SentAt,
			&campaign.CancelledAt,
			&campaign.RecipientCount,
			&campaign.CreatedAt,
			&campaign.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, total, nil
}
