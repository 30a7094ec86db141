package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/authz"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/lifecycle"
	"github.com/clarionhq/daypress/internal/pipeline"
	"github.com/clarionhq/daypress/internal/rules"
	"github.com/clarionhq/daypress/internal/security"
)

// CampaignService handles email campaign operations. Sender SMTP
// credentials are encrypted before they touch storage; delivery itself
// is delegated to an external sender process.
type CampaignService struct {
	campaignRepo  domain.CampaignRepository
	workspaceRepo domain.WorkspaceRepository
	encryptor     *security.Encryptor
	pipe          *pipeline.Pipeline
	gate          *authz.Gate
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo domain.CampaignRepository,
	workspaceRepo domain.WorkspaceRepository,
	encryptor *security.Encryptor,
	pipe *pipeline.Pipeline,
	gate *authz.Gate,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		workspaceRepo: workspaceRepo,
		encryptor:     encryptor,
		pipe:          pipe,
		gate:          gate,
	}
}

// Create validates and persists a new draft campaign.
func (s *CampaignService) Create(ctx context.Context, actor domain.Actor, payload rules.Payload, smtp *domain.SMTPCredentials) (*domain.Campaign, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, actor.WorkspaceID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "campaign",
		Mode:    rules.ModeCreate,
		Schema:  rules.CampaignSchema,
		Payload: payload,
		Authorize: func() bool {
			return isMember && s.gate.CanCreate(actor, actor.WorkspaceID)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			now := time.Now()
			campaign := &domain.Campaign{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				Status:      domain.CampaignStatusDraft,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			applyCampaign(campaign, p)

			if smtp != nil {
				encrypted, err := s.encryptor.EncryptJSON(smtp)
				if err != nil {
					return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
				}
				campaign.SMTPEncrypted = encrypted
			}

			if err := s.campaignRepo.Create(ctx, campaign); err != nil {
				return nil, err
			}
			return campaign, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Campaign), nil
}

// Update validates and persists a partial update to a campaign. Once a
// campaign starts sending it is frozen.
func (s *CampaignService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, payload rules.Payload, smtp *domain.SMTPCredentials) (*domain.Campaign, error) {
	campaign, err := s.getCampaign(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:    actor,
		Kind:     "campaign",
		Mode:     rules.ModeUpdate,
		Schema:   rules.CampaignSchema,
		Payload:  payload,
		Existing: campaignPayload(campaign),
		IgnoreID: campaign.ID,
		Authorize: func() bool {
			return s.gate.CanUpdate(actor, campaign)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			updated := *campaign
			applyCampaign(&updated, p)

			if smtp != nil {
				encrypted, err := s.encryptor.EncryptJSON(smtp)
				if err != nil {
					return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
				}
				updated.SMTPEncrypted = encrypted
			}

			if err := s.campaignRepo.Update(ctx, &updated); err != nil {
				return nil, err
			}
			return &updated, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Campaign), nil
}

// GetByID retrieves a campaign scoped to the actor's workspace.
func (s *CampaignService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := s.getCampaign(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccess(actor, campaign) {
		return nil, domain.ErrForbidden
	}
	return campaign, nil
}

// List retrieves a filtered page of campaigns.
func (s *CampaignService) List(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.Campaign, domain.PageInfo, error) {
	filter.Normalize()

	campaigns, total, err := s.campaignRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return campaigns, domain.NewPageInfo(filter, total), nil
}

// Delete deletes a campaign.
func (s *CampaignService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	campaign, err := s.getCampaign(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.gate.CanDelete(actor, campaign) {
		return domain.ErrForbidden
	}
	return s.campaignRepo.Delete(ctx, id)
}

// Schedule schedules a draft campaign for sending at the given time.
func (s *CampaignService) Schedule(ctx context.Context, actor domain.Actor, id uuid.UUID, at time.Time) (*domain.Campaign, error) {
	return s.transition(ctx, actor, id, func(c *domain.Campaign) (bool, error) {
		return lifecycle.ScheduleCampaign(c, at)
	})
}

// Send marks a campaign as sent. Re-sending a sent campaign is a no-op
// success, so a retried request cannot double-send.
func (s *CampaignService) Send(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Campaign, error) {
	return s.transition(ctx, actor, id, func(c *domain.Campaign) (bool, error) {
		return lifecycle.SendCampaign(c, time.Now())
	})
}

// Cancel cancels a campaign that has not finished sending.
func (s *CampaignService) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Campaign, error) {
	return s.transition(ctx, actor, id, func(c *domain.Campaign) (bool, error) {
		return lifecycle.CancelCampaign(c, time.Now())
	})
}

// Credentials decrypts the stored sender credentials for a campaign
// the actor owns. This is the only path that ever exposes them; the
// campaign itself serializes just the ciphertext.
func (s *CampaignService) Credentials(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.SMTPCredentials, error) {
	campaign, err := s.getCampaign(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanTransition(actor, campaign) {
		return nil, domain.ErrForbidden
	}
	if len(campaign.SMTPEncrypted) == 0 {
		return nil, nil
	}

	var creds domain.SMTPCredentials
	if err := s.encryptor.DecryptJSON(campaign.SMTPEncrypted, &creds); err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	return &creds, nil
}

func (s *CampaignService) transition(ctx context.Context, actor domain.Actor, id uuid.UUID, apply func(*domain.Campaign) (bool, error)) (*domain.Campaign, error) {
	campaign, err := s.getCampaign(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanTransition(actor, campaign) {
		return nil, domain.ErrForbidden
	}

	changed, err := apply(campaign)
	if err != nil {
		return nil, err
	}
	if !changed {
		return campaign, nil
	}

	campaign.UpdatedAt = time.Now()
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) getCampaign(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := s.campaignRepo.GetByIDAndWorkspace(ctx, id, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrNotFound
	}
	return campaign, nil
}

func applyCampaign(campaign *domain.Campaign, p rules.Payload) {
	if v, ok := p.Get("name"); ok {
		campaign.Name = asString(v)
	}
	if v, ok := p.Get("subject"); ok {
		campaign.Subject = asString(v)
	}
	if v, ok := p.Get("body"); ok {
		campaign.Body = asString(v)
	}
	if v, ok := p.Get("from_address"); ok {
		campaign.FromAddress = asString(v)
	}
	if _, ok := p.Get("scheduled_for"); ok {
		campaign.ScheduledFor = pipeline.DateField(p, "scheduled_for")
	}
}

func campaignPayload(campaign *domain.Campaign) rules.Payload {
	p := rules.Payload{
		"name":         campaign.Name,
		"subject":      campaign.Subject,
		"body":         campaign.Body,
		"from_address": campaign.FromAddress,
	}
	if campaign.ScheduledFor != nil {
		p["scheduled_for"] = campaign.ScheduledFor.Format(time.RFC3339)
	}
	return p
}
