package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clarionhq/daypress/internal/authz"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
	"github.com/clarionhq/daypress/internal/security"
)

func newCampaignService(campaignRepo *MockCampaignRepository, workspaceRepo *MockWorkspaceRepository) *CampaignService {
	encryptor, _ := security.NewEncryptor([]byte("12345678901234567890123456789012"))
	return NewCampaignService(campaignRepo, workspaceRepo, encryptor, newTestPipeline(), authz.NewGate())
}

func TestCampaignService_Create(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.New(), WorkspaceID: uuid.New()}

	payload := rules.Payload{
		"name":         "September Newsletter",
		"subject":      "What's on this month",
		"body":         "<p>Hello readers</p>",
		"from_address": "news@gazette.example",
	}

	t.Run("credentials are encrypted at rest", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		workspaceRepo := new(MockWorkspaceRepository)
		svc := newCampaignService(campaignRepo, workspaceRepo)

		workspaceRepo.On("IsMember", ctx, actor.WorkspaceID, actor.ID).Return(true, nil)
		campaignRepo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

		smtp := &domain.SMTPCredentials{Host: "smtp.example.com", Port: 587, Username: "news", Password: "s3cret"}
		campaign, err := svc.Create(ctx, actor, payload, smtp)
		assert.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusDraft, campaign.Status)
		assert.NotEmpty(t, campaign.SMTPEncrypted)
		assert.NotContains(t, string(campaign.SMTPEncrypted), "s3cret")
	})

	t.Run("credentials optional", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		workspaceRepo := new(MockWorkspaceRepository)
		svc := newCampaignService(campaignRepo, workspaceRepo)

		workspaceRepo.On("IsMember", ctx, actor.WorkspaceID, actor.ID).Return(true, nil)
		campaignRepo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

		campaign, err := svc.Create(ctx, actor, payload, nil)
		assert.NoError(t, err)
		assert.Empty(t, campaign.SMTPEncrypted)
	})

	t.Run("missing subject", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		workspaceRepo := new(MockWorkspaceRepository)
		svc := newCampaignService(campaignRepo, workspaceRepo)

		workspaceRepo.On("IsMember", ctx, actor.WorkspaceID, actor.ID).Return(true, nil)

		_, err := svc.Create(ctx, actor, rules.Payload{
			"name":         "Broken",
			"body":         "x",
			"from_address": "news@gazette.example",
		}, nil)
		var verr *rules.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "required", verr.Fields["subject"])
	})
}

func TestCampaignService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.New(), WorkspaceID: uuid.New()}

	newCampaign := func(status domain.CampaignStatus) *domain.Campaign {
		return &domain.Campaign{
			ID:          uuid.New(),
			WorkspaceID: actor.WorkspaceID,
			OwnerID:     actor.ID,
			Status:      status,
		}
	}

	t.Run("schedule then send", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		svc := newCampaignService(campaignRepo, new(MockWorkspaceRepository))

		c := newCampaign(domain.CampaignStatusDraft)
		campaignRepo.On("GetByIDAndWorkspace", ctx, c.ID, actor.WorkspaceID).Return(c, nil)
		campaignRepo.On("Update", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

		at := time.Now().AddDate(0, 0, 2)
		out, err := svc.Schedule(ctx, actor, c.ID, at)
		assert.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusScheduled, out.Status)

		out, err = svc.Send(ctx, actor, c.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.CampaignStatusSent, out.Status)
		assert.NotNil(t, out.SentAt)
	})

	t.Run("resend is a no-op", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		svc := newCampaignService(campaignRepo, new(MockWorkspaceRepository))

		c := newCampaign(domain.CampaignStatusSent)
		sent := time.Now().Add(-time.Hour)
		c.SentAt = &sent
		campaignRepo.On("GetByIDAndWorkspace", ctx, c.ID, actor.WorkspaceID).Return(c, nil)

		out, err := svc.Send(ctx, actor, c.ID)
		assert.NoError(t, err)
		assert.True(t, out.SentAt.Equal(sent))
		campaignRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("cannot cancel a sent campaign", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		svc := newCampaignService(campaignRepo, new(MockWorkspaceRepository))

		c := newCampaign(domain.CampaignStatusSent)
		campaignRepo.On("GetByIDAndWorkspace", ctx, c.ID, actor.WorkspaceID).Return(c, nil)

		_, err := svc.Cancel(ctx, actor, c.ID)
		var te *domain.TransitionError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("non-owner cannot transition", func(t *testing.T) {
		campaignRepo := new(MockCampaignRepository)
		svc := newCampaignService(campaignRepo, new(MockWorkspaceRepository))

		c := newCampaign(domain.CampaignStatusDraft)
		c.OwnerID = uuid.New()
		campaignRepo.On("GetByIDAndWorkspace", ctx, c.ID, actor.WorkspaceID).Return(c, nil)

		_, err := svc.Send(ctx, actor, c.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestCampaignService_Credentials(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: uuid.New(), WorkspaceID: uuid.New()}

	campaignRepo := new(MockCampaignRepository)
	workspaceRepo := new(MockWorkspaceRepository)
	svc := newCampaignService(campaignRepo, workspaceRepo)

	// Round-trip through Create so the stored bytes are real ciphertext.
	workspaceRepo.On("IsMember", ctx, actor.WorkspaceID, actor.ID).Return(true, nil)
	campaignRepo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	smtp := &domain.SMTPCredentials{Host: "smtp.example.com", Port: 587, Username: "news", Password: "s3cret"}
	campaign, err := svc.Create(ctx, actor, rules.Payload{
		"name":         "Newsletter",
		"subject":      "Subject",
		"body":         "Body",
		"from_address": "news@gazette.example",
	}, smtp)
	assert.NoError(t, err)

	campaignRepo.On("GetByIDAndWorkspace", ctx, campaign.ID, actor.WorkspaceID).Return(campaign, nil)

	creds, err := svc.Credentials(ctx, actor, campaign.ID)
	assert.NoError(t, err)
	assert.Equal(t, *smtp, *creds)

	t.Run("empty when never stored", func(t *testing.T) {
		bare := &domain.Campaign{
			ID:          uuid.New(),
			WorkspaceID: actor.WorkspaceID,
			OwnerID:     actor.ID,
			Status:      domain.CampaignStatusDraft,
		}
		campaignRepo.On("GetByIDAndWorkspace", ctx, bare.ID, actor.WorkspaceID).Return(bare, nil)

		creds, err := svc.Credentials(ctx, actor, bare.ID)
		assert.NoError(t, err)
		assert.Nil(t, creds)
	})
}
