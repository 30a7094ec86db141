// Package lifecycle defines the guarded state transitions for every
// entity family. Each transition mutates the entity in memory and
// reports whether anything changed; the caller persists the whole
// mutation atomically or not at all. Re-invoking a transition that has
// already taken effect is a no-op success, so retries after a lost
// response are harmless.
package lifecycle

import (
	"time"

	"github.com/clarionhq/daypress/internal/domain"
)

// contentPublishable is the set of states publish may start from.
var contentPublishable = map[domain.ContentStatus]bool{
	domain.ContentStatusDraft:   true,
	domain.ContentStatusPending: true,
}

// contentClosable is the set of states close may start from.
var contentClosable = map[domain.ContentStatus]bool{
	domain.ContentStatusPending:   true,
	domain.ContentStatusPublished: true,
}

// SubmitContent moves a draft to pending review.
func SubmitContent(item *domain.ContentItem) (bool, error) {
	if item.Status == domain.ContentStatusPending {
		return false, nil
	}
	if item.Status != domain.ContentStatusDraft {
		return false, illegal("content item", string(item.Status), "submit")
	}
	item.Status = domain.ContentStatusPending
	return true, nil
}

// PublishContent publishes a draft or pending item. Publishing an
// already published item succeeds without touching it.
func PublishContent(item *domain.ContentItem, now time.Time) (bool, error) {
	if item.Status == domain.ContentStatusPublished {
		return false, nil
	}
	if !contentPublishable[item.Status] {
		return false, illegal("content item", string(item.Status), "publish")
	}
	item.Status = domain.ContentStatusPublished
	item.PublishedAt = &now
	if item.PublishDate == nil {
		item.PublishDate = &now
	}
	return true, nil
}

// CloseContent closes a pending or published item.
func CloseContent(item *domain.ContentItem) (bool, error) {
	if item.Status == domain.ContentStatusClosed {
		return false, nil
	}
	if !contentClosable[item.Status] {
		return false, illegal("content item", string(item.Status), "close")
	}
	item.Status = domain.ContentStatusClosed
	return true, nil
}

// CompleteTask completes an open task, stamping the completion time.
// Completing a completed task is a no-op success; the original
// timestamp is kept.
func CompleteTask(task *domain.Task, now time.Time) (bool, error) {
	if task.Status == domain.TaskStatusCompleted {
		return false, nil
	}
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = &now
	return true, nil
}

// SetDealStage moves a deal to any whitelisted stage. Stages are not
// adjacency-checked: new → won directly is allowed. Entering a terminal
// stage stamps ClosedAt; leaving one clears it.
func SetDealStage(deal *domain.Deal, stage domain.DealStage, now time.Time) (bool, error) {
	allowed := false
	for _, s := range domain.DealStages {
		if s == stage {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, &domain.TransitionError{
			Entity: "deal",
			From:   string(deal.Stage),
			Name:   "set stage",
			Reason: "unknown stage: " + string(stage),
		}
	}
	if deal.Stage == stage {
		return false, nil
	}
	deal.Stage = stage
	if deal.Terminal() {
		deal.ClosedAt = &now
	} else {
		deal.ClosedAt = nil
	}
	return true, nil
}

// ScheduleCampaign schedules a draft campaign for sending.
func ScheduleCampaign(c *domain.Campaign, at time.Time) (bool, error) {
	if c.Status != domain.CampaignStatusDraft && c.Status != domain.CampaignStatusScheduled {
		return false, illegal("campaign", string(c.Status), "schedule")
	}
	c.Status = domain.CampaignStatusScheduled
	c.ScheduledFor = &at
	return true, nil
}

// SendCampaign marks a draft or scheduled campaign as sent. Sending an
// already sent campaign is a no-op success so a retried request cannot
// double-send.
func SendCampaign(c *domain.Campaign, now time.Time) (bool, error) {
	if c.Status == domain.CampaignStatusSent {
		return false, nil
	}
	if c.Status != domain.CampaignStatusDraft && c.Status != domain.CampaignStatusScheduled {
		return false, illegal("campaign", string(c.Status), "send")
	}
	c.Status = domain.CampaignStatusSent
	c.SentAt = &now
	return true, nil
}

// CancelCampaign cancels a campaign that has not finished sending.
// Cancelling twice is a no-op success.
func CancelCampaign(c *domain.Campaign, now time.Time) (bool, error) {
	if c.Status == domain.CampaignStatusCancelled {
		return false, nil
	}
	if c.Status == domain.CampaignStatusSent {
		return false, illegal("campaign", string(c.Status), "cancel")
	}
	c.Status = domain.CampaignStatusCancelled
	c.CancelledAt = &now
	return true, nil
}

func illegal(entity, from, name string) error {
	return &domain.TransitionError{
		Entity: entity,
		From:   from,
		Name:   name,
		Reason: "cannot " + name + " a " + from + " " + entity,
	}
}
