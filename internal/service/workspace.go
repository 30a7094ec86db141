package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
)

// WorkspaceService handles workspace operations
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(workspaceRepo domain.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// Create creates a new workspace and adds the creator as owner
func (s *WorkspaceService) Create(ctx context.Context, userID uuid.UUID, input domain.WorkspaceCreate) (*domain.Workspace, error) {
	now := time.Now()
	workspace := &domain.Workspace{
		ID:        uuid.New(),
		Name:      input.Name,
		Settings:  input.Settings,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	// Add creator as owner
	member := &domain.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Role:        domain.RoleOwner,
		CreatedAt:   now,
	}

	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return workspace, nil
}

// GetByID retrieves a workspace by ID with access check
func (s *WorkspaceService) GetByID(ctx context.Context, userID, workspaceID uuid.UUID) (*domain.Workspace, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrForbidden
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if workspace == nil {
		return nil, domain.ErrNotFound
	}

	return workspace, nil
}

// Update updates a workspace. Only owners and admins may update.
func (s *WorkspaceService) Update(ctx context.Context, userID, workspaceID uuid.UUID, input domain.WorkspaceUpdate) (*domain.Workspace, error) {
	if err := s.requireRole(ctx, workspaceID, userID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if err := s.workspaceRepo.Update(ctx, workspaceID, &input); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return workspace, nil
}

// Delete deletes a workspace. Only the owner may delete.
func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	if err := s.requireRole(ctx, workspaceID, userID, domain.RoleOwner); err != nil {
		return err
	}

	if err := s.workspaceRepo.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	return nil
}

// AddMember adds a user to a workspace. Only owners and admins may add.
func (s *WorkspaceService) AddMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID, role string) error {
	if err := s.requireRole(ctx, workspaceID, actorID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return err
	}

	if role != domain.RoleAdmin && role != domain.RoleMember {
		return fmt.Errorf("invalid role: %s", role)
	}

	member := &domain.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now(),
	}

	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a workspace. Owners and admins may
// remove others; any member may remove themselves.
func (s *WorkspaceService) RemoveMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID) error {
	if actorID != userID {
		if err := s.requireRole(ctx, workspaceID, actorID, domain.RoleOwner, domain.RoleAdmin); err != nil {
			return err
		}
	}

	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return domain.ErrNotFound
	}
	if member.Role == domain.RoleOwner {
		return domain.ErrForbidden
	}

	if err := s.workspaceRepo.RemoveMember(ctx, workspaceID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ListByUserID lists workspaces the user belongs to
func (s *WorkspaceService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	return s.workspaceRepo.ListByUserID(ctx, userID)
}

func (s *WorkspaceService) requireRole(ctx context.Context, workspaceID, userID uuid.UUID, roles ...string) error {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return domain.ErrForbidden
	}
	for _, role := range roles {
		if member.Role == role {
			return nil
		}
	}
	return domain.ErrForbidden
}
