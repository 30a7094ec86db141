package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clarionhq/daypress/internal/domain"
)

func TestWorkspaceService_Create(t *testing.T) {
	workspaceRepo := new(MockWorkspaceRepository)
	svc := NewWorkspaceService(workspaceRepo)

	ctx := context.Background()
	userID := uuid.New()

	workspaceRepo.On("Create", ctx, mock.AnythingOfType("*domain.Workspace")).Return(nil)
	workspaceRepo.On("AddMember", ctx, mock.MatchedBy(func(m *domain.WorkspaceMember) bool {
		return m.UserID == userID && m.Role == domain.RoleOwner
	})).Return(nil)

	workspace, err := svc.Create(ctx, userID, domain.WorkspaceCreate{Name: "Riverside Gazette"})
	assert.NoError(t, err)
	assert.Equal(t, "Riverside Gazette", workspace.Name)

	workspaceRepo.AssertExpectations(t)
}

func TestWorkspaceService_GetByID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()

	t.Run("member", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		workspaceRepo.On("IsMember", ctx, workspaceID, userID).Return(true, nil)
		workspaceRepo.On("GetByID", ctx, workspaceID).Return(&domain.Workspace{ID: workspaceID}, nil)

		workspace, err := svc.GetByID(ctx, userID, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, workspaceID, workspace.ID)
	})

	t.Run("non-member", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		workspaceRepo.On("IsMember", ctx, workspaceID, userID).Return(false, nil)

		_, err := svc.GetByID(ctx, userID, workspaceID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		workspaceRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestWorkspaceService_AddMember(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	workspaceID := uuid.New()
	newUserID := uuid.New()

	t.Run("admin adds member", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		workspaceRepo.On("GetMember", ctx, workspaceID, actorID).
			Return(&domain.WorkspaceMember{Role: domain.RoleAdmin}, nil)
		workspaceRepo.On("AddMember", ctx, mock.Anything).Return(nil)

		assert.NoError(t, svc.AddMember(ctx, actorID, workspaceID, newUserID, domain.RoleMember))
	})

	t.Run("member cannot add", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		workspaceRepo.On("GetMember", ctx, workspaceID, actorID).
			Return(&domain.WorkspaceMember{Role: domain.RoleMember}, nil)

		err := svc.AddMember(ctx, actorID, workspaceID, newUserID, domain.RoleMember)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("cannot grant owner role", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		workspaceRepo.On("GetMember", ctx, workspaceID, actorID).
			Return(&domain.WorkspaceMember{Role: domain.RoleOwner}, nil)

		err := svc.AddMember(ctx, actorID, workspaceID, newUserID, domain.RoleOwner)
		assert.Error(t, err)
		workspaceRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
	})
}

func TestWorkspaceService_RemoveMember(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("self removal allowed", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		userID := uuid.New()
		workspaceRepo.On("GetMember", ctx, workspaceID, userID).
			Return(&domain.WorkspaceMember{Role: domain.RoleMember}, nil)
		workspaceRepo.On("RemoveMember", ctx, workspaceID, userID).Return(nil)

		assert.NoError(t, svc.RemoveMember(ctx, userID, workspaceID, userID))
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(workspaceRepo)

		actorID := uuid.New()
		ownerID := uuid.New()
		workspaceRepo.On("GetMember", ctx, workspaceID, actorID).
			Return(&domain.WorkspaceMember{Role: domain.RoleAdmin}, nil)
		workspaceRepo.On("GetMember", ctx, workspaceID, ownerID).
			Return(&domain.WorkspaceMember{Role: domain.RoleOwner}, nil)

		err := svc.RemoveMember(ctx, actorID, workspaceID, ownerID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		workspaceRepo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
	})
}
