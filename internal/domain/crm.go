package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Customer is a CRM contact owned by a workspace.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Address     string    `json:"address,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Customer) Owner() uuid.UUID     { return c.OwnerID }
func (c *Customer) Workspace() uuid.UUID { return c.WorkspaceID }
func (c *Customer) Mutable() bool        { return true }

// DealStage names a deal pipeline stage. Stages are a whitelist, not a
// strict progression: any listed stage may be set from any other, which
// matches how sales users actually move deals around.
type DealStage string

const (
	DealStageNew       DealStage = "new"
	DealStageContacted DealStage = "contacted"
	DealStageQualified DealStage = "qualified"
	DealStageProposal  DealStage = "proposal"
	DealStageWon       DealStage = "won"
	DealStageLost      DealStage = "lost"
)

// DealStages is the allowed stage whitelist.
var DealStages = []DealStage{
	DealStageNew, DealStageContacted, DealStageQualified,
	DealStageProposal, DealStageWon, DealStageLost,
}

// Deal is a sales opportunity attached to a customer.
type Deal struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	Title       string     `json:"title"`
	Value       float64    `json:"value,omitempty"`
	Stage       DealStage  `json:"stage"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (d *Deal) Owner() uuid.UUID     { return d.OwnerID }
func (d *Deal) Workspace() uuid.UUID { return d.WorkspaceID }

// Mutable is always true for deals: there is no draft gate, only the
// workspace check.
func (d *Deal) Mutable() bool { return true }

// Terminal reports whether the deal has reached a closing stage.
func (d *Deal) Terminal() bool {
	return d.Stage == DealStageWon || d.Stage == DealStageLost
}

// TaskStatus enumerates task states. Completion is one-way.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is a CRM to-do assigned to a user. CompletedAt is set only by
// the complete transition.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      TaskStatus `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) Owner() uuid.UUID     { return t.OwnerID }
func (t *Task) Workspace() uuid.UUID { return t.WorkspaceID }
func (t *Task) Mutable() bool        { return true }

// InteractionKind enumerates customer interaction types.
type InteractionKind string

const (
	InteractionNote  InteractionKind = "note"
	InteractionCall  InteractionKind = "call"
	InteractionEmail InteractionKind = "email"
	InteractionVisit InteractionKind = "visit"
)

// Interaction is a logged touchpoint with a customer.
type Interaction struct {
	ID          uuid.UUID       `json:"id"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Kind        InteractionKind `json:"kind"`
	Summary     string          `json:"summary"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (i *Interaction) Owner() uuid.UUID     { return i.OwnerID }
func (i *Interaction) Workspace() uuid.UUID { return i.WorkspaceID }
func (i *Interaction) Mutable() bool        { return true }

// CustomerRepository defines the interface for customer storage.
type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*Customer, error)
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Customer, int, error)
}

// DealRepository defines the interface for deal storage.
type DealRepository interface {
	Create(ctx context.Context, deal *Deal) error
	GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*Deal, error)
	Update(ctx context.Context, deal *Deal) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Deal, int, error)
}

// TaskRepository defines the interface for task storage.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Task, int, error)
}

// InteractionRepository defines the interface for interaction storage.
type InteractionRepository interface {
	Create(ctx context.Context, interaction *Interaction) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filter ListFilter) ([]Interaction, int, error)
}
