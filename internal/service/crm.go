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
)

// CRMService handles customers, deals, tasks and interactions. CRM
// records are collaborative: any workspace member may edit them, so
// mutations are gated on workspace access rather than ownership.
type CRMService struct {
	customerRepo    domain.CustomerRepository
	dealRepo        domain.DealRepository
	taskRepo        domain.TaskRepository
	interactionRepo domain.InteractionRepository
	workspaceRepo   domain.WorkspaceRepository
	pipe            *pipeline.Pipeline
	gate            *authz.Gate
}

// NewCRMService creates a new CRM service
func NewCRMService(
	customerRepo domain.CustomerRepository,
	dealRepo domain.DealRepository,
	taskRepo domain.TaskRepository,
	interactionRepo domain.InteractionRepository,
	workspaceRepo domain.WorkspaceRepository,
	pipe *pipeline.Pipeline,
	gate *authz.Gate,
) *CRMService {
	return &CRMService{
		customerRepo:    customerRepo,
		dealRepo:        dealRepo,
		taskRepo:        taskRepo,
		interactionRepo: interactionRepo,
		workspaceRepo:   workspaceRepo,
		pipe:            pipe,
		gate:            gate,
	}
}

// CreateCustomer validates and persists a new customer.
func (s *CRMService) CreateCustomer(ctx context.Context, actor domain.Actor, payload rules.Payload) (*domain.Customer, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, actor.WorkspaceID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "customer",
		Mode:    rules.ModeCreate,
		Schema:  rules.CustomerSchema,
		Payload: payload,
		Authorize: func() bool {
			return isMember && s.gate.CanCreate(actor, actor.WorkspaceID)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			now := time.Now()
			customer := &domain.Customer{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			applyCustomer(customer, p)

			if err := s.customerRepo.Create(ctx, customer); err != nil {
				return nil, err
			}
			return customer, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Customer), nil
}

// UpdateCustomer validates and persists a partial customer update.
func (s *CRMService) UpdateCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID, payload rules.Payload) (*domain.Customer, error) {
	customer, err := s.getCustomer(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:    actor,
		Kind:     "customer",
		Mode:     rules.ModeUpdate,
		Schema:   rules.CustomerSchema,
		Payload:  payload,
		Existing: customerPayload(customer),
		IgnoreID: customer.ID,
		Authorize: func() bool {
			return s.gate.CanAccess(actor, customer)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			updated := *customer
			applyCustomer(&updated, p)

			if err := s.customerRepo.Update(ctx, &updated); err != nil {
				return nil, err
			}
			return &updated, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Customer), nil
}

// GetCustomer retrieves a customer scoped to the actor's workspace.
func (s *CRMService) GetCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Customer, error) {
	return s.getCustomer(ctx, actor, id)
}

// ListCustomers retrieves a filtered page of customers.
func (s *CRMService) ListCustomers(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.Customer, domain.PageInfo, error) {
	filter.Normalize()

	customers, total, err := s.customerRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return customers, domain.NewPageInfo(filter, total), nil
}

// DeleteCustomer deletes a customer. Owner-gated.
func (s *CRMService) DeleteCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	customer, err := s.getCustomer(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.gate.CanDelete(actor, customer) {
		return domain.ErrForbidden
	}
	return s.customerRepo.Delete(ctx, id)
}

// CreateDeal validates and persists a new deal. The referenced customer
// must exist in the actor's workspace.
func (s *CRMService) CreateDeal(ctx context.Context, actor domain.Actor, payload rules.Payload) (*domain.Deal, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, actor.WorkspaceID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "deal",
		Mode:    rules.ModeCreate,
		Schema:  rules.DealSchema,
		Payload: payload,
		Authorize: func() bool {
			return isMember && s.gate.CanCreate(actor, actor.WorkspaceID)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			customerID := pipeline.UUIDField(p, "customer_id")
			if _, err := s.getCustomer(ctx, actor, customerID); err != nil {
				return nil, err
			}

			now := time.Now()
			deal := &domain.Deal{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				CustomerID:  customerID,
				Stage:       domain.DealStageNew,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			applyDeal(deal, p)

			if err := s.dealRepo.Create(ctx, deal); err != nil {
				return nil, err
			}
			return deal, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Deal), nil
}

// UpdateDeal validates and persists a partial deal update. Stage
// changes go through SetDealStage, not here.
func (s *CRMService) UpdateDeal(ctx context.Context, actor domain.Actor, id uuid.UUID, payload rules.Payload) (*domain.Deal, error) {
	deal, err := s.getDeal(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:    actor,
		Kind:     "deal",
		Mode:     rules.ModeUpdate,
		Schema:   rules.DealSchema,
		Payload:  payload,
		Existing: dealPayload(deal),
		IgnoreID: deal.ID,
		Authorize: func() bool {
			return s.gate.CanAccess(actor, deal)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			updated := *deal
			if v, ok := p.Get("title"); ok {
				updated.Title = asString(v)
			}
			if _, ok := p.Get("value"); ok {
				updated.Value = pipeline.NumberField(p, "value")
			}

			if err := s.dealRepo.Update(ctx, &updated); err != nil {
				return nil, err
			}
			return &updated, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Deal), nil
}

// SetDealStage moves a deal to any whitelisted stage. Setting the
// current stage again is a no-op success.
func (s *CRMService) SetDealStage(ctx context.Context, actor domain.Actor, id uuid.UUID, stage domain.DealStage) (*domain.Deal, error) {
	deal, err := s.getDeal(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccess(actor, deal) {
		return nil, domain.ErrForbidden
	}

	changed, err := lifecycle.SetDealStage(deal, stage, time.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return deal, nil
	}

	deal.UpdatedAt = time.Now()
	if err := s.dealRepo.Update(ctx, deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// GetDeal retrieves a deal scoped to the actor's workspace.
func (s *CRMService) GetDeal(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Deal, error) {
	return s.getDeal(ctx, actor, id)
}

// ListDeals retrieves a filtered page of deals.
func (s *CRMService) ListDeals(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.Deal, domain.PageInfo, error) {
	filter.Normalize()

	deals, total, err := s.dealRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return deals, domain.NewPageInfo(filter, total), nil
}

// DeleteDeal deletes a deal. Owner-gated.
func (s *CRMService) DeleteDeal(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	deal, err := s.getDeal(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.gate.CanDelete(actor, deal) {
		return domain.ErrForbidden
	}
	return s.dealRepo.Delete(ctx, id)
}

// CreateTask validates and persists a new open task.
func (s *CRMService) CreateTask(ctx context.Context, actor domain.Actor, payload rules.Payload) (*domain.Task, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, actor.WorkspaceID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "task",
		Mode:    rules.ModeCreate,
		Schema:  rules.TaskSchema,
		Payload: payload,
		Authorize: func() bool {
			return isMember && s.gate.CanCreate(actor, actor.WorkspaceID)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			if customerID := pipeline.UUIDField(p, "customer_id"); customerID != uuid.Nil {
				if _, err := s.getCustomer(ctx, actor, customerID); err != nil {
					return nil, err
				}
			}

			now := time.Now()
			task := &domain.Task{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				Status:      domain.TaskStatusOpen,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			applyTask(task, p)

			if err := s.taskRepo.Create(ctx, task); err != nil {
				return nil, err
			}
			return task, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Task), nil
}

// UpdateTask validates and persists a partial task update. Completion
// state is owned by CompleteTask, never touched here.
func (s *CRMService) UpdateTask(ctx context.Context, actor domain.Actor, id uuid.UUID, payload rules.Payload) (*domain.Task, error) {
	task, err := s.getTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:    actor,
		Kind:     "task",
		Mode:     rules.ModeUpdate,
		Schema:   rules.TaskSchema,
		Payload:  payload,
		Existing: taskPayload(task),
		IgnoreID: task.ID,
		Authorize: func() bool {
			return s.gate.CanAccess(actor, task)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			updated := *task
			applyTask(&updated, p)

			if err := s.taskRepo.Update(ctx, &updated); err != nil {
				return nil, err
			}
			return &updated, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Task), nil
}

// CompleteTask completes an open task. Completing a completed task is
// a no-op success; the original completion time is kept.
func (s *CRMService) CompleteTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	task, err := s.getTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccess(actor, task) {
		return nil, domain.ErrForbidden
	}

	changed, err := lifecycle.CompleteTask(task, time.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return task, nil
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a task scoped to the actor's workspace.
func (s *CRMService) GetTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	return s.getTask(ctx, actor, id)
}

// ListTasks retrieves a filtered page of tasks.
func (s *CRMService) ListTasks(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.Task, domain.PageInfo, error) {
	filter.Normalize()

	tasks, total, err := s.taskRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return tasks, domain.NewPageInfo(filter, total), nil
}

// DeleteTask deletes a task. Owner-gated.
func (s *CRMService) DeleteTask(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	task, err := s.getTask(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.gate.CanDelete(actor, task) {
		return domain.ErrForbidden
	}
	return s.taskRepo.Delete(ctx, id)
}

// LogInteraction records a customer touchpoint. Interactions are an
// append-only log; there is no update or delete.
func (s *CRMService) LogInteraction(ctx context.Context, actor domain.Actor, customerID uuid.UUID, payload rules.Payload) (*domain.Interaction, error) {
	customer, err := s.getCustomer(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}

	sub := pipeline.Submission{
		Actor:   actor,
		Kind:    "interaction",
		Mode:    rules.ModeCreate,
		Schema:  rules.InteractionSchema,
		Payload: payload,
		Authorize: func() bool {
			return s.gate.CanAccess(actor, customer)
		},
		Persist: func(ctx context.Context, p rules.Payload) (any, error) {
			now := time.Now()
			interaction := &domain.Interaction{
				ID:          uuid.New(),
				WorkspaceID: actor.WorkspaceID,
				OwnerID:     actor.ID,
				CustomerID:  customer.ID,
				Kind:        domain.InteractionKind(pipeline.StringField(p, "kind")),
				Summary:     pipeline.StringField(p, "summary"),
				OccurredAt:  now,
				CreatedAt:   now,
			}
			if occurred := pipeline.DateField(p, "occurred_at"); occurred != nil {
				interaction.OccurredAt = *occurred
			}

			if err := s.interactionRepo.Create(ctx, interaction); err != nil {
				return nil, err
			}
			return interaction, nil
		},
	}

	out, err := s.pipe.Run(ctx, sub)
	if err != nil {
		return nil, err
	}
	return out.(*domain.Interaction), nil
}

// ListInteractions retrieves a page of a customer's interaction log.
func (s *CRMService) ListInteractions(ctx context.Context, actor domain.Actor, customerID uuid.UUID, filter domain.ListFilter) ([]domain.Interaction, domain.PageInfo, error) {
	if _, err := s.getCustomer(ctx, actor, customerID); err != nil {
		return nil, domain.PageInfo{}, err
	}
	filter.Normalize()

	interactions, total, err := s.interactionRepo.ListByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return interactions, domain.NewPageInfo(filter, total), nil
}

func (s *CRMService) getCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByIDAndWorkspace(ctx, id, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *CRMService) getDeal(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Deal, error) {
	deal, err := s.dealRepo.GetByIDAndWorkspace(ctx, id, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, domain.ErrNotFound
	}
	return deal, nil
}

func (s *CRMService) getTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByIDAndWorkspace(ctx, id, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func applyCustomer(customer *domain.Customer, p rules.Payload) {
	if v, ok := p.Get("name"); ok {
		customer.Name = asString(v)
	}
	if v, ok := p.Get("email"); ok {
		customer.Email = asString(v)
	}
	if v, ok := p.Get("phone"); ok {
		customer.Phone = asString(v)
	}
	if v, ok := p.Get("company"); ok {
		customer.Company = asString(v)
	}
	if v, ok := p.Get("address"); ok {
		customer.Address = asString(v)
	}
	if v, ok := p.Get("notes"); ok {
		customer.Notes = asString(v)
	}
}

func customerPayload(customer *domain.Customer) rules.Payload {
	p := rules.Payload{"name": customer.Name}
	if customer.Email != "" {
		p["email"] = customer.Email
	}
	if customer.Phone != "" {
		p["phone"] = customer.Phone
	}
	if customer.Company != "" {
		p["company"] = customer.Company
	}
	if customer.Address != "" {
		p["address"] = customer.Address
	}
	if customer.Notes != "" {
		p["notes"] = customer.Notes
	}
	return p
}

func applyDeal(deal *domain.Deal, p rules.Payload) {
	if v, ok := p.Get("title"); ok {
		deal.Title = asString(v)
	}
	if _, ok := p.Get("value"); ok {
		deal.Value = pipeline.NumberField(p, "value")
	}
	if v, ok := p.Get("stage"); ok {
		if stage := domain.DealStage(asString(v)); stage != "" {
			deal.Stage = stage
		}
	}
}

func dealPayload(deal *domain.Deal) rules.Payload {
	p := rules.Payload{
		"title":       deal.Title,
		"customer_id": deal.CustomerID.String(),
		"stage":       string(deal.Stage),
	}
	if deal.Value != 0 {
		p["value"] = deal.Value
	}
	return p
}

func applyTask(task *domain.Task, p rules.Payload) {
	if v, ok := p.Get("title"); ok {
		task.Title = asString(v)
	}
	if v, ok := p.Get("description"); ok {
		task.Description = asString(v)
	}
	if _, ok := p.Get("due_date"); ok {
		task.DueDate = pipeline.DateField(p, "due_date")
	}
	if _, ok := p.Get("customer_id"); ok {
		if id := pipeline.UUIDField(p, "customer_id"); id != uuid.Nil {
			task.CustomerID = &id
		} else {
			task.CustomerID = nil
		}
	}
	if _, ok := p.Get("assigned_to"); ok {
		if id := pipeline.UUIDField(p, "assigned_to"); id != uuid.Nil {
			task.AssignedTo = &id
		} else {
			task.AssignedTo = nil
		}
	}
}

func taskPayload(task *domain.Task) rules.Payload {
	p := rules.Payload{"title": task.Title}
	if task.Description != "" {
		p["description"] = task.Description
	}
	if task.DueDate != nil {
		p["due_date"] = task.DueDate.Format(time.RFC3339)
	}
	if task.CustomerID != nil {
		p["customer_id"] = task.CustomerID.String()
	}
	if task.AssignedTo != nil {
		p["assigned_to"] = task.AssignedTo.String()
	}
	return p
}
