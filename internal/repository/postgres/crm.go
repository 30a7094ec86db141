package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clarionhq/daypress/internal/domain"
)

// CustomerRepository handles CRM customer data access
type CustomerRepository struct {
	db *DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (
			id, workspace_id, owner_id, name, email, phone, company,
			address, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		customer.ID,
		customer.WorkspaceID,
		customer.OwnerID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Company,
		customer.Address,
		customer.Notes,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByIDAndWorkspace retrieves a customer by ID scoped to a workspace
func (r *CustomerRepository) GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, workspace_id, owner_id, name, email, phone, company,
		       address, notes, created_at, updated_at
		FROM customers
		WHERE id = $1 AND workspace_id = $2
	`

	var customer domain.Customer
	err := r.db.Pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&customer.ID,
		&customer.WorkspaceID,
		&customer.OwnerID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Company,
		&customer.Address,
		&customer.Notes,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// Update updates a customer
func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, company = $5,
		    address = $6, notes = $7, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Company,
		customer.Address,
		customer.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}

// Delete deletes a customer
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// List retrieves a filtered page of customers. Search covers name,
// company, email and address.
func (r *CustomerRepository) List(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.Customer, int, error) {
	where := "WHERE workspace_id = $1"
	args := []any{workspaceID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR company ILIKE $%d OR email ILIKE $%d OR address ILIKE $%d)", n, n, n, n)
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, workspace_id, owner_id, name, email, phone, company,
		       address, notes, created_at, updated_at
		FROM customers
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.WorkspaceID,
			&customer.OwnerID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.Company,
			&customer.Address,
			&customer.Notes,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	return customers, total, nil
}

// DealRepository handles CRM deal data access
type DealRepository struct {
	db *DB
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db *DB) *DealRepository {
	return &DealRepository{db: db}
}

// Create creates a new deal
func (r *DealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	query := `
		INSERT INTO deals (
			id, workspace_id, owner_id, customer_id, title, value,
			stage, closed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		deal.ID,
		deal.WorkspaceID,
		deal.OwnerID,
		deal.CustomerID,
		deal.Title,
		deal.Value,
		deal.Stage,
		deal.ClosedAt,
		deal.CreatedAt,
		deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	return nil
}

// GetByIDAndWorkspace retrieves a deal by ID scoped to a workspace
func (r *DealRepository) GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*domain.Deal, error) {
	query := `
		SELECT id, workspace_id, owner_id, customer_id, title, value,
		       stage, closed_at, created_at, updated_at
		FROM deals
		WHERE id = $1 AND workspace_id = $2
	`

	var deal domain.Deal
	err := r.db.Pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&deal.ID,
		&deal.WorkspaceID,
		&deal.OwnerID,
		&deal.CustomerID,
		&deal.Title,
		&deal.Value,
		&deal.Stage,
		&deal.ClosedAt,
		&deal.CreatedAt,
		&deal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return &deal, nil
}

// Update updates a deal
func (r *DealRepository) Update(ctx context.Context, deal *domain.Deal) error {
	query := `
		UPDATE deals
		SET title = $2, value = $3, stage = $4, closed_at = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		deal.ID,
		deal.Title,
		deal.Value,
		deal.Stage,
		deal.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	return nil
}

// Delete deletes a deal
func (r *DealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM deals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	return nil
}

// List retrieves a filtered page of deals.
func (r *DealRepository) List(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.Deal, int, error) {
	where := "WHERE workspace_id = $1"
	args := []any{workspaceID}

	if filter.Stage != "" {
		args = append(args, filter.Stage)
		where += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM deals "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count deals: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, workspace_id, owner_id, customer_id, title, value,
		       stage, closed_at, created_at, updated_at
		FROM deals
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var deals []domain.Deal
	for rows.Next() {
		var deal domain.Deal
		if err := rows.Scan(
			&deal.ID,
			&deal.WorkspaceID,
			&deal.OwnerID,
			&deal.CustomerID,
			&deal.Title,
			&deal.Value,
			&deal.Stage,
			&deal.ClosedAt,
			&deal.CreatedAt,
			&deal.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, deal)
	}

	return deals, total, nil
}

// TaskRepository handles CRM task data access
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (
			id, workspace_id, owner_id, customer_id, assigned_to, title,
			description, due_date, status, completed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		task.ID,
		task.WorkspaceID,
		task.OwnerID,
		task.CustomerID,
		task.AssignedTo,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByIDAndWorkspace retrieves a task by ID scoped to a workspace
func (r *TaskRepository) GetByIDAndWorkspace(ctx context.Context, id, workspaceID uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, workspace_id, owner_id, customer_id, assigned_to, title,
		       description, due_date, status, completed_at, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND workspace_id = $2
	`

	var task domain.Task
	err := r.db.Pool.QueryRow(ctx, query, id, workspaceID).Scan(
		&task.ID,
		&task.WorkspaceID,
		&task.OwnerID,
		&task.CustomerID,
		&task.AssignedTo,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Status,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// Update updates a task
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET customer_id = $2, assigned_to = $3, title = $4, description = $5,
		    due_date = $6, status = $7, completed_at = $8, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		task.ID,
		task.CustomerID,
		task.AssignedTo,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// Delete deletes a task
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// List retrieves a filtered page of tasks, soonest due first.
func (r *TaskRepository) List(ctx context.Context, workspaceID uuid.UUID, filter domain.ListFilter) ([]domain.Task, int, error) {
	where := "WHERE workspace_id = $1"
	args := []any{workspaceID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", n, n)
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, workspace_id, owner_id, customer_id, assigned_to, title,
		       description, due_date, status, completed_at, created_at, updated_at
		FROM tasks
		%s
		ORDER BY due_date ASC NULLS LAST, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.WorkspaceID,
			&task.OwnerID,
			&task.CustomerID,
			&task.AssignedTo,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.Status,
			&task.CompletedAt,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, total, nil
}

// InteractionRepository handles CRM interaction data access
type InteractionRepository struct {
	db *DB
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create creates a new interaction
func (r *InteractionRepository) Create(ctx context.Context, interaction *domain.Interaction) error {
	query := `
		INSERT INTO interactions (
			id, workspace_id, owner_id, customer_id, kind, summary,
			occurred_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		interaction.ID,
		interaction.WorkspaceID,
		interaction.OwnerID,
		interaction.CustomerID,
		interaction.Kind,
		interaction.Summary,
		interaction.OccurredAt,
		interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}

	return nil
}

// ListByCustomer retrieves a page of interactions for a customer,
// most recent first.
func (r *InteractionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter domain.ListFilter) ([]domain.Interaction, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interactions WHERE customer_id = $1`, customerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	query := `
		SELECT id, workspace_id, owner_id, customer_id, kind, summary,
		       occurred_at, created_at
		FROM interactions
		WHERE customer_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, customerID, filter.PageSize, filter.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []domain.Interaction
	for rows.Next() {
		var interaction domain.Interaction
		if err := rows.Scan(
			&interaction.ID,
			&interaction.WorkspaceID,
			&interaction.OwnerID,
			&interaction.CustomerID,
			&interaction.Kind,
			&interaction.Summary,
			&interaction.OccurredAt,
			&interaction.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, interaction)
	}

	return interactions, total, nil
}
