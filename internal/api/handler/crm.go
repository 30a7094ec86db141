package handler

import (
	"encoding/json"
	"net/http"

	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/service"
)

// CRMHandler handles customer, deal, task and interaction endpoints
type CRMHandler struct {
	crmService *service.CRMService
}

// NewCRMHandler creates a new CRM handler
func NewCRMHandler(crmService *service.CRMService) *CRMHandler {
	return &CRMHandler{crmService: crmService}
}

// CreateCustomer handles customer creation
func (h *CRMHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	customer, err := h.crmService.CreateCustomer(r.Context(), a, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, customer)
}

// UpdateCustomer handles partial customer updates
func (h *CRMHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "customerID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	customer, err := h.crmService.UpdateCustomer(r.Context(), a, id, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, customer)
}

// GetCustomer handles getting a customer by ID
func (h *CRMHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "customerID")
	if !ok {
		return
	}

	customer, err := h.crmService.GetCustomer(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, customer)
}

// ListCustomers handles listing customers with filters
func (h *CRMHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	customers, page, err := h.crmService.ListCustomers(r.Context(), a, listFilter(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, customers, page)
}

// DeleteCustomer handles deleting a customer
func (h *CRMHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "customerID")
	if !ok {
		return
	}

	if err := h.crmService.DeleteCustomer(r.Context(), a, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// CreateDeal handles deal creation
func (h *CRMHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	deal, err := h.crmService.CreateDeal(r.Context(), a, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, deal)
}

// UpdateDeal handles partial deal updates
func (h *CRMHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "dealID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	deal, err := h.crmService.UpdateDeal(r.Context(), a, id, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, deal)
}

// SetDealStage handles moving a deal to another stage
func (h *CRMHandler) SetDealStage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "dealID")
	if !ok {
		return
	}

	var input struct {
		Stage string `json:"stage" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	deal, err := h.crmService.SetDealStage(r.Context(), a, id, domain.DealStage(input.Stage))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, deal)
}

// GetDeal handles getting a deal by ID
func (h *CRMHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "dealID")
	if !ok {
		return
	}

	deal, err := h.crmService.GetDeal(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, deal)
}

// ListDeals handles listing deals with filters
func (h *CRMHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	deals, page, err := h.crmService.ListDeals(r.Context(), a, listFilter(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, deals, page)
}

// DeleteDeal handles deleting a deal
func (h *CRMHandler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "dealID")
	if !ok {
		return
	}

	if err := h.crmService.DeleteDeal(r.Context(), a, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// CreateTask handles task creation
func (h *CRMHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	task, err := h.crmService.CreateTask(r.Context(), a, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, task)
}

// UpdateTask handles partial task updates
func (h *CRMHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "taskID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	task, err := h.crmService.UpdateTask(r.Context(), a, id, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, task)
}

// CompleteTask handles completing a task
func (h *CRMHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "taskID")
	if !ok {
		return
	}

	task, err := h.crmService.CompleteTask(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, task)
}

// GetTask handles getting a task by ID
func (h *CRMHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "taskID")
	if !ok {
		return
	}

	task, err := h.crmService.GetTask(r.Context(), a, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, task)
}

// ListTasks handles listing tasks with filters
func (h *CRMHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	tasks, page, err := h.crmService.ListTasks(r.Context(), a, listFilter(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, tasks, page)
}

// DeleteTask handles deleting a task
func (h *CRMHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.crmService.DeleteTask(r.Context(), a, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// LogInteraction handles recording a customer interaction
func (h *CRMHandler) LogInteraction(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	customerID, ok := urlID(w, r, "customerID")
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	interaction, err := h.crmService.LogInteraction(r.Context(), a, customerID, payload)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, interaction)
}

// ListInteractions handles listing a customer's interaction log
func (h *CRMHandler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	customerID, ok := urlID(w, r, "customerID")
	if !ok {
		return
	}

	interactions, page, err := h.crmService.ListInteractions(r.Context(), a, customerID, listFilter(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Page(w, interactions, page)
}
