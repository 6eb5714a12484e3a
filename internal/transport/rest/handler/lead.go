package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"leadscore/internal/model"
	"leadscore/internal/repository"
	"leadscore/internal/service"
	"leadscore/internal/transport/rest/middleware"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	leadSvc *service.LeadService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadSvc *service.LeadService) *LeadHandler {
	return &LeadHandler{leadSvc: leadSvc}
}

// ListResponse is the paged envelope for GET /v1/leads
type ListResponse struct {
	Leads []*model.Lead `json:"leads"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// List handles GET /v1/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	filter := repository.LeadFilter{
		Status:     model.LeadStatus(q.Get("status")),
		Priority:   model.LeadPriority(q.Get("priority")),
		CampaignID: q.Get("campaignId"),
		Page:       queryInt(q.Get("page"), 1),
		Limit:      queryInt(q.Get("limit"), 20),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}

	leads, total, err := h.leadSvc.List(r.Context(), owner, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if leads == nil {
		leads = []*model.Lead{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Leads: leads,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// Create handles POST /v1/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.leadSvc.Create(r.Context(), owner, &lead)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /v1/leads/{id}
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	lead, err := h.leadSvc.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Update handles PUT /v1/leads/{id}
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	var update service.LeadUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.leadSvc.Update(r.Context(), owner, id, &update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Delete handles DELETE /v1/leads/{id}
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.leadSvc.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddNoteRequest is the request body for adding a note
type AddNoteRequest struct {
	Content   string `json:"content"`
	IsPrivate bool   `json:"isPrivate"`
}

// AddNote handles POST /v1/leads/{id}/notes
func (h *LeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.leadSvc.AddNote(r.Context(), owner, id, req.Content, req.IsPrivate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// AddInteraction handles POST /v1/leads/{id}/interactions
func (h *LeadHandler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	var interaction model.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.leadSvc.AddInteraction(r.Context(), owner, id, interaction)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// Hot handles GET /v1/leads/hot
func (h *LeadHandler) Hot(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	leads, err := h.leadSvc.HotLeads(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if leads == nil {
		leads = []*model.Lead{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
