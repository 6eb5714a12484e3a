package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"leadscore/internal/model"
	"leadscore/internal/service"
	"leadscore/internal/transport/rest/middleware"
)

// CampaignHandler handles campaign endpoints
type CampaignHandler struct {
	campaignSvc *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignSvc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignSvc: campaignSvc}
}

// List handles GET /v1/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	campaigns, err := h.campaignSvc.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"campaigns": campaigns})
}

// Create handles POST /v1/campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	var campaign model.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.campaignSvc.Create(r.Context(), owner, &campaign)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /v1/campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	campaign, err := h.campaignSvc.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

// Update handles PUT /v1/campaigns/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	var update service.CampaignUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.campaignSvc.Update(r.Context(), owner, id, &update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

// Delete handles DELETE /v1/campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.campaignSvc.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UpdateMetrics handles PUT /v1/campaigns/{id}/metrics
func (h *CampaignHandler) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	var metrics model.CampaignMetrics
	if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.campaignSvc.UpdateMetrics(r.Context(), owner, id, metrics)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}
