package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"leadscore/internal/model"
	"leadscore/internal/service"
	"leadscore/internal/transport/rest/middleware"
)

// ScoringHandler handles scoring endpoints
type ScoringHandler struct {
	scoringSvc  *service.ScoringService
	campaignSvc *service.CampaignService
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(scoringSvc *service.ScoringService, campaignSvc *service.CampaignService) *ScoringHandler {
	return &ScoringHandler{
		scoringSvc:  scoringSvc,
		campaignSvc: campaignSvc,
	}
}

// Recalculate handles POST /v1/scoring/recalculate
func (h *ScoringHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	var req service.RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.scoringSvc.Recalculate(r.Context(), owner, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Explain handles GET /v1/leads/{id}/scoring
func (h *ScoringHandler) Explain(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	exp, err := h.scoringSvc.Explanation(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, exp)
}

// History handles GET /v1/scoring/history/{leadId}
func (h *ScoringHandler) History(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	leadID := mux.Vars(r)["leadId"]

	history, err := h.scoringSvc.History(r.Context(), owner, leadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// Config handles GET /v1/scoring/config
func (h *ScoringHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scoringSvc.Config())
}

// UpdateConfig handles PUT /v1/scoring/config/{campaignId}
func (h *ScoringHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	campaignID := mux.Vars(r)["campaignId"]

	var cfg model.ScoringConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.campaignSvc.UpdateScoringConfig(r.Context(), owner, campaignID, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}
