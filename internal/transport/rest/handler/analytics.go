package handler

import (
	"net/http"

	"leadscore/internal/service"
	"leadscore/internal/transport/rest/middleware"
)

// AnalyticsHandler handles analytics endpoints
type AnalyticsHandler struct {
	analyticsSvc *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsSvc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// Dashboard handles GET /v1/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	days := queryInt(r.URL.Query().Get("days"), 30)

	dashboard, err := h.analyticsSvc.Dashboard(r.Context(), owner, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// Scores handles GET /v1/analytics/scores
func (h *AnalyticsHandler) Scores(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	analytics, err := h.analyticsSvc.Scores(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}
