package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"leadscore/internal/config"
	"leadscore/internal/service"
	"leadscore/internal/transport/rest/handler"
	"leadscore/internal/transport/rest/middleware"
	"leadscore/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config           *config.Config
	AuthService      *service.AuthService
	LeadService      *service.LeadService
	CampaignService  *service.CampaignService
	ScoringService   *service.ScoringService
	AnalyticsService *service.AnalyticsService
	WSHub            *ws.Hub
	Logger           *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	leadHandler := handler.NewLeadHandler(c.LeadService)
	campaignHandler := handler.NewCampaignHandler(c.CampaignService)
	scoringHandler := handler.NewScoringHandler(c.ScoringService, c.CampaignService)
	analyticsHandler := handler.NewAnalyticsHandler(c.AnalyticsService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Config))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws", wsHandler.Serve).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	api := v1.NewRoute().Subrouter()
	api.Use(authMW.RequireAuth)

	// Lead routes; /leads/hot must register before /leads/{id}
	api.HandleFunc("/leads/hot", leadHandler.Hot).Methods("GET", "OPTIONS")
	api.HandleFunc("/leads", leadHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/leads", leadHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/leads/{id}", leadHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/leads/{id}", leadHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/leads/{id}", leadHandler.Delete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/leads/{id}/notes", leadHandler.AddNote).Methods("POST", "OPTIONS")
	api.HandleFunc("/leads/{id}/interactions", leadHandler.AddInteraction).Methods("POST", "OPTIONS")
	api.HandleFunc("/leads/{id}/scoring", scoringHandler.Explain).Methods("GET", "OPTIONS")

	// Campaign routes
	api.HandleFunc("/campaigns", campaignHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/campaigns", campaignHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/campaigns/{id}", campaignHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/campaigns/{id}", campaignHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/campaigns/{id}", campaignHandler.Delete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/campaigns/{id}/metrics", campaignHandler.UpdateMetrics).Methods("PUT", "OPTIONS")

	// Scoring routes
	api.HandleFunc("/scoring/recalculate", scoringHandler.Recalculate).Methods("POST", "OPTIONS")
	api.HandleFunc("/scoring/config", scoringHandler.Config).Methods("GET", "OPTIONS")
	api.HandleFunc("/scoring/config/{campaignId}", scoringHandler.UpdateConfig).Methods("PUT", "OPTIONS")
	api.HandleFunc("/scoring/history/{leadId}", scoringHandler.History).Methods("GET", "OPTIONS")

	// Analytics routes
	api.HandleFunc("/analytics/dashboard", analyticsHandler.Dashboard).Methods("GET", "OPTIONS")
	api.HandleFunc("/analytics/scores", analyticsHandler.Scores).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
