package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"leadscore/internal/cache"
	"leadscore/internal/model"
	"leadscore/internal/repository"
	"leadscore/internal/scoring"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignHasLeads = errors.New("campaign still has leads attached")
)

// weightSumTolerance is how far the enabled factor weights may drift
// from 1.0 before a scoring config is rejected
const weightSumTolerance = 0.01

// CampaignUpdate carries a partial campaign update. Nil fields are left
// unchanged.
type CampaignUpdate struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *model.CampaignStatus `json:"status,omitempty"`
	Objective   *string               `json:"objective,omitempty"`
	Budget      *model.Budget         `json:"budget,omitempty"`
	EndDate     *time.Time            `json:"endDate,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
}

// CampaignService handles campaign lifecycle and scoring configuration
type CampaignService struct {
	campaignRepo repository.CampaignRepo
	leadRepo     repository.LeadRepo
	engine       *scoring.Engine
	broadcaster  Broadcaster
	logger       *zap.Logger
	analytics    cache.AnalyticsCache
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepo,
	leadRepo repository.LeadRepo,
	engine *scoring.Engine,
	analytics cache.AnalyticsCache,
	logger *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		leadRepo:     leadRepo,
		engine:       engine,
		analytics:    analytics,
		logger:       logger,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *CampaignService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create validates and persists a new campaign
func (s *CampaignService) Create(ctx context.Context, owner string, campaign *model.Campaign) (*model.Campaign, error) {
	if campaign.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	switch campaign.Platform {
	case model.PlatformMeta, model.PlatformGoogle, model.PlatformManual:
	case "":
		campaign.Platform = model.PlatformManual
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", ErrValidation, campaign.Platform)
	}
	if campaign.Status == "" {
		campaign.Status = model.CampaignDraft
	}
	if campaign.ScoringConfig.Enabled {
		if err := s.validateScoringConfig(campaign.ScoringConfig); err != nil {
			return nil, err
		}
	}
	campaign.Owner = owner

	if _, err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	s.broadcastToOwner(owner, EventCampaignCreated, campaign)
	return campaign, nil
}

// Get returns an owned campaign by ID
func (s *CampaignService) Get(ctx context.Context, owner, id string) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.Owner != owner {
		return nil, ErrForbidden
	}
	return campaign, nil
}

// List returns all campaigns of the owner, newest first
func (s *CampaignService) List(ctx context.Context, owner string) ([]*model.Campaign, error) {
	return s.campaignRepo.GetByOwner(ctx, owner)
}

// Update applies a partial update to an owned campaign
func (s *CampaignService) Update(ctx context.Context, owner, id string, update *CampaignUpdate) (*model.Campaign, error) {
	campaign, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		switch *update.Status {
		case model.CampaignActive, model.CampaignPaused, model.CampaignCompleted,
			model.CampaignDraft, model.CampaignArchived:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *update.Status)
		}
		campaign.Status = *update.Status
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be cleared", ErrValidation)
		}
		campaign.Name = *update.Name
	}
	if update.Description != nil {
		campaign.Description = *update.Description
	}
	if update.Objective != nil {
		campaign.Objective = *update.Objective
	}
	if update.Budget != nil {
		campaign.Budget = *update.Budget
	}
	if update.EndDate != nil {
		campaign.EndDate = update.EndDate
	}
	if update.Tags != nil {
		campaign.Tags = update.Tags
	}

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	s.broadcastToOwner(owner, EventCampaignUpdated, campaign)
	return campaign, nil
}

// Delete removes an owned campaign. Campaigns with leads attached are
// protected so lead records never dangle.
func (s *CampaignService) Delete(ctx context.Context, owner, id string) error {
	campaign, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	leads, err := s.leadRepo.GetByCampaign(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if len(leads) > 0 {
		return ErrCampaignHasLeads
	}

	if err := s.campaignRepo.Delete(ctx, campaign.ID); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	s.broadcastToOwner(owner, EventCampaignDeleted, map[string]interface{}{"campaignId": campaign.ID})
	return nil
}

// UpdateMetrics replaces the platform-reported metrics of a campaign
func (s *CampaignService) UpdateMetrics(ctx context.Context, owner, id string, metrics model.CampaignMetrics) (*model.Campaign, error) {
	campaign, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if metrics.Impressions < 0 || metrics.Clicks < 0 || metrics.Conversions < 0 {
		return nil, fmt.Errorf("%w: metrics counts cannot be negative", ErrValidation)
	}

	if err := s.campaignRepo.UpdateMetrics(ctx, campaign.ID, metrics); err != nil {
		return nil, fmt.Errorf("failed to update metrics: %w", err)
	}
	campaign.Metrics = metrics

	// Campaign metrics feed a scoring factor, so cached analytics built
	// on old metrics are stale now
	if err := s.analytics.InvalidateOwner(ctx, owner); err != nil {
		s.logger.Warn("analytics invalidation failed", zap.String("owner", owner), zap.Error(err))
	}
	s.broadcastToOwner(owner, EventCampaignMetricsUpdated, map[string]interface{}{
		"campaignId": campaign.ID,
		"metrics":    metrics,
	})
	return campaign, nil
}

// UpdateScoringConfig replaces the per-campaign factor overrides after
// validating them against the engine catalog
func (s *CampaignService) UpdateScoringConfig(ctx context.Context, owner, id string, cfg model.ScoringConfig) (*model.Campaign, error) {
	campaign, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if cfg.Enabled {
		if err := s.validateScoringConfig(cfg); err != nil {
			return nil, err
		}
	}

	if err := s.campaignRepo.UpdateScoringConfig(ctx, campaign.ID, cfg); err != nil {
		return nil, fmt.Errorf("failed to update scoring config: %w", err)
	}
	campaign.ScoringConfig = cfg
	s.broadcastToOwner(owner, EventCampaignScoringConfigUpdated, map[string]interface{}{
		"campaignId":    campaign.ID,
		"scoringConfig": cfg,
	})
	return campaign, nil
}

// validateScoringConfig rejects configs referencing unknown factors,
// carrying negative weights, or whose enabled weights do not sum to 1.0
// within tolerance. The engine itself accepts any weight partition and
// normalizes; the sum rule is this collaborator's policy so campaign
// configs stay comparable across campaigns.
func (s *CampaignService) validateScoringConfig(cfg model.ScoringConfig) error {
	if len(cfg.Factors) == 0 {
		return fmt.Errorf("%w: enabled scoring config needs at least one factor", ErrValidation)
	}

	catalog := s.engine.Catalog()
	seen := make(map[string]bool, len(cfg.Factors))
	sum := 0.0
	for _, f := range cfg.Factors {
		if !catalog.Contains(f.Name) {
			return fmt.Errorf("%w: unknown factor %q", ErrValidation, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate factor %q", ErrValidation, f.Name)
		}
		seen[f.Name] = true
		if f.Weight < 0 {
			return fmt.Errorf("%w: factor %q has negative weight", ErrValidation, f.Name)
		}
		if f.Enabled {
			sum += f.Weight
		}
	}

	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: enabled factor weights sum to %.3f, want 1.0 ±%.2f",
			ErrValidation, sum, weightSumTolerance)
	}
	return nil
}

func (s *CampaignService) broadcastToOwner(owner, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToUser(owner, msgType, payload)
	}
}
