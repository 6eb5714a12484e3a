package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leadscore/internal/cache"
	"leadscore/internal/model"
	"leadscore/internal/repository"
	"leadscore/internal/scoring"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// scoreAffectingUpdate reports whether an update touches a field the
// scoring engine reads, so the lead has to be rescored after the write.
func scoreAffectingUpdate(u *LeadUpdate) bool {
	return u.FirstName != nil || u.LastName != nil || u.Email != nil ||
		u.Phone != nil || u.Company != nil || u.JobTitle != nil ||
		u.FormData != nil
}

// LeadUpdate carries a partial lead update. Nil fields are left unchanged.
type LeadUpdate struct {
	FirstName  *string                `json:"firstName,omitempty"`
	LastName   *string                `json:"lastName,omitempty"`
	Email      *string                `json:"email,omitempty"`
	Phone      *string                `json:"phone,omitempty"`
	Company    *string                `json:"company,omitempty"`
	JobTitle   *string                `json:"jobTitle,omitempty"`
	Status     *model.LeadStatus      `json:"status,omitempty"`
	Priority   *model.LeadPriority    `json:"priority,omitempty"`
	FormData   map[string]interface{} `json:"formData,omitempty"`
	Tags       []string               `json:"tags,omitempty"`
	Conversion *model.Conversion      `json:"conversion,omitempty"`
}

// LeadService handles lead lifecycle, engagement tracking and rescoring
type LeadService struct {
	leadRepo     repository.LeadRepo
	campaignRepo repository.CampaignRepo
	engine       *scoring.Engine
	hotLeads     cache.HotLeadsCache
	scoreCache   cache.ScoreCache
	analytics    cache.AnalyticsCache
	broadcaster  Broadcaster
	logger       *zap.Logger
	hotLeadLimit int
}

// NewLeadService creates a new lead service
func NewLeadService(
	leadRepo repository.LeadRepo,
	campaignRepo repository.CampaignRepo,
	engine *scoring.Engine,
	hotLeads cache.HotLeadsCache,
	scoreCache cache.ScoreCache,
	analytics cache.AnalyticsCache,
	logger *zap.Logger,
	hotLeadLimit int,
) *LeadService {
	return &LeadService{
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		engine:       engine,
		hotLeads:     hotLeads,
		scoreCache:   scoreCache,
		analytics:    analytics,
		logger:       logger,
		hotLeadLimit: hotLeadLimit,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *LeadService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create validates, scores and persists a new lead
func (s *LeadService) Create(ctx context.Context, owner string, lead *model.Lead) (*model.Lead, error) {
	if lead.FirstName == "" || lead.LastName == "" {
		return nil, fmt.Errorf("%w: firstName and lastName are required", ErrValidation)
	}
	if lead.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if lead.CampaignID == "" {
		return nil, fmt.Errorf("%w: campaignId is required", ErrValidation)
	}
	if lead.Source == "" {
		lead.Source = model.SourceManual
	}
	if !validSource(lead.Source) {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, lead.Source)
	}
	if lead.Status == "" {
		lead.Status = model.StatusNew
	}
	if lead.Priority == "" {
		lead.Priority = model.PriorityMedium
	}
	if !validPriority(lead.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, lead.Priority)
	}
	lead.Owner = owner

	campaign, err := s.campaignRepo.GetByID(ctx, lead.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.Owner != owner {
		return nil, ErrForbidden
	}

	result, err := s.engine.Score(lead, campaign, scoring.OverridesFromConfig(campaign.ScoringConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to score lead: %w", err)
	}
	lead.Score = model.Score{
		Current:        result.Score,
		Factors:        result.Factors,
		LastCalculated: result.Timestamp,
		Confidence:     result.Confidence,
	}

	if _, err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	if err := s.hotLeads.UpdateScore(ctx, owner, lead.ID, result.Score); err != nil {
		s.logger.Warn("hot leads update failed", zap.String("leadId", lead.ID), zap.Error(err))
	}
	s.invalidateAnalytics(ctx, owner)
	s.broadcast(owner, EventLeadCreated, lead)

	return lead, nil
}

// Get returns an owned lead by ID
func (s *LeadService) Get(ctx context.Context, owner, id string) (*model.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	if lead.Owner != owner {
		return nil, ErrForbidden
	}
	return lead, nil
}

// List returns a page of the owner's leads plus the unpaged total
func (s *LeadService) List(ctx context.Context, owner string, filter repository.LeadFilter) ([]*model.Lead, int64, error) {
	filter.Owner = owner
	return s.leadRepo.List(ctx, filter)
}

// Update applies a partial update and rescores the lead when a
// score-affecting field changed
func (s *LeadService) Update(ctx context.Context, owner, id string, update *LeadUpdate) (*model.Lead, error) {
	lead, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if update.Status != nil && !validStatus(*update.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *update.Status)
	}
	if update.Priority != nil && !validPriority(*update.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *update.Priority)
	}
	if update.Email != nil && *update.Email == "" {
		return nil, fmt.Errorf("%w: email cannot be cleared", ErrValidation)
	}
	applyLeadUpdate(lead, update)

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	if scoreAffectingUpdate(update) {
		result, err := s.Rescore(ctx, lead)
		if err != nil {
			return nil, err
		}
		applyResult(lead, result)
	}

	s.broadcast(owner, EventLeadUpdated, lead)
	return lead, nil
}

// Delete removes an owned lead and all its cached artifacts
func (s *LeadService) Delete(ctx context.Context, owner, id string) error {
	lead, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.leadRepo.Delete(ctx, lead.ID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	if err := s.hotLeads.Remove(ctx, owner, lead.ID); err != nil {
		s.logger.Warn("hot leads removal failed", zap.String("leadId", lead.ID), zap.Error(err))
	}
	if err := s.scoreCache.Invalidate(ctx, lead.ID); err != nil {
		s.logger.Warn("score cache invalidation failed", zap.String("leadId", lead.ID), zap.Error(err))
	}
	s.invalidateAnalytics(ctx, owner)
	s.broadcast(owner, EventLeadDeleted, map[string]interface{}{"leadId": lead.ID})

	return nil
}

// AddInteraction records an engagement event and rescores the lead
func (s *LeadService) AddInteraction(ctx context.Context, owner, id string, interaction model.Interaction) (*model.Lead, error) {
	if !validInteractionType(interaction.Type) {
		return nil, fmt.Errorf("%w: unknown interaction type %q", ErrValidation, interaction.Type)
	}
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now()
	}

	lead, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if err := s.leadRepo.AddInteraction(ctx, lead.ID, interaction); err != nil {
		return nil, fmt.Errorf("failed to add interaction: %w", err)
	}
	lead.Engagement.Interactions = append(lead.Engagement.Interactions, interaction)
	lead.Engagement.LastActivity = &interaction.Timestamp

	result, err := s.Rescore(ctx, lead)
	if err != nil {
		return nil, err
	}
	applyResult(lead, result)

	s.broadcast(owner, EventLeadInteractionAdded, map[string]interface{}{
		"leadId":      lead.ID,
		"interaction": interaction,
	})
	return lead, nil
}

// AddNote attaches a note to an owned lead
func (s *LeadService) AddNote(ctx context.Context, owner, id, content string, isPrivate bool) (*model.Lead, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", ErrValidation)
	}

	lead, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	note := model.Note{
		Content:   content,
		Author:    owner,
		Timestamp: time.Now(),
		IsPrivate: isPrivate,
	}
	if err := s.leadRepo.AddNote(ctx, lead.ID, note); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	lead.Notes = append(lead.Notes, note)

	s.broadcast(owner, EventLeadNoteAdded, map[string]interface{}{
		"leadId": lead.ID,
		"note":   note,
	})
	return lead, nil
}

// HotLeads returns the owner's highest scoring leads, served from the
// Redis ranking when populated and from MongoDB otherwise
func (s *LeadService) HotLeads(ctx context.Context, owner string) ([]*model.Lead, error) {
	entries, err := s.hotLeads.GetTop(ctx, owner, s.hotLeadLimit)
	if err != nil {
		s.logger.Warn("hot leads lookup failed, falling back to mongo", zap.Error(err))
		entries = nil
	}

	if len(entries) == 0 {
		leads, _, err := s.leadRepo.List(ctx, repository.LeadFilter{
			Owner:     owner,
			Limit:     s.hotLeadLimit,
			SortBy:    "score",
			SortOrder: "desc",
		})
		if err != nil {
			return nil, err
		}
		// Warm the ranking for the next call
		for _, lead := range leads {
			if err := s.hotLeads.UpdateScore(ctx, owner, lead.ID, lead.Score.Current); err != nil {
				s.logger.Warn("hot leads warm failed", zap.String("leadId", lead.ID), zap.Error(err))
				break
			}
		}
		return leads, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.LeadID
	}
	leads, err := s.leadRepo.GetByIDs(ctx, ids, owner)
	if err != nil {
		return nil, err
	}

	// Preserve ranking order; leads deleted since the last ZSET update
	// simply drop out
	byID := make(map[string]*model.Lead, len(leads))
	for _, lead := range leads {
		byID[lead.ID] = lead
	}
	ordered := make([]*model.Lead, 0, len(entries))
	for _, e := range entries {
		if lead, ok := byID[e.LeadID]; ok {
			ordered = append(ordered, lead)
		}
	}
	return ordered, nil
}

// Rescore recomputes and atomically persists the lead's score, then
// refreshes the caches and notifies listeners. The write shuffles
// current into previous inside a single pipeline update, so concurrent
// rescores of one lead serialize instead of losing factors.
func (s *LeadService) Rescore(ctx context.Context, lead *model.Lead) (*scoring.Result, error) {
	var campaign *model.Campaign
	var overrides map[string]scoring.FactorOverride
	if lead.CampaignID != "" {
		c, err := s.campaignRepo.GetByID(ctx, lead.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to get campaign: %w", err)
		}
		if c != nil {
			campaign = c
			overrides = scoring.OverridesFromConfig(c.ScoringConfig)
		}
	}

	result, err := s.engine.Score(lead, campaign, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to score lead: %w", err)
	}

	if err := s.leadRepo.UpdateScore(ctx, lead.ID, result); err != nil {
		return nil, fmt.Errorf("failed to persist score: %w", err)
	}

	if err := s.hotLeads.UpdateScore(ctx, lead.Owner, lead.ID, result.Score); err != nil {
		s.logger.Warn("hot leads update failed", zap.String("leadId", lead.ID), zap.Error(err))
	}
	if err := s.scoreCache.Invalidate(ctx, lead.ID); err != nil {
		s.logger.Warn("score cache invalidation failed", zap.String("leadId", lead.ID), zap.Error(err))
	}
	s.invalidateAnalytics(ctx, lead.Owner)
	s.broadcast(lead.Owner, EventScoreUpdated, map[string]interface{}{
		"leadId":        lead.ID,
		"score":         result.Score,
		"previousScore": lead.Score.Current,
		"confidence":    result.Confidence,
	})

	return result, nil
}

func (s *LeadService) invalidateAnalytics(ctx context.Context, owner string) {
	if err := s.analytics.InvalidateOwner(ctx, owner); err != nil {
		s.logger.Warn("analytics invalidation failed", zap.String("owner", owner), zap.Error(err))
	}
}

func (s *LeadService) broadcast(owner, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToUser(owner, msgType, payload)
	}
}

// applyResult mirrors on the in-memory lead what the pipeline update
// just persisted
func applyResult(lead *model.Lead, result *scoring.Result) {
	lead.Score.Previous = lead.Score.Current
	lead.Score.Current = result.Score
	lead.Score.Factors = result.Factors
	lead.Score.LastCalculated = result.Timestamp
	lead.Score.Confidence = result.Confidence
}

func applyLeadUpdate(lead *model.Lead, u *LeadUpdate) {
	if u.FirstName != nil {
		lead.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		lead.LastName = *u.LastName
	}
	if u.Email != nil {
		lead.Email = *u.Email
	}
	if u.Phone != nil {
		lead.Phone = *u.Phone
	}
	if u.Company != nil {
		lead.Company = *u.Company
	}
	if u.JobTitle != nil {
		lead.JobTitle = *u.JobTitle
	}
	if u.Status != nil {
		lead.Status = *u.Status
	}
	if u.Priority != nil {
		lead.Priority = *u.Priority
	}
	if u.FormData != nil {
		lead.FormData = u.FormData
	}
	if u.Tags != nil {
		lead.Tags = u.Tags
	}
	if u.Conversion != nil {
		lead.Conversion = *u.Conversion
	}
}

func validSource(s model.LeadSource) bool {
	for _, v := range model.ValidSources {
		if v == s {
			return true
		}
	}
	return false
}

func validStatus(s model.LeadStatus) bool {
	switch s {
	case model.StatusNew, model.StatusContacted, model.StatusQualified,
		model.StatusProposal, model.StatusNegotiation,
		model.StatusClosedWon, model.StatusClosedLost, model.StatusUnqualified:
		return true
	}
	return false
}

func validPriority(p model.LeadPriority) bool {
	switch p {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
		return true
	}
	return false
}

func validInteractionType(t model.InteractionType) bool {
	for _, v := range model.ValidInteractionTypes {
		if v == t {
			return true
		}
	}
	return false
}
