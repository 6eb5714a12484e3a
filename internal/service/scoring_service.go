package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"leadscore/internal/cache"
	"leadscore/internal/model"
	"leadscore/internal/repository"
	"leadscore/internal/scoring"
)

// RecalculateRequest selects which leads to rescore. Exactly one
// selector should be set; they are tried in the order listed.
type RecalculateRequest struct {
	LeadIDs    []string `json:"leadIds,omitempty"`
	CampaignID string   `json:"campaignId,omitempty"`
	AllLeads   bool     `json:"allLeads,omitempty"`
}

// RecalculateResult reports the outcome of a batch rescore. Individual
// lead failures are collected, never fatal for the batch.
type RecalculateResult struct {
	Requested int                `json:"requested"`
	Updated   int                `json:"updated"`
	Failed    int                `json:"failed"`
	Results   []LeadScoreChange  `json:"results"`
	Errors    []RecalculateError `json:"errors,omitempty"`
}

// LeadScoreChange is one successful rescore within a batch
type LeadScoreChange struct {
	LeadID        string  `json:"leadId"`
	PreviousScore int     `json:"previousScore"`
	NewScore      int     `json:"newScore"`
	Confidence    float64 `json:"confidence"`
}

// RecalculateError is one failed rescore within a batch
type RecalculateError struct {
	LeadID string `json:"leadId"`
	Error  string `json:"error"`
}

// FactorInfo describes one catalog factor for the config endpoint
type FactorInfo struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// ScoringConfigView is the response of GET /v1/scoring/config
type ScoringConfigView struct {
	Factors []FactorInfo `json:"factors"`
}

// ScoringService handles batch rescoring, explanations and history
type ScoringService struct {
	leadRepo     repository.LeadRepo
	campaignRepo repository.CampaignRepo
	engine       *scoring.Engine
	leadSvc      *LeadService
	scoreCache   cache.ScoreCache
	logger       *zap.Logger
}

// NewScoringService creates a new scoring service
func NewScoringService(
	leadRepo repository.LeadRepo,
	campaignRepo repository.CampaignRepo,
	engine *scoring.Engine,
	leadSvc *LeadService,
	scoreCache cache.ScoreCache,
	logger *zap.Logger,
) *ScoringService {
	return &ScoringService{
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		engine:       engine,
		leadSvc:      leadSvc,
		scoreCache:   scoreCache,
		logger:       logger,
	}
}

// Recalculate rescores the selected leads. A lead that fails to score
// is reported in the result and the batch continues.
func (s *ScoringService) Recalculate(ctx context.Context, owner string, req RecalculateRequest) (*RecalculateResult, error) {
	leads, err := s.selectLeads(ctx, owner, req)
	if err != nil {
		return nil, err
	}

	result := &RecalculateResult{
		Requested: len(leads),
		Results:   []LeadScoreChange{},
	}
	for _, lead := range leads {
		previous := lead.Score.Current
		r, err := s.leadSvc.Rescore(ctx, lead)
		if err != nil {
			s.logger.Warn("rescore failed",
				zap.String("leadId", lead.ID), zap.Error(err))
			result.Failed++
			result.Errors = append(result.Errors, RecalculateError{
				LeadID: lead.ID,
				Error:  err.Error(),
			})
			continue
		}
		result.Updated++
		result.Results = append(result.Results, LeadScoreChange{
			LeadID:        lead.ID,
			PreviousScore: previous,
			NewScore:      r.Score,
			Confidence:    r.Confidence,
		})
	}
	return result, nil
}

func (s *ScoringService) selectLeads(ctx context.Context, owner string, req RecalculateRequest) ([]*model.Lead, error) {
	switch {
	case len(req.LeadIDs) > 0:
		return s.leadRepo.GetByIDs(ctx, req.LeadIDs, owner)

	case req.CampaignID != "":
		campaign, err := s.campaignRepo.GetByID(ctx, req.CampaignID)
		if err != nil {
			return nil, err
		}
		if campaign == nil {
			return nil, ErrCampaignNotFound
		}
		if campaign.Owner != owner {
			return nil, ErrForbidden
		}
		return s.leadRepo.GetByCampaign(ctx, campaign.ID)

	case req.AllLeads:
		return s.leadRepo.GetByOwner(ctx, owner)

	default:
		return nil, fmt.Errorf("%w: one of leadIds, campaignId or allLeads is required", ErrValidation)
	}
}

// Explanation returns the per-factor breakdown for a lead's current
// score, cached until the next rescore
func (s *ScoringService) Explanation(ctx context.Context, owner, leadID string) (*scoring.Explanation, error) {
	lead, err := s.leadSvc.Get(ctx, owner, leadID)
	if err != nil {
		return nil, err
	}

	if cached, err := s.scoreCache.GetExplanation(ctx, lead.ID); err != nil {
		s.logger.Warn("explanation cache read failed", zap.String("leadId", lead.ID), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	exp := scoring.Explain(&scoring.Result{
		Score:      lead.Score.Current,
		Factors:    lead.Score.Factors,
		Confidence: lead.Score.Confidence,
		Timestamp:  lead.Score.LastCalculated,
	})

	if err := s.scoreCache.SetExplanation(ctx, lead.ID, exp); err != nil {
		s.logger.Warn("explanation cache write failed", zap.String("leadId", lead.ID), zap.Error(err))
	}
	return exp, nil
}

// History reconstructs the recalculation timeline of a lead from the
// timestamps stamped on its stored factors
func (s *ScoringService) History(ctx context.Context, owner, leadID string) (*model.ScoreHistory, error) {
	lead, err := s.leadSvc.Get(ctx, owner, leadID)
	if err != nil {
		return nil, err
	}

	byTime := make(map[time.Time][]model.ScoringFactor)
	for _, f := range lead.Score.Factors {
		byTime[f.Timestamp] = append(byTime[f.Timestamp], f)
	}

	history := make([]model.ScoreHistoryEntry, 0, len(byTime))
	for ts, factors := range byTime {
		score, _ := scoring.Aggregate(factors)
		history = append(history, model.ScoreHistoryEntry{
			Timestamp: ts,
			Factors:   factors,
			Score:     score,
		})
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})

	return &model.ScoreHistory{
		LeadID:         lead.ID,
		CurrentScore:   lead.Score.Current,
		PreviousScore:  lead.Score.Previous,
		LastCalculated: lead.Score.LastCalculated,
		Confidence:     lead.Score.Confidence,
		History:        history,
	}, nil
}

// Config returns the default factor catalog with weights and
// descriptions
func (s *ScoringService) Config() *ScoringConfigView {
	catalog := s.engine.Catalog()
	view := &ScoringConfigView{Factors: make([]FactorInfo, 0, len(catalog))}
	for _, spec := range catalog {
		view.Factors = append(view.Factors, FactorInfo{
			Name:        spec.Name,
			Weight:      spec.Weight,
			Description: spec.Description,
		})
	}
	return view
}
