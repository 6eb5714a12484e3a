package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leadscore/internal/cache"
	"leadscore/internal/model"
	"leadscore/internal/scoring"
)

type scoringServiceHarness struct {
	svc          *ScoringService
	leadSvc      *LeadService
	leadRepo     *fakeLeadRepo
	campaignRepo *fakeCampaignRepo
	scoreCache   cache.ScoreCache
}

func newScoringServiceHarness(t *testing.T) *scoringServiceHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	leadRepo := newFakeLeadRepo()
	campaignRepo := newFakeCampaignRepo()
	engine := scoring.NewEngine(scoring.DefaultCatalog())
	hotLeads := cache.NewHotLeadsCache(client)
	scoreCache := cache.NewScoreCache(client)
	analytics := cache.NewAnalyticsCache(client, time.Minute)
	logger := zap.NewNop()

	leadSvc := NewLeadService(leadRepo, campaignRepo, engine, hotLeads, scoreCache, analytics, logger, 10)
	svc := NewScoringService(leadRepo, campaignRepo, engine, leadSvc, scoreCache, logger)

	return &scoringServiceHarness{
		svc:          svc,
		leadSvc:      leadSvc,
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		scoreCache:   scoreCache,
	}
}

func (h *scoringServiceHarness) seedCampaign(t *testing.T, owner string) *model.Campaign {
	t.Helper()
	campaign := &model.Campaign{Name: "Spring Launch", Platform: model.PlatformMeta, Owner: owner}
	_, err := h.campaignRepo.Create(context.Background(), campaign)
	require.NoError(t, err)
	return campaign
}

func (h *scoringServiceHarness) seedLead(t *testing.T, owner, campaignID string) *model.Lead {
	t.Helper()
	lead, err := h.leadSvc.Create(context.Background(), owner, minimalLead(campaignID))
	require.NoError(t, err)
	return lead
}

func TestRecalculateByCampaign(t *testing.T) {
	h := newScoringServiceHarness(t)
	ctx := context.Background()
	campaign := h.seedCampaign(t, "admin")
	a := h.seedLead(t, "admin", campaign.ID)
	b := h.seedLead(t, "admin", campaign.ID)

	// Raise the campaign metrics so rescoring actually moves the scores
	require.NoError(t, h.campaignRepo.UpdateMetrics(ctx, campaign.ID, model.CampaignMetrics{
		ClickThroughRate: 0.06,
		ConversionRate:   0.12,
	}))

	result, err := h.svc.Recalculate(ctx, "admin", RecalculateRequest{CampaignID: campaign.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Results, 2)

	for _, change := range result.Results {
		assert.Greater(t, change.NewScore, change.PreviousScore)
	}
	for _, id := range []string{a.ID, b.ID} {
		stored, err := h.leadRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Greater(t, stored.Score.Current, stored.Score.Previous)
	}
}

func TestRecalculateByLeadIDs(t *testing.T) {
	h := newScoringServiceHarness(t)
	ctx := context.Background()
	campaign := h.seedCampaign(t, "admin")
	a := h.seedLead(t, "admin", campaign.ID)
	h.seedLead(t, "admin", campaign.ID)

	result, err := h.svc.Recalculate(ctx, "admin", RecalculateRequest{LeadIDs: []string{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, 1, result.Updated)
}

func TestRecalculateCollectsPerLeadErrors(t *testing.T) {
	h := newScoringServiceHarness(t)
	ctx := context.Background()
	campaign := h.seedCampaign(t, "admin")
	bad := h.seedLead(t, "admin", campaign.ID)
	good := h.seedLead(t, "admin", campaign.ID)
	h.leadRepo.scoreErr[bad.ID] = errors.New("write conflict")

	result, err := h.svc.Recalculate(ctx, "admin", RecalculateRequest{AllLeads: true})
	require.NoError(t, err, "one failing lead must not fail the batch")
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, bad.ID, result.Errors[0].LeadID)
	require.Len(t, result.Results, 1)
	assert.Equal(t, good.ID, result.Results[0].LeadID)
}

func TestRecalculateRequiresSelector(t *testing.T) {
	h := newScoringServiceHarness(t)

	_, err := h.svc.Recalculate(context.Background(), "admin", RecalculateRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecalculateForeignCampaign(t *testing.T) {
	h := newScoringServiceHarness(t)
	campaign := h.seedCampaign(t, "someone-else")

	_, err := h.svc.Recalculate(context.Background(), "admin", RecalculateRequest{CampaignID: campaign.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestExplanationBuildsAndCaches(t *testing.T) {
	h := newScoringServiceHarness(t)
	ctx := context.Background()
	campaign := h.seedCampaign(t, "admin")
	lead := h.seedLead(t, "admin", campaign.ID)

	exp, err := h.svc.Explanation(ctx, "admin", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Score.Current, exp.TotalScore)
	assert.Len(t, exp.Factors, 11)
	assert.NotEmpty(t, exp.Recommendations)

	// Served from cache now: a direct score change without invalidation
	// is not reflected
	stored, err := h.leadRepo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	stored.Score.Current = 99
	require.NoError(t, h.leadRepo.Update(ctx, stored))

	again, err := h.svc.Explanation(ctx, "admin", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, exp.TotalScore, again.TotalScore)
}

func TestExplanationOwnership(t *testing.T) {
	h := newScoringServiceHarness(t)
	campaign := h.seedCampaign(t, "admin")
	lead := h.seedLead(t, "admin", campaign.ID)

	_, err := h.svc.Explanation(context.Background(), "intruder", lead.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHistoryGroupsByRecalculation(t *testing.T) {
	h := newScoringServiceHarness(t)
	ctx := context.Background()
	campaign := h.seedCampaign(t, "admin")
	lead := h.seedLead(t, "admin", campaign.ID)

	// Store factor snapshots from two distinct recalculations
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	stored, err := h.leadRepo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	stored.Score.Factors = []model.ScoringFactor{
		{Name: scoring.FactorFormCompleteness, Value: 50, Weight: 0.5, Timestamp: t2},
		{Name: scoring.FactorEmailQuality, Value: 80, Weight: 0.5, Timestamp: t2},
		{Name: scoring.FactorFormCompleteness, Value: 40, Weight: 0.5, Timestamp: t1},
		{Name: scoring.FactorEmailQuality, Value: 60, Weight: 0.5, Timestamp: t1},
	}
	require.NoError(t, h.leadRepo.Update(ctx, stored))

	history, err := h.svc.History(ctx, "admin", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, history.LeadID)
	require.Len(t, history.History, 2)

	assert.Equal(t, t1, history.History[0].Timestamp)
	assert.Equal(t, 50, history.History[0].Score) // (40+60)/2
	assert.Len(t, history.History[0].Factors, 2)

	assert.Equal(t, t2, history.History[1].Timestamp)
	assert.Equal(t, 65, history.History[1].Score) // (50+80)/2
}

func TestConfigListsCatalog(t *testing.T) {
	h := newScoringServiceHarness(t)

	view := h.svc.Config()
	require.Len(t, view.Factors, 11)
	assert.Equal(t, scoring.FactorFormCompleteness, view.Factors[0].Name)
	assert.InDelta(t, 0.15, view.Factors[0].Weight, 0.0001)
	for _, f := range view.Factors {
		assert.NotEmpty(t, f.Description)
	}
}
