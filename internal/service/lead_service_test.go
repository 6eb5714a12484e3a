package service

import (
	"context"
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

type leadServiceHarness struct {
	svc          *LeadService
	leadRepo     *fakeLeadRepo
	campaignRepo *fakeCampaignRepo
	broadcaster  *fakeBroadcaster
	hotLeads     cache.HotLeadsCache
	scoreCache   cache.ScoreCache
}

func newLeadServiceHarness(t *testing.T) *leadServiceHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	leadRepo := newFakeLeadRepo()
	campaignRepo := newFakeCampaignRepo()
	broadcaster := &fakeBroadcaster{}
	hotLeads := cache.NewHotLeadsCache(client)
	scoreCache := cache.NewScoreCache(client)
	analytics := cache.NewAnalyticsCache(client, time.Minute)

	svc := NewLeadService(
		leadRepo, campaignRepo,
		scoring.NewEngine(scoring.DefaultCatalog()),
		hotLeads, scoreCache, analytics,
		zap.NewNop(), 10,
	)
	svc.SetBroadcaster(broadcaster)

	return &leadServiceHarness{
		svc:          svc,
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		broadcaster:  broadcaster,
		hotLeads:     hotLeads,
		scoreCache:   scoreCache,
	}
}

func (h *leadServiceHarness) campaign(t *testing.T, owner string) *model.Campaign {
	t.Helper()
	campaign := &model.Campaign{
		Name:     "Spring Launch",
		Platform: model.PlatformMeta,
		Status:   model.CampaignActive,
		Owner:    owner,
	}
	_, err := h.campaignRepo.Create(context.Background(), campaign)
	require.NoError(t, err)
	return campaign
}

func minimalLead(campaignID string) *model.Lead {
	return &model.Lead{
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@gmail.com",
		CampaignID: campaignID,
	}
}

func TestCreateLeadScoresAndRanks(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	// name + webmail email + attached zero-metric campaign + manual source
	assert.Equal(t, 28, lead.Score.Current)
	assert.InDelta(t, 0.5, lead.Score.Confidence, 0.001)
	assert.Len(t, lead.Score.Factors, 11)

	assert.Equal(t, model.StatusNew, lead.Status)
	assert.Equal(t, model.PriorityMedium, lead.Priority)
	assert.Equal(t, model.SourceManual, lead.Source)
	assert.Equal(t, "admin", lead.Owner)

	top, err := h.hotLeads.GetTop(ctx, "admin", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, lead.ID, top[0].LeadID)
	assert.Equal(t, 28, top[0].Score)

	assert.Contains(t, h.broadcaster.types(), "lead_created")
}

func TestCreateLeadValidation(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	tests := []struct {
		name    string
		mutate  func(*model.Lead)
		wantErr error
	}{
		{
			name:    "missing email",
			mutate:  func(l *model.Lead) { l.Email = "" },
			wantErr: ErrValidation,
		},
		{
			name:    "missing name",
			mutate:  func(l *model.Lead) { l.FirstName = "" },
			wantErr: ErrValidation,
		},
		{
			name:    "unknown source",
			mutate:  func(l *model.Lead) { l.Source = "telegraph" },
			wantErr: ErrValidation,
		},
		{
			name:    "unknown priority",
			mutate:  func(l *model.Lead) { l.Priority = "urgent-ish" },
			wantErr: ErrValidation,
		},
		{
			name:    "unknown campaign",
			mutate:  func(l *model.Lead) { l.CampaignID = "camp-999" },
			wantErr: ErrCampaignNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := minimalLead(campaign.ID)
			tt.mutate(lead)
			_, err := h.svc.Create(ctx, "admin", lead)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateLeadForeignCampaign(t *testing.T) {
	h := newLeadServiceHarness(t)
	campaign := h.campaign(t, "someone-else")

	_, err := h.svc.Create(context.Background(), "admin", minimalLead(campaign.ID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateLeadRescoresOnScoreFields(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)
	initial := lead.Score.Current

	phone := "+1-555-0100"
	company := "Acme Corp"
	updated, err := h.svc.Update(ctx, "admin", lead.ID, &LeadUpdate{Phone: &phone, Company: &company})
	require.NoError(t, err)

	assert.Greater(t, updated.Score.Current, initial)
	assert.Equal(t, initial, updated.Score.Previous)
	assert.Contains(t, h.broadcaster.types(), "score_updated")
	assert.Contains(t, h.broadcaster.types(), "lead_updated")

	top, err := h.hotLeads.GetTop(ctx, "admin", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, updated.Score.Current, top[0].Score)
}

func TestUpdateLeadStatusOnlySkipsRescore(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)
	calculatedAt := lead.Score.LastCalculated

	status := model.StatusQualified
	updated, err := h.svc.Update(ctx, "admin", lead.ID, &LeadUpdate{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, model.StatusQualified, updated.Status)
	assert.Equal(t, calculatedAt, updated.Score.LastCalculated)
	assert.NotContains(t, h.broadcaster.types(), "score_updated")
}

func TestUpdateLeadRejectsUnknownStatus(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	status := model.LeadStatus("vanished")
	_, err = h.svc.Update(ctx, "admin", lead.ID, &LeadUpdate{Status: &status})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateLeadRejectsUnknownPriority(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	priority := model.LeadPriority("urgent-ish")
	_, err = h.svc.Update(ctx, "admin", lead.ID, &LeadUpdate{Priority: &priority})
	assert.ErrorIs(t, err, ErrValidation)

	kept, err := h.svc.Get(ctx, "admin", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, kept.Priority)
}

func TestAddInteractionRescores(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)
	require.Equal(t, 28, lead.Score.Current)

	updated, err := h.svc.AddInteraction(ctx, "admin", lead.ID, model.Interaction{
		Type: model.InteractionEmailClick,
	})
	require.NoError(t, err)

	// one click lifts emailClicks from 0 to 40
	assert.Equal(t, 32, updated.Score.Current)
	assert.Equal(t, 28, updated.Score.Previous)
	assert.Len(t, updated.Engagement.Interactions, 1)
	assert.NotNil(t, updated.Engagement.LastActivity)
	assert.Contains(t, h.broadcaster.types(), "lead_interaction_added")
	assert.Contains(t, h.broadcaster.types(), "score_updated")
}

func TestAddInteractionRejectsUnknownType(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	_, err = h.svc.AddInteraction(ctx, "admin", lead.ID, model.Interaction{Type: "carrier_pigeon"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddNote(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	updated, err := h.svc.AddNote(ctx, "admin", lead.ID, "followed up by phone", true)
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "followed up by phone", updated.Notes[0].Content)
	assert.Equal(t, "admin", updated.Notes[0].Author)
	assert.True(t, updated.Notes[0].IsPrivate)
	assert.Contains(t, h.broadcaster.types(), "lead_note_added")

	_, err = h.svc.AddNote(ctx, "admin", lead.ID, "", false)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteLeadCleansUp(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)
	require.NoError(t, h.scoreCache.SetExplanation(ctx, lead.ID, &scoring.Explanation{TotalScore: 28}))

	require.NoError(t, h.svc.Delete(ctx, "admin", lead.ID))

	_, err = h.svc.Get(ctx, "admin", lead.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	top, err := h.hotLeads.GetTop(ctx, "admin", 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	exp, err := h.scoreCache.GetExplanation(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, exp)

	assert.Contains(t, h.broadcaster.types(), "lead_deleted")
}

func TestGetLeadOwnership(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	lead, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, "intruder", lead.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Get(ctx, "admin", "lead-999")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestHotLeadsOrderingAndFallback(t *testing.T) {
	h := newLeadServiceHarness(t)
	ctx := context.Background()
	campaign := h.campaign(t, "admin")

	low, err := h.svc.Create(ctx, "admin", minimalLead(campaign.ID))
	require.NoError(t, err)

	strong := minimalLead(campaign.ID)
	strong.Email = "jane@acmecorp.com"
	strong.Phone = "+1-555-0100"
	strong.Company = "Acme Corp"
	strong.JobTitle = "VP Sales"
	high, err := h.svc.Create(ctx, "admin", strong)
	require.NoError(t, err)
	require.Greater(t, high.Score.Current, low.Score.Current)

	hot, err := h.svc.HotLeads(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, hot, 2)
	assert.Equal(t, high.ID, hot[0].ID)
	assert.Equal(t, low.ID, hot[1].ID)

	// Empty ranking falls back to MongoDB and rewarms the ZSET
	require.NoError(t, h.hotLeads.Remove(ctx, "admin", low.ID))
	require.NoError(t, h.hotLeads.Remove(ctx, "admin", high.ID))

	hot, err = h.svc.HotLeads(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, hot, 2)
	assert.Equal(t, high.ID, hot[0].ID)

	top, err := h.hotLeads.GetTop(ctx, "admin", 10)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}
