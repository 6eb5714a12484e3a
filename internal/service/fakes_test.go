package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"leadscore/internal/model"
	"leadscore/internal/repository"
	"leadscore/internal/scoring"
)

// fakeLeadRepo is an in-memory LeadRepo. Listing and aggregation
// methods compute over the stored leads so tests exercise real flows.
// Reads return copies and writes store copies, matching the driver's
// decode-into-fresh-struct behavior: a stored lead is never aliased by
// a struct the service holds.
type fakeLeadRepo struct {
	leads        map[string]*model.Lead
	seq          int
	scoreErr     map[string]error
	topCampaigns []model.CampaignPerformance
	trend        []model.TrendPoint
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{
		leads:    make(map[string]*model.Lead),
		scoreErr: make(map[string]error),
	}
}

func (r *fakeLeadRepo) Create(_ context.Context, lead *model.Lead) (string, error) {
	r.seq++
	lead.ID = fmt.Sprintf("lead-%d", r.seq)
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	r.leads[lead.ID] = cloneLead(lead)
	return lead.ID, nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id string) (*model.Lead, error) {
	return cloneLead(r.leads[id]), nil
}

func (r *fakeLeadRepo) GetByIDs(_ context.Context, ids []string, owner string) ([]*model.Lead, error) {
	var out []*model.Lead
	for _, id := range ids {
		if lead, ok := r.leads[id]; ok && lead.Owner == owner {
			out = append(out, cloneLead(lead))
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) GetByCampaign(_ context.Context, campaignID string) ([]*model.Lead, error) {
	return r.collect(func(l *model.Lead) bool { return l.CampaignID == campaignID }), nil
}

func (r *fakeLeadRepo) GetByOwner(_ context.Context, owner string) ([]*model.Lead, error) {
	return r.collect(func(l *model.Lead) bool { return l.Owner == owner }), nil
}

func (r *fakeLeadRepo) List(_ context.Context, filter repository.LeadFilter) ([]*model.Lead, int64, error) {
	leads := r.collect(func(l *model.Lead) bool {
		if l.Owner != filter.Owner {
			return false
		}
		if filter.Status != "" && l.Status != filter.Status {
			return false
		}
		return true
	})
	if filter.SortBy == "score" {
		sort.Slice(leads, func(i, j int) bool {
			if filter.SortOrder == "asc" {
				return leads[i].Score.Current < leads[j].Score.Current
			}
			return leads[i].Score.Current > leads[j].Score.Current
		})
	}
	total := int64(len(leads))
	if filter.Limit > 0 && len(leads) > filter.Limit {
		leads = leads[:filter.Limit]
	}
	return leads, total, nil
}

func (r *fakeLeadRepo) Update(_ context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now()
	r.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (r *fakeLeadRepo) Delete(_ context.Context, id string) error {
	delete(r.leads, id)
	return nil
}

func (r *fakeLeadRepo) UpdateScore(_ context.Context, id string, result *scoring.Result) error {
	if err := r.scoreErr[id]; err != nil {
		return err
	}
	lead, ok := r.leads[id]
	if !ok {
		return fmt.Errorf("lead %s not found", id)
	}
	lead.Score.Previous = lead.Score.Current
	lead.Score.Current = result.Score
	lead.Score.Factors = result.Factors
	lead.Score.LastCalculated = result.Timestamp
	lead.Score.Confidence = result.Confidence
	return nil
}

func (r *fakeLeadRepo) AddInteraction(_ context.Context, id string, interaction model.Interaction) error {
	lead, ok := r.leads[id]
	if !ok {
		return fmt.Errorf("lead %s not found", id)
	}
	lead.Engagement.Interactions = append(lead.Engagement.Interactions, interaction)
	lead.Engagement.LastActivity = &interaction.Timestamp
	return nil
}

func (r *fakeLeadRepo) AddNote(_ context.Context, id string, note model.Note) error {
	lead, ok := r.leads[id]
	if !ok {
		return fmt.Errorf("lead %s not found", id)
	}
	lead.Notes = append(lead.Notes, note)
	return nil
}

func (r *fakeLeadRepo) ScoreSummary(_ context.Context, filter repository.AnalyticsFilter) (*model.ScoreSummary, error) {
	leads := r.collect(func(l *model.Lead) bool { return l.Owner == filter.Owner })
	summary := &model.ScoreSummary{TotalLeads: len(leads)}
	if len(leads) == 0 {
		return summary, nil
	}
	summary.MinScore = leads[0].Score.Current
	sum := 0
	for _, l := range leads {
		s := l.Score.Current
		sum += s
		if s > summary.MaxScore {
			summary.MaxScore = s
		}
		if s < summary.MinScore {
			summary.MinScore = s
		}
		switch {
		case s >= 80:
			summary.HighQualityLeads++
		case s >= 50:
			summary.MediumQualityLeads++
		default:
			summary.LowQualityLeads++
		}
	}
	summary.AvgScore = float64(sum) / float64(len(leads))
	return summary, nil
}

func (r *fakeLeadRepo) CountByScoreRange(_ context.Context, filter repository.AnalyticsFilter, min, max int) (int64, error) {
	var n int64
	for _, l := range r.leads {
		if l.Owner == filter.Owner && l.Score.Current >= min && l.Score.Current <= max {
			n++
		}
	}
	return n, nil
}

func (r *fakeLeadRepo) TopFactors(_ context.Context, filter repository.AnalyticsFilter, limit int) ([]model.FactorPerformance, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, l := range r.leads {
		if l.Owner != filter.Owner {
			continue
		}
		for _, f := range l.Score.Factors {
			sums[f.Name] += float64(f.Value)
			counts[f.Name]++
		}
	}
	var out []model.FactorPerformance
	for name, sum := range sums {
		out = append(out, model.FactorPerformance{
			Name:     name,
			AvgValue: sum / float64(counts[name]),
			Count:    counts[name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvgValue > out[j].AvgValue })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeLeadRepo) CountByField(_ context.Context, filter repository.AnalyticsFilter, field string) ([]model.GroupCount, error) {
	counts := make(map[string]int)
	for _, l := range r.leads {
		if l.Owner != filter.Owner {
			continue
		}
		switch field {
		case "status":
			counts[string(l.Status)]++
		case "source":
			counts[string(l.Source)]++
		case "priority":
			counts[string(l.Priority)]++
		}
	}
	var out []model.GroupCount
	for key, n := range counts {
		out = append(out, model.GroupCount{Key: key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *fakeLeadRepo) ConversionMetrics(_ context.Context, filter repository.AnalyticsFilter) (*model.ConversionMetrics, error) {
	m := &model.ConversionMetrics{}
	for _, l := range r.leads {
		if l.Owner != filter.Owner {
			continue
		}
		m.TotalLeads++
		if l.Conversion.IsConverted {
			m.ConvertedLeads++
			m.TotalValue += l.Conversion.ConversionValue
		}
	}
	if m.ConvertedLeads > 0 {
		m.AvgValue = m.TotalValue / float64(m.ConvertedLeads)
	}
	return m, nil
}

func (r *fakeLeadRepo) TopCampaigns(_ context.Context, _ repository.AnalyticsFilter, _ int) ([]model.CampaignPerformance, error) {
	return r.topCampaigns, nil
}

func (r *fakeLeadRepo) Trend(_ context.Context, _ repository.AnalyticsFilter, _ int) ([]model.TrendPoint, error) {
	return r.trend, nil
}

func (r *fakeLeadRepo) Recent(_ context.Context, filter repository.AnalyticsFilter, limit int) ([]*model.Lead, error) {
	leads := r.collect(func(l *model.Lead) bool { return l.Owner == filter.Owner })
	sort.Slice(leads, func(i, j int) bool { return leads[i].CreatedAt.After(leads[j].CreatedAt) })
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

func (r *fakeLeadRepo) collect(keep func(*model.Lead) bool) []*model.Lead {
	var out []*model.Lead
	for _, l := range r.leads {
		if keep(l) {
			out = append(out, cloneLead(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneLead(l *model.Lead) *model.Lead {
	if l == nil {
		return nil
	}
	c := *l
	c.Engagement.Interactions = append([]model.Interaction(nil), l.Engagement.Interactions...)
	if l.Engagement.BounceRate != nil {
		v := *l.Engagement.BounceRate
		c.Engagement.BounceRate = &v
	}
	if l.Engagement.LastActivity != nil {
		v := *l.Engagement.LastActivity
		c.Engagement.LastActivity = &v
	}
	c.Score.Factors = append([]model.ScoringFactor(nil), l.Score.Factors...)
	c.Notes = append([]model.Note(nil), l.Notes...)
	c.Tags = append([]string(nil), l.Tags...)
	if l.FormData != nil {
		c.FormData = make(map[string]interface{}, len(l.FormData))
		for k, v := range l.FormData {
			c.FormData[k] = v
		}
	}
	if l.Conversion.ConvertedAt != nil {
		v := *l.Conversion.ConvertedAt
		c.Conversion.ConvertedAt = &v
	}
	return &c
}

// fakeCampaignRepo is an in-memory CampaignRepo
type fakeCampaignRepo struct {
	campaigns map[string]*model.Campaign
	seq       int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*model.Campaign)}
}

func (r *fakeCampaignRepo) Create(_ context.Context, campaign *model.Campaign) (string, error) {
	r.seq++
	campaign.ID = fmt.Sprintf("camp-%d", r.seq)
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	r.campaigns[campaign.ID] = cloneCampaign(campaign)
	return campaign.ID, nil
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	return cloneCampaign(r.campaigns[id]), nil
}

func (r *fakeCampaignRepo) GetByOwner(_ context.Context, owner string) ([]*model.Campaign, error) {
	var out []*model.Campaign
	for _, c := range r.campaigns {
		if c.Owner == owner {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCampaignRepo) Update(_ context.Context, campaign *model.Campaign) error {
	campaign.UpdatedAt = time.Now()
	r.campaigns[campaign.ID] = cloneCampaign(campaign)
	return nil
}

func cloneCampaign(c *model.Campaign) *model.Campaign {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ScoringConfig.Factors = append([]model.FactorConfig(nil), c.ScoringConfig.Factors...)
	cp.Tags = append([]string(nil), c.Tags...)
	if c.EndDate != nil {
		v := *c.EndDate
		cp.EndDate = &v
	}
	return &cp
}

func (r *fakeCampaignRepo) Delete(_ context.Context, id string) error {
	delete(r.campaigns, id)
	return nil
}

func (r *fakeCampaignRepo) CountByOwner(_ context.Context, owner string, status model.CampaignStatus) (int64, error) {
	var n int64
	for _, c := range r.campaigns {
		if c.Owner == owner && (status == "" || c.Status == status) {
			n++
		}
	}
	return n, nil
}

func (r *fakeCampaignRepo) UpdateMetrics(_ context.Context, id string, metrics model.CampaignMetrics) error {
	c, ok := r.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %s not found", id)
	}
	metrics.LastUpdated = time.Now()
	c.Metrics = metrics
	return nil
}

func (r *fakeCampaignRepo) UpdateScoringConfig(_ context.Context, id string, cfg model.ScoringConfig) error {
	c, ok := r.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %s not found", id)
	}
	c.ScoringConfig = cfg
	return nil
}

// fakeBroadcaster records every broadcast call
type fakeBroadcaster struct {
	events []broadcastEvent
}

type broadcastEvent struct {
	Owner   string
	Type    string
	Payload interface{}
}

func (b *fakeBroadcaster) BroadcastToUser(userID string, msgType string, payload interface{}) {
	b.events = append(b.events, broadcastEvent{Owner: userID, Type: msgType, Payload: payload})
}

func (b *fakeBroadcaster) types() []string {
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}
