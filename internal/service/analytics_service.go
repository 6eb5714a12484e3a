package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"leadscore/internal/cache"
	"leadscore/internal/model"
	"leadscore/internal/repository"
)

// scoreBuckets are the histogram bands of the score distribution
var scoreBuckets = []struct {
	label string
	min   int
	max   int
}{
	{"0-20", 0, 20},
	{"21-40", 21, 40},
	{"41-60", 41, 60},
	{"61-80", 61, 80},
	{"81-100", 81, 100},
}

// AnalyticsService builds dashboard and scoring reports over the
// owner's leads, cached in Redis for a short TTL
type AnalyticsService struct {
	leadRepo     repository.LeadRepo
	campaignRepo repository.CampaignRepo
	cache        cache.AnalyticsCache
	logger       *zap.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	leadRepo repository.LeadRepo,
	campaignRepo repository.CampaignRepo,
	analyticsCache cache.AnalyticsCache,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		cache:        analyticsCache,
		logger:       logger,
	}
}

// Dashboard assembles the overview report for the trailing window of days
func (s *AnalyticsService) Dashboard(ctx context.Context, owner string, days int) (*model.Dashboard, error) {
	if days <= 0 {
		days = 30
	}

	if cached, err := s.cache.GetDashboard(ctx, owner, days); err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("owner", owner), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	filter := repository.AnalyticsFilter{Owner: owner, DateFrom: &since}

	summary, err := s.leadRepo.ScoreSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}

	totalCampaigns, err := s.campaignRepo.CountByOwner(ctx, owner, "")
	if err != nil {
		return nil, err
	}
	activeCampaigns, err := s.campaignRepo.CountByOwner(ctx, owner, model.CampaignActive)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.leadRepo.CountByField(ctx, filter, "status")
	if err != nil {
		return nil, err
	}
	bySource, err := s.leadRepo.CountByField(ctx, filter, "source")
	if err != nil {
		return nil, err
	}
	byPriority, err := s.leadRepo.CountByField(ctx, filter, "priority")
	if err != nil {
		return nil, err
	}

	conversions, err := s.leadRepo.ConversionMetrics(ctx, filter)
	if err != nil {
		return nil, err
	}
	recent, err := s.leadRepo.Recent(ctx, filter, 10)
	if err != nil {
		return nil, err
	}
	topCampaigns, err := s.leadRepo.TopCampaigns(ctx, filter, 5)
	if err != nil {
		return nil, err
	}
	trends, err := s.leadRepo.Trend(ctx, filter, days)
	if err != nil {
		return nil, err
	}

	dashboard := &model.Dashboard{
		Overview: model.DashboardOverview{
			TotalLeads:      summary.TotalLeads,
			TotalCampaigns:  int(totalCampaigns),
			ActiveCampaigns: int(activeCampaigns),
			AvgScore:        int(math.Round(summary.AvgScore)),
		},
		Distribution: model.DashboardDistribution{
			ByStatus:   byStatus,
			BySource:   bySource,
			ByPriority: byPriority,
		},
		Conversions:  *conversions,
		RecentLeads:  recent,
		TopCampaigns: topCampaigns,
		Trends:       trends,
		GeneratedAt:  time.Now(),
	}

	if err := s.cache.SetDashboard(ctx, owner, days, dashboard); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("owner", owner), zap.Error(err))
	}
	return dashboard, nil
}

// Scores assembles the scoring analytics report (summary, distribution
// histogram, per-factor averages)
func (s *AnalyticsService) Scores(ctx context.Context, owner string) (*model.ScoringAnalytics, error) {
	if cached, err := s.cache.GetScoringAnalytics(ctx, owner); err != nil {
		s.logger.Warn("scoring analytics cache read failed", zap.String("owner", owner), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	filter := repository.AnalyticsFilter{Owner: owner}

	summary, err := s.leadRepo.ScoreSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}

	distribution := make([]model.ScoreBucket, 0, len(scoreBuckets))
	for _, b := range scoreBuckets {
		count, err := s.leadRepo.CountByScoreRange(ctx, filter, b.min, b.max)
		if err != nil {
			return nil, err
		}
		pct := 0
		if summary.TotalLeads > 0 {
			pct = int(math.Round(float64(count) / float64(summary.TotalLeads) * 100))
		}
		distribution = append(distribution, model.ScoreBucket{
			Range:      b.label,
			Count:      int(count),
			Percentage: pct,
		})
	}

	topFactors, err := s.leadRepo.TopFactors(ctx, filter, 5)
	if err != nil {
		return nil, err
	}

	analytics := &model.ScoringAnalytics{
		Summary:      *summary,
		Distribution: distribution,
		TopFactors:   topFactors,
	}

	if err := s.cache.SetScoringAnalytics(ctx, owner, analytics); err != nil {
		s.logger.Warn("scoring analytics cache write failed", zap.String("owner", owner), zap.Error(err))
	}
	return analytics, nil
}
