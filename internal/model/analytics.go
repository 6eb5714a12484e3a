package model

import "time"

// ScoreSummary aggregates score statistics over a set of leads
type ScoreSummary struct {
	TotalLeads         int     `json:"totalLeads" bson:"totalLeads"`
	AvgScore           float64 `json:"avgScore" bson:"avgScore"`
	MaxScore           int     `json:"maxScore" bson:"maxScore"`
	MinScore           int     `json:"minScore" bson:"minScore"`
	HighQualityLeads   int     `json:"highQualityLeads" bson:"highQualityLeads"`     // score >= 80
	MediumQualityLeads int     `json:"mediumQualityLeads" bson:"mediumQualityLeads"` // 50 <= score < 80
	LowQualityLeads    int     `json:"lowQualityLeads" bson:"lowQualityLeads"`       // score < 50
}

// ScoreBucket is one band of the score distribution histogram
type ScoreBucket struct {
	Range      string `json:"range"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// FactorPerformance is the average value of one scoring factor across leads
type FactorPerformance struct {
	Name     string  `json:"name" bson:"_id"`
	AvgValue float64 `json:"avgValue" bson:"avgValue"`
	Count    int     `json:"count" bson:"count"`
}

// ScoringAnalytics is the response of GET /v1/analytics/scores
type ScoringAnalytics struct {
	Summary      ScoreSummary        `json:"summary"`
	Distribution []ScoreBucket       `json:"distribution"`
	TopFactors   []FactorPerformance `json:"topFactors"`
}

// GroupCount is a generic bucket for group-by aggregations (status, source, priority)
type GroupCount struct {
	Key   string `json:"key" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// ConversionMetrics aggregates conversion outcomes over a set of leads
type ConversionMetrics struct {
	TotalLeads     int     `json:"totalLeads" bson:"totalLeads"`
	ConvertedLeads int     `json:"convertedLeads" bson:"convertedLeads"`
	ConversionRate int     `json:"conversionRate" bson:"-"`
	TotalValue     float64 `json:"totalValue" bson:"totalValue"`
	AvgValue       float64 `json:"avgValue" bson:"avgValue"`
}

// CampaignPerformance summarizes lead outcomes for one campaign
type CampaignPerformance struct {
	CampaignID     string  `json:"campaignId" bson:"_id"`
	CampaignName   string  `json:"campaignName" bson:"campaignName"`
	Platform       string  `json:"platform" bson:"platform"`
	LeadCount      int     `json:"leadCount" bson:"leadCount"`
	AvgScore       float64 `json:"avgScore" bson:"avgScore"`
	ConvertedCount int     `json:"convertedCount" bson:"convertedCount"`
	ConversionRate float64 `json:"conversionRate" bson:"conversionRate"`
}

// TrendPoint is one day of the leads-over-time trend
type TrendPoint struct {
	Date     string  `json:"date" bson:"_id"`
	Count    int     `json:"count" bson:"count"`
	AvgScore float64 `json:"avgScore" bson:"avgScore"`
}

// DashboardOverview holds the headline numbers for the dashboard
type DashboardOverview struct {
	TotalLeads      int `json:"totalLeads"`
	TotalCampaigns  int `json:"totalCampaigns"`
	ActiveCampaigns int `json:"activeCampaigns"`
	AvgScore        int `json:"avgScore"`
}

// DashboardDistribution groups leads along the three triage axes
type DashboardDistribution struct {
	ByStatus   []GroupCount `json:"byStatus"`
	BySource   []GroupCount `json:"bySource"`
	ByPriority []GroupCount `json:"byPriority"`
}

// Dashboard is the response of GET /v1/analytics/dashboard
type Dashboard struct {
	Overview     DashboardOverview     `json:"overview"`
	Distribution DashboardDistribution `json:"distribution"`
	Conversions  ConversionMetrics     `json:"conversions"`
	RecentLeads  []*Lead               `json:"recentLeads"`
	TopCampaigns []CampaignPerformance `json:"topCampaigns"`
	Trends       []TrendPoint          `json:"trends"`
	GeneratedAt  time.Time             `json:"generatedAt"`
}

// ScoreHistoryEntry is one recalculation point in a lead's score history,
// derived by deduplicating factor timestamps
type ScoreHistoryEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Factors   []ScoringFactor `json:"factors"`
	Score     int             `json:"score"`
}

// ScoreHistory is the response of GET /v1/scoring/history/{leadId}
type ScoreHistory struct {
	LeadID         string              `json:"leadId"`
	CurrentScore   int                 `json:"currentScore"`
	PreviousScore  int                 `json:"previousScore"`
	LastCalculated time.Time           `json:"lastCalculated"`
	Confidence     float64             `json:"confidence"`
	History        []ScoreHistoryEntry `json:"history"`
}
