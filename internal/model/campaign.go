package model

import "time"

// CampaignPlatform identifies where a campaign runs
type CampaignPlatform string

const (
	PlatformMeta   CampaignPlatform = "meta"
	PlatformGoogle CampaignPlatform = "google"
	PlatformManual CampaignPlatform = "manual"
)

// CampaignStatus tracks the lifecycle of a campaign
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignDraft     CampaignStatus = "draft"
	CampaignArchived  CampaignStatus = "archived"
)

// Budget tracks campaign spend
type Budget struct {
	Daily    float64 `json:"daily" bson:"daily"`
	Total    float64 `json:"total" bson:"total"`
	Spent    float64 `json:"spent" bson:"spent"`
	Currency string  `json:"currency" bson:"currency"`
}

// CampaignMetrics holds the platform-reported performance numbers
// feeding the campaignPerformance scoring factor
type CampaignMetrics struct {
	Impressions       int64     `json:"impressions" bson:"impressions"`
	Clicks            int64     `json:"clicks" bson:"clicks"`
	Conversions       int64     `json:"conversions" bson:"conversions"`
	CostPerClick      float64   `json:"costPerClick" bson:"costPerClick"`
	CostPerConversion float64   `json:"costPerConversion" bson:"costPerConversion"`
	ClickThroughRate  float64   `json:"clickThroughRate" bson:"clickThroughRate"`
	ConversionRate    float64   `json:"conversionRate" bson:"conversionRate"`
	LastUpdated       time.Time `json:"lastUpdated" bson:"lastUpdated"`
}

// FactorConfig is a per-campaign override for one scoring factor
type FactorConfig struct {
	Name    string  `json:"name" bson:"name"`
	Weight  float64 `json:"weight" bson:"weight"`
	Enabled bool    `json:"enabled" bson:"enabled"`
}

// ScoringConfig is the per-campaign scoring override set. When Enabled
// is false or Factors is empty the engine's default catalog applies.
type ScoringConfig struct {
	Enabled bool           `json:"enabled" bson:"enabled"`
	Factors []FactorConfig `json:"factors,omitempty" bson:"factors,omitempty"`
}

// Campaign is an advertising campaign that leads are attributed to
type Campaign struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	Name        string           `json:"name" bson:"name"`
	Description string           `json:"description,omitempty" bson:"description,omitempty"`
	Platform    CampaignPlatform `json:"platform" bson:"platform"`
	Type        string           `json:"type" bson:"type"`
	Objective   string           `json:"objective" bson:"objective"`

	Budget  Budget          `json:"budget" bson:"budget"`
	Metrics CampaignMetrics `json:"metrics" bson:"metrics"`

	Status    CampaignStatus `json:"status" bson:"status"`
	StartDate time.Time      `json:"startDate" bson:"startDate"`
	EndDate   *time.Time     `json:"endDate,omitempty" bson:"endDate,omitempty"`

	Owner string `json:"owner" bson:"owner"`

	ScoringConfig ScoringConfig `json:"scoringConfig" bson:"scoringConfig"`

	Tags []string `json:"tags,omitempty" bson:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsActive reports whether the campaign is currently running
func (c *Campaign) IsActive() bool {
	now := time.Now()
	if c.Status != CampaignActive || c.StartDate.After(now) {
		return false
	}
	return c.EndDate == nil || !c.EndDate.Before(now)
}
