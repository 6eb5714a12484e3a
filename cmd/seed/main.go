package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadscore/internal/model"
	"leadscore/internal/repository"
	"leadscore/internal/scoring"
)

// Seeds a demo owner with two campaigns and a handful of leads at
// different quality levels, scored with the default catalog.
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "leadscore"
	}
	owner := os.Getenv("ADMIN_USERNAME")
	if owner == "" {
		owner = "admin"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	leadRepo := repository.NewLeadRepo(db)
	campaignRepo := repository.NewCampaignRepo(db)
	engine := scoring.NewEngine(scoring.DefaultCatalog())

	metaCampaign := &model.Campaign{
		Name:        "Spring Product Launch",
		Description: "Lead gen forms on Meta placements",
		Platform:    model.PlatformMeta,
		Type:        "lead_generation",
		Objective:   "leads",
		Status:      model.CampaignActive,
		StartDate:   time.Now().AddDate(0, -1, 0),
		Budget:      model.Budget{Daily: 150, Total: 4500, Spent: 1820, Currency: "USD"},
		Metrics:     model.CampaignMetrics{
			Impressions:       84000,
			Clicks:            5100,
			Conversions:       260,
			CostPerClick:      0.36,
			CostPerConversion: 7,
			ClickThroughRate:  0.061,
			ConversionRate:    0.051,
		},
		Owner: owner,
	}
	if _, err := campaignRepo.Create(ctx, metaCampaign); err != nil {
		log.Fatalf("failed to create campaign: %v", err)
	}

	googleCampaign := &model.Campaign{
		Name:      "Search Brand Terms",
		Platform:  model.PlatformGoogle,
		Type:      "search",
		Objective: "conversions",
		Status:    model.CampaignActive,
		StartDate: time.Now().AddDate(0, -2, 0),
		Budget:    model.Budget{Daily: 80, Total: 4800, Spent: 3900, Currency: "USD"},
		Metrics:   model.CampaignMetrics{
			Impressions:       41000,
			Clicks:            1900,
			Conversions:       240,
			CostPerClick:      2.05,
			CostPerConversion: 16.3,
			ClickThroughRate:  0.046,
			ConversionRate:    0.126,
		},
		Owner: owner,
	}
	if _, err := campaignRepo.Create(ctx, googleCampaign); err != nil {
		log.Fatalf("failed to create campaign: %v", err)
	}

	bounce := func(v float64) *float64 { return &v }
	leads := []*model.Lead{
		{
			FirstName:   "Maria",
			LastName:    "Santos",
			Email:       "maria.santos@acmecorp.com",
			Phone:       "+1-415-555-0132",
			Company:     "Acme Corp",
			JobTitle:    "Head of Growth",
			CampaignID:  metaCampaign.ID,
			Source:      model.SourceFacebook,
			UTMSource:   "facebook",
			UTMMedium:   "cpc",
			UTMCampaign: "spring-launch",
			FormData: map[string]interface{}{
				"submissionId": uuid.New().String(),
				"companySize":  "50-200",
			},
			Engagement: model.Engagement{
				PageViews:  12,
				TimeOnSite: 640,
				BounceRate: bounce(0.18),
			},
			Status:   model.StatusQualified,
			Priority: model.PriorityHigh,
			Owner:    owner,
		},
		{
			FirstName:   "Tom",
			LastName:    "Becker",
			Email:       "tbecker@gmail.com",
			CampaignID:  metaCampaign.ID,
			Source:      model.SourceInstagram,
			UTMSource:   "instagram",
			UTMMedium:   "cpc",
			UTMCampaign: "spring-launch",
			FormData: map[string]interface{}{
				"submissionId": uuid.New().String(),
			},
			Engagement: model.Engagement{
				PageViews:  3,
				TimeOnSite: 95,
				BounceRate: bounce(0.55),
			},
			Status:   model.StatusNew,
			Priority: model.PriorityMedium,
			Owner:    owner,
		},
		{
			FirstName:   "Priya",
			LastName:    "Raman",
			Email:       "priya@signalworks.io",
			Phone:       "+1-212-555-0188",
			Company:     "Signalworks",
			CampaignID:  googleCampaign.ID,
			Source:      model.SourceGoogle,
			UTMSource:   "google",
			UTMMedium:   "search",
			UTMCampaign: "brand-terms",
			FormData: map[string]interface{}{
				"submissionId": uuid.New().String(),
				"budget":       "10k+",
			},
			Engagement: model.Engagement{
				PageViews:  7,
				TimeOnSite: 380,
				BounceRate: bounce(0.31),
			},
			Status:   model.StatusContacted,
			Priority: model.PriorityHigh,
			Owner:    owner,
		},
		{
			FirstName:  "Lena",
			LastName:   "Ortiz",
			Email:      "lena@10minutemail.com",
			CampaignID: googleCampaign.ID,
			Source:     model.SourceGoogle,
			Engagement: model.Engagement{PageViews: 1, TimeOnSite: 20},
			Status:     model.StatusNew,
			Priority:   model.PriorityLow,
			Owner:      owner,
		},
	}

	for _, lead := range leads {
		campaign := metaCampaign
		if lead.CampaignID == googleCampaign.ID {
			campaign = googleCampaign
		}
		result, err := engine.Score(lead, campaign, nil)
		if err != nil {
			log.Fatalf("failed to score lead %s: %v", lead.Email, err)
		}
		lead.Score = model.Score{
			Current:        result.Score,
			Factors:        result.Factors,
			LastCalculated: result.Timestamp,
			Confidence:     result.Confidence,
		}
		if _, err := leadRepo.Create(ctx, lead); err != nil {
			log.Fatalf("failed to create lead %s: %v", lead.Email, err)
		}
		log.Printf("seeded lead %s %s (score %d)", lead.FirstName, lead.LastName, result.Score)
	}

	log.Printf("seeded %d campaigns, %d leads for owner %s", 2, len(leads), owner)
}
