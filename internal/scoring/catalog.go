package scoring

import (
	"math"
	"regexp"
	"strings"

	"leadscore/internal/model"
)

// Factor names, in catalog order
const (
	FactorFormCompleteness    = "formCompleteness"
	FactorEmailQuality        = "emailQuality"
	FactorPhoneProvided       = "phoneProvided"
	FactorCompanyProvided     = "companyProvided"
	FactorPageViews           = "pageViews"
	FactorTimeOnSite          = "timeOnSite"
	FactorBounceRate          = "bounceRate"
	FactorEmailOpens          = "emailOpens"
	FactorEmailClicks         = "emailClicks"
	FactorCampaignPerformance = "campaignPerformance"
	FactorSourceQuality       = "sourceQuality"
)

// Input is the immutable snapshot a scoring call runs over.
// Campaign may be nil when the lead has no resolvable campaign.
type Input struct {
	Lead     *model.Lead
	Campaign *model.Campaign
}

// FactorSpec is one catalog entry: a named, weighted, pure rule
type FactorSpec struct {
	Name        string
	Weight      float64
	Description string
	Compute     func(Input) int
}

// Catalog is the ordered set of factors a scoring call evaluates
type Catalog []FactorSpec

// DefaultCatalog returns the built-in eleven-factor catalog. Weights are
// the shipped defaults; callers override them per campaign via
// FactorOverride, and the engine normalizes by total active weight.
func DefaultCatalog() Catalog {
	return Catalog{
		{FactorFormCompleteness, 0.15, "Form completion percentage", formCompleteness},
		{FactorEmailQuality, 0.10, "Email domain quality and validity", emailQuality},
		{FactorPhoneProvided, 0.08, "Phone number provided", phoneProvided},
		{FactorCompanyProvided, 0.07, "Company information provided", companyProvided},
		{FactorPageViews, 0.12, "Number of page views", pageViews},
		{FactorTimeOnSite, 0.10, "Time spent on website", timeOnSite},
		{FactorBounceRate, 0.08, "Bounce rate (lower is better)", bounceRate},
		{FactorEmailOpens, 0.10, "Email open rate", emailOpens},
		{FactorEmailClicks, 0.08, "Email click rate", emailClicks},
		{FactorCampaignPerformance, 0.12, "Campaign performance metrics", campaignPerformance},
		{FactorSourceQuality, 0.10, "Lead source quality", sourceQuality},
	}
}

// Contains reports whether the catalog has a factor with the given name
func (c Catalog) Contains(name string) bool {
	for _, f := range c {
		if f.Name == name {
			return true
		}
	}
	return false
}

var (
	webmailDomains    = map[string]bool{"gmail.com": true, "yahoo.com": true, "hotmail.com": true, "outlook.com": true}
	disposableDomains = map[string]bool{"10minutemail.com": true, "tempmail.org": true, "guerrillamail.com": true}
	emailShape        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var sourceScores = map[model.LeadSource]int{
	model.SourceFacebook:  85,
	model.SourceInstagram: 80,
	model.SourceGoogle:    90,
	model.SourceManual:    70,
	model.SourceOther:     50,
}

func formCompleteness(in Input) int {
	fields := []string{
		in.Lead.FirstName, in.Lead.LastName, in.Lead.Email,
		in.Lead.Phone, in.Lead.Company, in.Lead.JobTitle,
	}
	provided := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			provided++
		}
	}
	return int(math.Round(float64(provided) / float64(len(fields)) * 100))
}

// emailQuality starts at 50 and applies independent, additive
// adjustments: +30 for a non-webmail domain, -40 for a disposable
// domain, -20 for a malformed address. Clamped once at the end.
func emailQuality(in Input) int {
	email := in.Lead.Email
	if email == "" {
		return 0
	}

	score := 50

	domain := ""
	if at := strings.Index(email, "@"); at >= 0 {
		domain = strings.ToLower(email[at+1:])
	}

	if domain != "" && !webmailDomains[domain] {
		score += 30
	}
	if disposableDomains[domain] {
		score -= 40
	}
	if !emailShape.MatchString(email) {
		score -= 20
	}

	return clampInt(score, 0, 100)
}

func phoneProvided(in Input) int {
	if in.Lead.Phone != "" {
		return 100
	}
	return 0
}

func companyProvided(in Input) int {
	if in.Lead.Company != "" {
		return 100
	}
	return 0
}

func pageViews(in Input) int {
	views := in.Lead.Engagement.PageViews
	switch {
	case views <= 0:
		return 0
	case views >= 10:
		return 100
	case views >= 5:
		return 80
	case views >= 3:
		return 60
	case views >= 2:
		return 40
	default:
		return 20
	}
}

func timeOnSite(in Input) int {
	seconds := in.Lead.Engagement.TimeOnSite
	if seconds <= 0 {
		return 0
	}
	minutes := float64(seconds) / 60
	switch {
	case minutes >= 10:
		return 100
	case minutes >= 5:
		return 80
	case minutes >= 3:
		return 60
	case minutes >= 1:
		return 40
	default:
		return 20
	}
}

func bounceRate(in Input) int {
	rate := in.Lead.Engagement.BounceRate
	if rate == nil {
		return 50
	}
	switch {
	case *rate <= 0.2:
		return 100
	case *rate <= 0.4:
		return 80
	case *rate <= 0.6:
		return 60
	case *rate <= 0.8:
		return 40
	default:
		return 20
	}
}

func emailOpens(in Input) int {
	return emailEngagement(in.Lead.CountInteractions(model.InteractionEmailOpen))
}

func emailClicks(in Input) int {
	return emailEngagement(in.Lead.CountInteractions(model.InteractionEmailClick))
}

func emailEngagement(count int) int {
	switch {
	case count == 0:
		return 0
	case count >= 5:
		return 100
	case count >= 3:
		return 80
	case count >= 2:
		return 60
	default:
		return 40
	}
}

// campaignPerformance returns a flat 50 when no campaign is attached;
// otherwise base 50 plus non-negative bonuses, capped at 100.
func campaignPerformance(in Input) int {
	if in.Campaign == nil {
		return 50
	}

	m := in.Campaign.Metrics
	score := 50

	if m.ClickThroughRate > 0.05 {
		score += 20
	} else if m.ClickThroughRate > 0.02 {
		score += 10
	}

	if m.ConversionRate > 0.1 {
		score += 20
	} else if m.ConversionRate > 0.05 {
		score += 10
	}

	if m.CostPerConversion < 50 {
		score += 10
	}

	if score > 100 {
		return 100
	}
	return score
}

func sourceQuality(in Input) int {
	if s, ok := sourceScores[in.Lead.Source]; ok {
		return s
	}
	return 50
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
