package model

import "time"

// LeadSource identifies the ad platform or channel a lead came from
type LeadSource string

const (
	SourceFacebook  LeadSource = "facebook"
	SourceInstagram LeadSource = "instagram"
	SourceGoogle    LeadSource = "google"
	SourceManual    LeadSource = "manual"
	SourceOther     LeadSource = "other"
)

// LeadStatus tracks the sales lifecycle of a lead
type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusContacted   LeadStatus = "contacted"
	StatusQualified   LeadStatus = "qualified"
	StatusProposal    LeadStatus = "proposal"
	StatusNegotiation LeadStatus = "negotiation"
	StatusClosedWon   LeadStatus = "closed_won"
	StatusClosedLost  LeadStatus = "closed_lost"
	StatusUnqualified LeadStatus = "unqualified"
)

// LeadPriority is the manual triage level assigned to a lead
type LeadPriority string

const (
	PriorityLow    LeadPriority = "low"
	PriorityMedium LeadPriority = "medium"
	PriorityHigh   LeadPriority = "high"
	PriorityUrgent LeadPriority = "urgent"
)

// InteractionType classifies a tracked engagement event
type InteractionType string

const (
	InteractionEmailOpen  InteractionType = "email_open"
	InteractionEmailClick InteractionType = "email_click"
	InteractionPageView   InteractionType = "page_view"
	InteractionFormSubmit InteractionType = "form_submit"
	InteractionDownload   InteractionType = "download"
)

// ValidSources lists the accepted lead sources
var ValidSources = []LeadSource{SourceFacebook, SourceInstagram, SourceGoogle, SourceManual, SourceOther}

// ValidInteractionTypes lists the accepted interaction event types
var ValidInteractionTypes = []InteractionType{
	InteractionEmailOpen, InteractionEmailClick, InteractionPageView,
	InteractionFormSubmit, InteractionDownload,
}

// Interaction is a single engagement event on a lead
type Interaction struct {
	Type      InteractionType        `json:"type" bson:"type"`
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Engagement aggregates the behavioral signals tracked for a lead
type Engagement struct {
	PageViews    int           `json:"pageViews" bson:"pageViews"`
	TimeOnSite   int           `json:"timeOnSite" bson:"timeOnSite"` // seconds
	BounceRate   *float64      `json:"bounceRate,omitempty" bson:"bounceRate,omitempty"`
	LastActivity *time.Time    `json:"lastActivity,omitempty" bson:"lastActivity,omitempty"`
	Interactions []Interaction `json:"interactions" bson:"interactions"`
}

// ScoringFactor is one named, weighted sub-score of a lead's quality score
type ScoringFactor struct {
	Name        string    `json:"name" bson:"name"`
	Value       int       `json:"value" bson:"value"`
	Weight      float64   `json:"weight" bson:"weight"`
	Description string    `json:"description" bson:"description"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// Score holds the current and previous quality score for a lead.
// Previous is moved from Current on every recalculation; that shuffle
// happens inside a single Mongo pipeline update so concurrent rescores
// of the same lead cannot lose writes.
type Score struct {
	Current        int             `json:"current" bson:"current"`
	Previous       int             `json:"previous" bson:"previous"`
	Factors        []ScoringFactor `json:"factors" bson:"factors"`
	LastCalculated time.Time       `json:"lastCalculated" bson:"lastCalculated"`
	Confidence     float64         `json:"confidence" bson:"confidence"`
}

// Conversion records whether and how a lead converted
type Conversion struct {
	IsConverted     bool       `json:"isConverted" bson:"isConverted"`
	ConvertedAt     *time.Time `json:"convertedAt,omitempty" bson:"convertedAt,omitempty"`
	ConversionValue float64    `json:"conversionValue" bson:"conversionValue"`
	ConversionType  string     `json:"conversionType,omitempty" bson:"conversionType,omitempty"`
	Notes           string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Note is a free-text comment attached to a lead
type Note struct {
	Content   string    `json:"content" bson:"content"`
	Author    string    `json:"author" bson:"author"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	IsPrivate bool      `json:"isPrivate" bson:"isPrivate"`
}

// Lead is a prospective customer captured from an ad platform or manual entry
type Lead struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Email     string `json:"email" bson:"email"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	Company   string `json:"company,omitempty" bson:"company,omitempty"`
	JobTitle  string `json:"jobTitle,omitempty" bson:"jobTitle,omitempty"`

	CampaignID string     `json:"campaignId" bson:"campaignId"`
	Source     LeadSource `json:"source" bson:"source"`

	UTMSource   string `json:"utmSource,omitempty" bson:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty" bson:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty" bson:"utmCampaign,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty" bson:"utmTerm,omitempty"`
	UTMContent  string `json:"utmContent,omitempty" bson:"utmContent,omitempty"`

	// FormData carries the raw submitted form fields, schema-free
	FormData map[string]interface{} `json:"formData,omitempty" bson:"formData,omitempty"`

	Engagement Engagement `json:"engagement" bson:"engagement"`
	Score      Score      `json:"score" bson:"score"`

	Status   LeadStatus   `json:"status" bson:"status"`
	Priority LeadPriority `json:"priority" bson:"priority"`

	Owner string `json:"owner" bson:"owner"`

	Conversion Conversion `json:"conversion" bson:"conversion"`
	Notes      []Note     `json:"notes,omitempty" bson:"notes,omitempty"`
	Tags       []string   `json:"tags,omitempty" bson:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FullName returns the lead's display name
func (l *Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

// CountInteractions returns how many interactions of the given type the lead has
func (l *Lead) CountInteractions(t InteractionType) int {
	n := 0
	for _, i := range l.Engagement.Interactions {
		if i.Type == t {
			n++
		}
	}
	return n
}
