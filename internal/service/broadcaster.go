package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToUser(userID string, msgType string, payload interface{})
}

// Event types pushed to a user's WebSocket connections
const (
	EventLeadCreated          = "lead_created"
	EventLeadUpdated          = "lead_updated"
	EventLeadDeleted          = "lead_deleted"
	EventLeadNoteAdded        = "lead_note_added"
	EventLeadInteractionAdded = "lead_interaction_added"
	EventScoreUpdated         = "score_updated"

	EventCampaignCreated              = "campaign_created"
	EventCampaignUpdated              = "campaign_updated"
	EventCampaignDeleted              = "campaign_deleted"
	EventCampaignMetricsUpdated       = "campaign_metrics_updated"
	EventCampaignScoringConfigUpdated = "campaign_scoring_config_updated"
)
