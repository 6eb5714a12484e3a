package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"leadscore/internal/model"
)

// Documents are stored with an ObjectID _id while the structs carry the
// hex string form. A replacement document that still contains the string
// _id would be rejected by Mongo as an immutable-field change, so the
// replacement helpers must drop it.

func TestLeadReplacementOmitsID(t *testing.T) {
	lead := &model.Lead{
		ID:        primitive.NewObjectID().Hex(),
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@gmail.com",
		Status:    model.StatusNew,
	}

	raw, err := bson.Marshal(leadReplacement(lead))
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	_, hasID := doc["_id"]
	assert.False(t, hasID, "replacement document must not carry _id")
	assert.Equal(t, "jane@gmail.com", doc["email"])
	assert.NotEmpty(t, lead.ID, "caller's struct keeps its ID")
}

func TestCampaignReplacementOmitsID(t *testing.T) {
	campaign := &model.Campaign{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Spring Launch",
		Status: model.CampaignActive,
	}

	raw, err := bson.Marshal(campaignReplacement(campaign))
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	_, hasID := doc["_id"]
	assert.False(t, hasID, "replacement document must not carry _id")
	assert.Equal(t, "Spring Launch", doc["name"])
	assert.NotEmpty(t, campaign.ID, "caller's struct keeps its ID")
}
