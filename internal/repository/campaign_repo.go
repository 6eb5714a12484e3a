package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadscore/internal/model"
)

// CampaignRepo handles MongoDB operations for campaigns
type CampaignRepo interface {
	Create(ctx context.Context, campaign *model.Campaign) (string, error)
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	GetByOwner(ctx context.Context, owner string) ([]*model.Campaign, error)
	Update(ctx context.Context, campaign *model.Campaign) error
	Delete(ctx context.Context, id string) error
	CountByOwner(ctx context.Context, owner string, status model.CampaignStatus) (int64, error)
	UpdateMetrics(ctx context.Context, id string, metrics model.CampaignMetrics) error
	UpdateScoringConfig(ctx context.Context, id string, cfg model.ScoringConfig) error
}

type campaignRepo struct {
	collection *mongo.Collection
}

// NewCampaignRepo creates a new campaign repository
func NewCampaignRepo(db *mongo.Database) CampaignRepo {
	return &campaignRepo{
		collection: db.Collection("campaigns"),
	}
}

func (r *campaignRepo) Create(ctx context.Context, campaign *model.Campaign) (string, error) {
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, campaign)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	campaign.ID = oid.Hex()
	return campaign.ID, nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var campaign model.Campaign
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&campaign)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	campaign.ID = id
	return &campaign, nil
}

func (r *campaignRepo) GetByOwner(ctx context.Context, owner string) ([]*model.Campaign, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []*model.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *campaignRepo) Update(ctx context.Context, campaign *model.Campaign) error {
	oid, err := primitive.ObjectIDFromHex(campaign.ID)
	if err != nil {
		return err
	}

	campaign.UpdatedAt = time.Now()
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, campaignReplacement(campaign))
	return err
}

// campaignReplacement strips the _id, same as leadReplacement.
func campaignReplacement(campaign *model.Campaign) *model.Campaign {
	doc := *campaign
	doc.ID = ""
	return &doc
}

func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *campaignRepo) CountByOwner(ctx context.Context, owner string, status model.CampaignStatus) (int64, error) {
	query := bson.M{"owner": owner}
	if status != "" {
		query["status"] = status
	}
	return r.collection.CountDocuments(ctx, query)
}

func (r *campaignRepo) UpdateMetrics(ctx context.Context, id string, metrics model.CampaignMetrics) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	metrics.LastUpdated = time.Now()
	update := bson.M{"$set": bson.M{
		"metrics":   metrics,
		"updatedAt": metrics.LastUpdated,
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *campaignRepo) UpdateScoringConfig(ctx context.Context, id string, cfg model.ScoringConfig) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"scoringConfig": cfg,
		"updatedAt":     time.Now(),
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}
