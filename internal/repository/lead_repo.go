package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadscore/internal/model"
	"leadscore/internal/scoring"
)

// LeadFilter narrows and pages a lead listing
type LeadFilter struct {
	Owner      string
	Status     model.LeadStatus
	Priority   model.LeadPriority
	CampaignID string
	Page       int
	Limit      int
	SortBy     string // score, createdAt, updatedAt, firstName, lastName
	SortOrder  string // asc, desc
}

// AnalyticsFilter scopes aggregation queries
type AnalyticsFilter struct {
	Owner      string
	CampaignID string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// LeadRepo handles MongoDB operations for leads
type LeadRepo interface {
	Create(ctx context.Context, lead *model.Lead) (string, error)
	GetByID(ctx context.Context, id string) (*model.Lead, error)
	GetByIDs(ctx context.Context, ids []string, owner string) ([]*model.Lead, error)
	GetByCampaign(ctx context.Context, campaignID string) ([]*model.Lead, error)
	GetByOwner(ctx context.Context, owner string) ([]*model.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]*model.Lead, int64, error)
	Update(ctx context.Context, lead *model.Lead) error
	Delete(ctx context.Context, id string) error

	UpdateScore(ctx context.Context, id string, result *scoring.Result) error
	AddInteraction(ctx context.Context, id string, interaction model.Interaction) error
	AddNote(ctx context.Context, id string, note model.Note) error

	ScoreSummary(ctx context.Context, filter AnalyticsFilter) (*model.ScoreSummary, error)
	CountByScoreRange(ctx context.Context, filter AnalyticsFilter, min, max int) (int64, error)
	TopFactors(ctx context.Context, filter AnalyticsFilter, limit int) ([]model.FactorPerformance, error)
	CountByField(ctx context.Context, filter AnalyticsFilter, field string) ([]model.GroupCount, error)
	ConversionMetrics(ctx context.Context, filter AnalyticsFilter) (*model.ConversionMetrics, error)
	TopCampaigns(ctx context.Context, filter AnalyticsFilter, limit int) ([]model.CampaignPerformance, error)
	Trend(ctx context.Context, filter AnalyticsFilter, limit int) ([]model.TrendPoint, error)
	Recent(ctx context.Context, filter AnalyticsFilter, limit int) ([]*model.Lead, error)
}

type leadRepo struct {
	collection *mongo.Collection
}

// NewLeadRepo creates a new lead repository
func NewLeadRepo(db *mongo.Database) LeadRepo {
	return &leadRepo{
		collection: db.Collection("leads"),
	}
}

func (r *leadRepo) Create(ctx context.Context, lead *model.Lead) (string, error) {
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Engagement.Interactions == nil {
		lead.Engagement.Interactions = []model.Interaction{}
	}

	result, err := r.collection.InsertOne(ctx, lead)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	lead.ID = oid.Hex()
	return lead.ID, nil
}

func (r *leadRepo) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var lead model.Lead
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&lead)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lead.ID = id
	return &lead, nil
}

func (r *leadRepo) GetByIDs(ctx context.Context, ids []string, owner string) ([]*model.Lead, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}, "owner": owner}, nil)
}

func (r *leadRepo) GetByCampaign(ctx context.Context, campaignID string) ([]*model.Lead, error) {
	return r.find(ctx, bson.M{"campaignId": campaignID}, nil)
}

func (r *leadRepo) GetByOwner(ctx context.Context, owner string) ([]*model.Lead, error) {
	return r.find(ctx, bson.M{"owner": owner}, nil)
}

func (r *leadRepo) List(ctx context.Context, filter LeadFilter) ([]*model.Lead, int64, error) {
	query := bson.M{"owner": filter.Owner}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.CampaignID != "" {
		query["campaignId"] = filter.CampaignID
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 25
	}

	sortField := map[string]string{
		"score":     "score.current",
		"createdAt": "createdAt",
		"updatedAt": "updatedAt",
		"firstName": "firstName",
		"lastName":  "lastName",
	}[filter.SortBy]
	if sortField == "" {
		sortField = "score.current"
	}
	order := -1
	if filter.SortOrder == "asc" {
		order = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: order}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	leads, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *leadRepo) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]*model.Lead, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, query, opts)
	} else {
		cursor, err = r.collection.Find(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var leads []*model.Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *leadRepo) Update(ctx context.Context, lead *model.Lead) error {
	oid, err := primitive.ObjectIDFromHex(lead.ID)
	if err != nil {
		return err
	}

	lead.UpdatedAt = time.Now()
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, leadReplacement(lead))
	return err
}

// leadReplacement strips the _id from the replacement document. The
// struct carries the hex string form, and replacing the stored ObjectID
// with a string _id is rejected by Mongo as an immutable-field change.
func leadReplacement(lead *model.Lead) *model.Lead {
	doc := *lead
	doc.ID = ""
	return &doc
}

func (r *leadRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// UpdateScore persists a fresh scoring result. The whole shuffle — move
// score.current to score.previous, then write the new score, factors,
// confidence and lastCalculated — runs as one pipeline update, so two
// near-simultaneous rescores of the same lead cannot interleave and
// lose the previous/current pairing.
func (r *leadRepo) UpdateScore(ctx context.Context, id string, result *scoring.Result) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"score.previous":       "$score.current",
			"score.current":        result.Score,
			"score.factors":        bson.M{"$literal": result.Factors},
			"score.confidence":     result.Confidence,
			"score.lastCalculated": result.Timestamp,
			"updatedAt":            result.Timestamp,
		}}},
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, pipeline)
	return err
}

func (r *leadRepo) AddInteraction(ctx context.Context, id string, interaction model.Interaction) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$push": bson.M{"engagement.interactions": interaction},
		"$set": bson.M{
			"engagement.lastActivity": interaction.Timestamp,
			"updatedAt":               interaction.Timestamp,
		},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *leadRepo) AddNote(ctx context.Context, id string, note model.Note) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updatedAt": note.Timestamp},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (f AnalyticsFilter) match() bson.M {
	query := bson.M{"owner": f.Owner}
	if f.CampaignID != "" {
		query["campaignId"] = f.CampaignID
	}
	if f.DateFrom != nil || f.DateTo != nil {
		created := bson.M{}
		if f.DateFrom != nil {
			created["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			created["$lte"] = *f.DateTo
		}
		query["createdAt"] = created
	}
	return query
}

func (r *leadRepo) ScoreSummary(ctx context.Context, filter AnalyticsFilter) (*model.ScoreSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.match()}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalLeads": bson.M{"$sum": 1},
			"avgScore":   bson.M{"$avg": "$score.current"},
			"maxScore":   bson.M{"$max": "$score.current"},
			"minScore":   bson.M{"$min": "$score.current"},
			"highQualityLeads": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$score.current", 80}}, 1, 0,
			}}},
			"mediumQualityLeads": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gte": bson.A{"$score.current", 50}},
					bson.M{"$lt": bson.A{"$score.current", 80}},
				}}, 1, 0,
			}}},
			"lowQualityLeads": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$lt": bson.A{"$score.current", 50}}, 1, 0,
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.ScoreSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &model.ScoreSummary{}, nil
	}
	return &results[0], nil
}

func (r *leadRepo) CountByScoreRange(ctx context.Context, filter AnalyticsFilter, min, max int) (int64, error) {
	query := filter.match()
	query["score.current"] = bson.M{"$gte": min, "$lte": max}
	return r.collection.CountDocuments(ctx, query)
}

func (r *leadRepo) TopFactors(ctx context.Context, filter AnalyticsFilter, limit int) ([]model.FactorPerformance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.match()}},
		{{Key: "$unwind", Value: "$score.factors"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$score.factors.name",
			"avgValue": bson.M{"$avg": "$score.factors.value"},
			"count":    bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgValue", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.FactorPerformance
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *leadRepo) CountByField(ctx context.Context, filter AnalyticsFilter, field string) ([]model.GroupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.match()}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.GroupCount
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *leadRepo) ConversionMetrics(ctx context.Context, filter AnalyticsFilter) (*model.ConversionMetrics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.match()}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalLeads": bson.M{"$sum": 1},
			"convertedLeads": bson.M{"$sum": bson.M{"$cond": bson.A{
				"$conversion.isConverted", 1, 0,
			}}},
			"totalValue": bson.M{"$sum": "$conversion.conversionValue"},
			"avgValue":   bson.M{"$avg": "$conversion.conversionValue"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.ConversionMetrics
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &model.ConversionMetrics{}, nil
	}
	m := results[0]
	if m.TotalLeads > 0 {
		m.ConversionRate = int(float64(m.ConvertedLeads) / float64(m.TotalLeads) * 100)
	}
	return &m, nil
}

func (r *leadRepo) TopCampaigns(ctx context.Context, filter AnalyticsFilter, limit int) ([]model.CampaignPerformance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.match()}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$campaignId",
			"leadCount": bson.M{"$sum": 1},
			"avgScore":  bson.M{"$avg": "$score.current"},
			"convertedCount": bson.M{"$sum": bson.M{"$cond": bson.A{
				"$conversion.isConverted", 1, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgScore", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$addFields", Value: bson.M{
			"campaignObjectId": bson.M{"$toObjectId": "$_id"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "campaigns",
			"localField":   "campaignObjectId",
			"foreignField": "_id",
			"as":           "campaign",
		}}},
		{{Key: "$unwind", Value: "$campaign"}},
		{{Key: "$project", Value: bson.M{
			"campaignName":   "$campaign.name",
			"platform":       "$campaign.platform",
			"leadCount":      1,
			"avgScore":       bson.M{"$round": bson.A{"$avgScore", 1}},
			"convertedCount": 1,
			"conversionRate": bson.M{"$round": bson.A{
				bson.M{"$multiply": bson.A{
					bson.M{"$divide": bson.A{"$convertedCount", "$leadCount"}}, 100,
				}}, 1,
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.CampaignPerformance
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *leadRepo) Trend(ctx context.Context, filter AnalyticsFilter, limit int) ([]model.TrendPoint, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.match()}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"count":    bson.M{"$sum": 1},
			"avgScore": bson.M{"$avg": "$score.current"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.TrendPoint
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *leadRepo) Recent(ctx context.Context, filter AnalyticsFilter, limit int) ([]*model.Lead, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter.match(), opts)
}
