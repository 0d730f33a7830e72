package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// SearchActivity is one persisted record per finished search request.
// ContactURN is stored encrypted and ContactKey holds its deterministic
// keyed digest for lookups, see the activity recorder.
type SearchActivity struct {
	ID             primitive.ObjectID     `bson:"_id,omitempty"`
	Query          string                 `bson:"query"`
	PostalCode     string                 `bson:"postal_code,omitempty"`
	RegionID       string                 `bson:"region_id,omitempty"`
	ContactURN     string                 `bson:"contact_urn,omitempty"`
	ContactKey     string                 `bson:"contact_key,omitempty"`
	Status         models.ResultStatus    `bson:"status"`
	ProductCount   int                    `bson:"product_count"`
	FailedStage    string                 `bson:"failed_stage,omitempty"`
	PluginFailures []models.PluginFailure `bson:"plugin_failures,omitempty"`
	CreatedAt      time.Time              `bson:"created_at"`
}

type SearchActivityRepository interface {
	Create(ctx context.Context, activity *SearchActivity) error
	RecentByContact(ctx context.Context, contactKey string, limit int) ([]*SearchActivity, error)
}

type searchActivityRepo struct {
	collection *mongo.Collection
}

func NewSearchActivityRepository(db *DB) SearchActivityRepository {
	return &searchActivityRepo{
		collection: db.Database.Collection("search_activities"),
	}
}

func (r *searchActivityRepo) Create(ctx context.Context, activity *SearchActivity) error {
	activity.ID = primitive.NewObjectID()
	activity.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, activity); err != nil {
		return fmt.Errorf("insert search activity: %w", err)
	}
	return nil
}

func (r *searchActivityRepo) RecentByContact(ctx context.Context, contactKey string, limit int) ([]*SearchActivity, error) {
	filter := bson.M{"contact_key": contactKey}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find search activities: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []*SearchActivity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("decode search activities: %w", err)
	}
	return activities, nil
}
