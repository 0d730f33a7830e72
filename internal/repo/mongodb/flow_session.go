package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FlowSessionRepository dedups flow triggering per contact. MarkTriggered
// returns true only for the first call with a given flow and contact, so
// a flow configured with trigger-once fires exactly once per session.
type FlowSessionRepository interface {
	MarkTriggered(ctx context.Context, flowUUID, contactURN string) (first bool, err error)
}

type flowSessionRepo struct {
	collection *mongo.Collection
}

func NewFlowSessionRepository(db *DB) FlowSessionRepository {
	return &flowSessionRepo{
		collection: db.Database.Collection("flow_sessions"),
	}
}

func (r *flowSessionRepo) MarkTriggered(ctx context.Context, flowUUID, contactURN string) (bool, error) {
	filter := bson.M{
		"flow_uuid":   flowUUID,
		"contact_urn": contactURN,
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"flow_uuid":    flowUUID,
			"contact_urn":  contactURN,
			"triggered_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert flow session: %w", err)
	}
	return result.UpsertedCount > 0, nil
}
