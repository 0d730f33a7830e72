package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/product-concierge/internal/config"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewConnection(ctx context.Context, conf config.DatabaseConfig) (*DB, error) {
	opts := options.Client().
		SetAppName("product-concierge").
		SetHosts(conf.Hosts).
		SetDirect(conf.Direct).
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second)

	if conf.Username != "" {
		opts.SetAuth(options.Credential{
			AuthSource: conf.AuthDB,
			Username:   conf.Username,
			Password:   conf.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(conf.Database),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}
