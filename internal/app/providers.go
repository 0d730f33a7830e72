package app

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/kafka"
	"github.com/nguyentranbao-ct/product-concierge/internal/plugins/carousel"
	"github.com/nguyentranbao-ct/product-concierge/internal/plugins/conversion"
	"github.com/nguyentranbao-ct/product-concierge/internal/plugins/flowtrigger"
	"github.com/nguyentranbao-ct/product-concierge/internal/plugins/regionalization"
	"github.com/nguyentranbao-ct/product-concierge/internal/plugins/sendmessage"
	"github.com/nguyentranbao-ct/product-concierge/internal/plugins/wholesale"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/vtex"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
	"github.com/nguyentranbao-ct/product-concierge/internal/server"
	"github.com/nguyentranbao-ct/product-concierge/pkg/crypto"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	if !cfg.Database.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return db.Client.Ping(ctx, nil)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})

	return db, nil
}

func newFlowSessionRepository(db *mongodb.DB) mongodb.FlowSessionRepository {
	if db == nil {
		return nil
	}
	return mongodb.NewFlowSessionRepository(db)
}

func newSearchActivityRepository(db *mongodb.DB) mongodb.SearchActivityRepository {
	if db == nil {
		return nil
	}
	return mongodb.NewSearchActivityRepository(db)
}

func newCryptoClient(cfg *config.Config) (crypto.Client, error) {
	if cfg.Database.EncryptionKey == "" {
		return nil, nil
	}
	return crypto.NewClient(cfg.Database.EncryptionKey)
}

func newActivityRecorder(repo mongodb.SearchActivityRepository, cryptoClient crypto.Client) concierge.ActivityRecorder {
	if repo == nil {
		return nil
	}
	return mongodb.NewActivityRecorder(repo, cryptoClient)
}

// newHistoryReader needs both the activity store and the crypto client:
// records written without a crypto client carry no contact key to look
// up by.
func newHistoryReader(repo mongodb.SearchActivityRepository, cryptoClient crypto.Client) server.HistoryReader {
	if repo == nil || cryptoClient == nil {
		return nil
	}
	return mongodb.NewSearchHistory(repo, cryptoClient)
}

// newRegistry assembles the plugin sequence from the config flags.
// Registration order is invocation order: regional scoping first, pricing
// enrichment next, messaging and tracking last.
func newRegistry(cfg *config.Config, weniClient weni.Client, sessions mongodb.FlowSessionRepository) (*concierge.Registry, error) {
	pc := cfg.Plugins
	var plugins []concierge.Plugin

	if pc.Regionalization.Enabled {
		var opts []regionalization.Option
		if pc.Regionalization.SellerRules != "" {
			rules := map[string][]string{}
			if err := json.Unmarshal([]byte(pc.Regionalization.SellerRules), &rules); err != nil {
				return nil, fmt.Errorf("parse regionalization seller rules: %w", err)
			}
			opts = append(opts, regionalization.WithSellerRules(rules))
		}
		plugins = append(plugins, regionalization.New(pc.Regionalization.DefaultSeller, opts...))
	}
	if pc.Wholesale.Enabled {
		plugins = append(plugins, wholesale.New(pc.Wholesale.FixedPriceURL))
	}
	if pc.Carousel.Enabled {
		plugins = append(plugins, carousel.New(weniClient, pc.Carousel))
	}
	if pc.SendMessage.Enabled {
		var opts []sendmessage.Option
		if pc.SendMessage.Template != "" {
			opts = append(opts, sendmessage.WithTemplate(pc.SendMessage.Template))
		}
		p, err := sendmessage.New(weniClient, opts...)
		if err != nil {
			return nil, fmt.Errorf("build sendmessage plugin: %w", err)
		}
		plugins = append(plugins, p)
	}
	if pc.Conversion.Enabled {
		plugins = append(plugins, conversion.New(weniClient, pc.Conversion))
	}
	if pc.FlowTrigger.Enabled {
		plugins = append(plugins, flowtrigger.New(weniClient, sessions, pc.FlowTrigger))
	}

	return concierge.NewRegistry(plugins...)
}

func newStockEvaluator(client vtex.Client) *concierge.StockEvaluator {
	return concierge.NewStockEvaluator(client)
}

func newConcierge(
	cfg *config.Config,
	client vtex.Client,
	stock *concierge.StockEvaluator,
	registry *concierge.Registry,
	recorder concierge.ActivityRecorder,
) *concierge.Concierge {
	c := concierge.New(client, stock, registry, concierge.Options{
		MaxProducts:  cfg.Search.MaxProducts,
		MaxPayloadKB: cfg.Search.MaxPayloadKB,
	})
	if recorder != nil {
		c = c.WithActivityRecorder(recorder)
	}
	return c
}

func newKafkaConsumer(cfg *config.Config, handler kafka.EventHandler) (kafka.Consumer, error) {
	return kafka.NewConsumer(cfg.Kafka, handler)
}

func asHTTPSearcher(c *concierge.Concierge) server.Searcher {
	return c
}

func asProductFinder(client vtex.Client) server.ProductFinder {
	return client
}

func asEventSearcher(c *concierge.Concierge) kafka.Searcher {
	return c
}
