package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	VTEX     VTEXConfig     `envPrefix:"VTEX_"`
	Weni     WeniConfig     `envPrefix:"WENI_"`
	Search   SearchConfig   `envPrefix:"SEARCH_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Plugins  PluginConfig   `envPrefix:"PLUGIN_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// CORSOriginPattern is a regexp of allowed origins; empty disables CORS.
	CORSOriginPattern string `env:"CORS_ORIGIN_PATTERN"`
}

type DatabaseConfig struct {
	Enabled  bool     `env:"ENABLED" envDefault:"false"`
	Hosts    []string `env:"HOSTS" envDefault:"localhost:27017"`
	Direct   bool     `env:"DIRECT" envDefault:"true"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	AuthDB   string   `env:"AUTH_DB" envDefault:"admin"`
	Database string   `env:"DATABASE" envDefault:"concierge"`

	// EncryptionKey protects contact URNs stored in the activity log.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
}

type VTEXConfig struct {
	BaseURL  string `env:"BASE_URL,required"`
	StoreURL string `env:"STORE_URL,required"`
	AppKey   string `env:"APP_KEY"`
	AppToken string `env:"APP_TOKEN"`
}

type WeniConfig struct {
	Token         string `env:"TOKEN"`
	JWTToken      string `env:"JWT_TOKEN"`
	BroadcastURL  string `env:"BROADCAST_URL" envDefault:"https://flows.weni.ai/api/v2/whatsapp_broadcasts.json"`
	InternalURL   string `env:"INTERNAL_URL" envDefault:"https://flows.weni.ai/api/v2/internals/whatsapp_broadcasts"`
	FlowStartURL  string `env:"FLOW_START_URL" envDefault:"https://flows.weni.ai/api/v2/flow_starts.json"`
	ConversionURL string `env:"CONVERSION_URL" envDefault:"https://flows.weni.ai/api/v2/conversions.json"`
}

type SearchConfig struct {
	MaxProducts   int    `env:"MAX_PRODUCTS" envDefault:"20"`
	MaxVariations int    `env:"MAX_VARIATIONS" envDefault:"5"`
	MaxPayloadKB  int    `env:"MAX_PAYLOAD_KB" envDefault:"20"`
	UTMSource     string `env:"UTM_SOURCE"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"product-search-requests"`
	GroupID string   `env:"GROUP_ID" envDefault:"product-concierge"`
}

type PluginConfig struct {
	Regionalization RegionalizationConfig `envPrefix:"REGIONALIZATION_"`
	Wholesale       WholesaleConfig       `envPrefix:"WHOLESALE_"`
	Carousel        CarouselConfig        `envPrefix:"CAROUSEL_"`
	SendMessage     SendMessageConfig     `envPrefix:"SEND_MESSAGE_"`
	Conversion      ConversionConfig      `envPrefix:"CONVERSION_"`
	FlowTrigger     FlowTriggerConfig     `envPrefix:"FLOW_TRIGGER_"`
}

type RegionalizationConfig struct {
	Enabled       bool   `env:"ENABLED" envDefault:"false"`
	DefaultSeller string `env:"DEFAULT_SELLER" envDefault:"1"`

	// SellerRules restricts the region's sellers per delivery type, JSON
	// encoded, e.g. {"pickup":["store1000"],"delivery":["store1003"]}.
	SellerRules string `env:"SELLER_RULES"`
}

type WholesaleConfig struct {
	Enabled       bool   `env:"ENABLED" envDefault:"false"`
	FixedPriceURL string `env:"FIXED_PRICE_URL"`
}

type CarouselConfig struct {
	Enabled  bool `env:"ENABLED" envDefault:"false"`
	AutoSend bool `env:"AUTO_SEND" envDefault:"false"`
	MaxItems int  `env:"MAX_ITEMS" envDefault:"10"`
}

type SendMessageConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// Template overrides the built-in summary text when set.
	Template string `env:"TEMPLATE"`
}

type ConversionConfig struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	EventType string `env:"EVENT_TYPE" envDefault:"lead"`
}

type FlowTriggerConfig struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	FlowUUID    string `env:"FLOW_UUID"`
	TriggerOnce bool   `env:"TRIGGER_ONCE" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
