package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transports accepted by EVENTS_TRANSPORT.
const (
	TransportKafka = "kafka"
	TransportAMQP  = "amqp"
	TransportNone  = "none"
)

type Config struct {
	LogLevel string
	APIPort  int

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheKeyPrefix  string
	CacheDefaultTTL time.Duration

	DbURL string

	ConfigServiceURL  string
	StakingMainnetURL string
	StakingTestnetURL string
	HTTPClientTimeout time.Duration

	EventsTransport   string
	EventsConcurrency int
	EventTimeout      time.Duration

	KafkaBroker             string
	KafkaEventsTopic        string
	KafkaGroupID            string
	KafkaNotificationsTopic string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Load merges an optional .env file, environment variables and flags into
// Config. Flag names are the kebab-case form of the environment keys.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("api-port", 8080)
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-db", 0)
	v.SetDefault("cache-key-prefix", "gateway")
	v.SetDefault("cache-default-ttl", time.Hour)
	v.SetDefault("http-client-timeout", 10*time.Second)
	v.SetDefault("events-transport", TransportKafka)
	v.SetDefault("events-concurrency", 8)
	v.SetDefault("event-timeout", 30*time.Second)
	v.SetDefault("kafka-broker", "localhost:9092")
	v.SetDefault("kafka-events-topic", "safe-events")
	v.SetDefault("kafka-group-id", "gateway-events")
	v.SetDefault("kafka-notifications-topic", "push-notifications")
	v.SetDefault("amqp-exchange", "safe-transaction-service-events")
	v.SetDefault("amqp-queue", "gateway-events")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := &Config{
		LogLevel:                v.GetString("log-level"),
		APIPort:                 v.GetInt("api-port"),
		RedisAddr:               v.GetString("redis-addr"),
		RedisPassword:           v.GetString("redis-password"),
		RedisDB:                 v.GetInt("redis-db"),
		CacheKeyPrefix:          v.GetString("cache-key-prefix"),
		CacheDefaultTTL:         v.GetDuration("cache-default-ttl"),
		DbURL:                   v.GetString("db-url"),
		ConfigServiceURL:        v.GetString("config-service-url"),
		StakingMainnetURL:       v.GetString("staking-mainnet-url"),
		StakingTestnetURL:       v.GetString("staking-testnet-url"),
		HTTPClientTimeout:       v.GetDuration("http-client-timeout"),
		EventsTransport:         strings.ToLower(v.GetString("events-transport")),
		EventsConcurrency:       v.GetInt("events-concurrency"),
		EventTimeout:            v.GetDuration("event-timeout"),
		KafkaBroker:             v.GetString("kafka-broker"),
		KafkaEventsTopic:        v.GetString("kafka-events-topic"),
		KafkaGroupID:            v.GetString("kafka-group-id"),
		KafkaNotificationsTopic: v.GetString("kafka-notifications-topic"),
		AMQPURL:                 v.GetString("amqp-url"),
		AMQPExchange:            v.GetString("amqp-exchange"),
		AMQPQueue:               v.GetString("amqp-queue"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every deployment needs.
func (c *Config) Validate() error {
	if c.DbURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.ConfigServiceURL == "" {
		return fmt.Errorf("CONFIG_SERVICE_URL is required")
	}
	if c.EventsConcurrency < 1 {
		return fmt.Errorf("EVENTS_CONCURRENCY must be positive, got %d", c.EventsConcurrency)
	}

	switch c.EventsTransport {
	case TransportKafka, TransportNone:
	case TransportAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required for the amqp transport")
		}
	default:
		return fmt.Errorf("unknown EVENTS_TRANSPORT %q", c.EventsTransport)
	}
	return nil
}
