package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load builds a Config from TUNEGATE_* environment variables and, when path
// is non-empty, a config file (any format viper understands). File values are
// overridden by the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TUNEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("chat_system", "channel")
	v.SetDefault("bot_peer", DefaultBotPeer)
	v.SetDefault("outbound_topic", DefaultOutboundTopic)
	v.SetDefault("inbound_topic", DefaultInboundTopic)
	v.SetDefault("search_timeout", DefaultSearchTimeout)
	v.SetDefault("max_concurrent_searches", DefaultMaxConcurrentSearches)
	v.SetDefault("sweep_interval", DefaultSweepInterval)
	v.SetDefault("min_query_length", DefaultMinQueryLength)
	v.SetDefault("server_address", DefaultServerAddress)
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_port", 0)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ChatSystem:            v.GetString("chat_system"),
		NATSURL:               v.GetString("nats_url"),
		KafkaBrokers:          v.GetStringSlice("kafka_brokers"),
		KafkaConsumerGroup:    v.GetString("kafka_consumer_group"),
		RabbitMQURL:           v.GetString("rabbitmq_url"),
		BotPeer:               v.GetString("bot_peer"),
		OutboundTopic:         v.GetString("outbound_topic"),
		InboundTopic:          v.GetString("inbound_topic"),
		SearchTimeout:         v.GetDuration("search_timeout"),
		MaxConcurrentSearches: v.GetInt("max_concurrent_searches"),
		SweepInterval:         v.GetDuration("sweep_interval"),
		MinQueryLength:        v.GetInt("min_query_length"),
		NotFoundPatterns:      v.GetStringSlice("not_found_patterns"),
		RetryMaxRetries:       v.GetInt("retry_max_retries"),
		RetryInitialInterval:  v.GetDuration("retry_initial_interval"),
		RetryMaxInterval:      v.GetDuration("retry_max_interval"),
		ServerAddress:         v.GetString("server_address"),
		CORSAllowedOrigins:    v.GetStringSlice("cors_allowed_origins"),
		MetricsEnabled:        v.GetBool("metrics_enabled"),
		MetricsPort:           v.GetInt("metrics_port"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
