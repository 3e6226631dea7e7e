// Package connector defines how the bridge reaches the external chat
// network. The process that actually speaks the chat protocol (the gateway)
// relays messages over a broker; a connector is the publisher/subscriber pair
// for that broker. Each implementation (nats, kafka, rabbitmq, ...) lives in
// its own sub-package and registers itself with the connector registry.
package connector

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Connector combines the publisher and subscriber pair produced by a builder.
// The publisher carries outbound search queries to the gateway; the
// subscriber delivers every message the gateway observes in the bot
// conversation.
type Connector struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Builder is the function signature for creating a connector from config.
// Each connector package should provide a Builder function that can be
// registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Connector, error)

// Config provides the configuration values needed by connectors. The
// interface keeps connector packages from depending on the full bridge
// config.
type Config interface {
	// GetChatSystem returns the connector name to build.
	GetChatSystem() string

	// NATS (core and JetStream)
	GetNATSURL() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string
}

// CapabilitiesProvider is implemented by connectors that can report their
// capabilities at runtime.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
