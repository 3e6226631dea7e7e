package connector

// Capabilities describes the delivery guarantees of a connector backend.
// The bridge itself only needs fire-and-forget delivery, but operators use
// this to understand what a relay deployment can and cannot promise.
type Capabilities struct {
	// SupportsOrdering indicates the broker preserves message ordering.
	// The reply-matching heuristic is only meaningful on ordered relays.
	SupportsOrdering bool

	// SupportsAck indicates the broker supports explicit acknowledgment.
	SupportsAck bool

	// SupportsNack indicates the broker supports negative acknowledgment
	// (redelivery).
	SupportsNack bool

	// SupportsTracing indicates the broker propagates tracing headers.
	SupportsTracing bool

	// Durable indicates messages survive a broker restart, so inbound chat
	// events are not lost while the bridge is down.
	Durable bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited or
	// unknown).
	MaxMessageSize int64

	// Name is the human-readable name of the connector.
	Name string
}

// SupportsReliableDelivery returns true if the connector supports
// at-least-once delivery semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for the built-in connectors.
var (
	// ChannelCapabilities for the in-memory Go channel connector.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	// NATSCapabilities for the NATS Core connector.
	NATSCapabilities = Capabilities{
		Name:            "nats",
		SupportsTracing: true,
		MaxMessageSize:  1048576, // Default 1MB
	}

	// NATSJetStreamCapabilities for the NATS JetStream connector.
	NATSJetStreamCapabilities = Capabilities{
		Name:             "nats-jetstream",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		SupportsTracing:  true,
		Durable:          true,
		MaxMessageSize:   1048576, // Default 1MB
	}

	// RabbitMQCapabilities for the RabbitMQ/AMQP connector.
	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		SupportsTracing:  true,
		Durable:          true,
	}

	// KafkaCapabilities for the Apache Kafka connector.
	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsTracing:  true,
		Durable:          true,
		MaxMessageSize:   1048576, // Default 1MB
	}
)

// GetCapabilities returns the capabilities for a connector by name, using
// the default registry. Returns a zero Capabilities struct if the connector
// is unknown.
func GetCapabilities(name string) Capabilities {
	return DefaultRegistry.GetCapabilities(name)
}
