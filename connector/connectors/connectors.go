// Package connectors imports all built-in connectors for auto-registration.
// Import this package to have all connectors registered with the default
// registry.
package connectors

import (
	// Import all connectors for side-effect registration
	_ "github.com/tunegate/tunegate/connector/channel"
	_ "github.com/tunegate/tunegate/connector/jetstream"
	_ "github.com/tunegate/tunegate/connector/kafka"
	_ "github.com/tunegate/tunegate/connector/nats"
	_ "github.com/tunegate/tunegate/connector/rabbitmq"
)
