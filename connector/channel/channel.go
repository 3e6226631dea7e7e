// Package channel provides an in-memory Go channel connector. It is the
// default for tests and local development: the fake gateway and the bridge
// share the same process, so the publisher and subscriber are one gochannel
// pub/sub.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tunegate/tunegate/connector"
)

// ConnectorName is the name used to register this connector.
const ConnectorName = "channel"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

func init() {
	connector.RegisterWithCapabilities(ConnectorName, Build, connector.ChannelCapabilities)
}

// Build creates a new Go channel connector.
func Build(ctx context.Context, cfg connector.Config, logger watermill.LoggerAdapter) (connector.Connector, error) {
	pub, sub := Factory(gochannel.Config{}, logger)
	return connector.Connector{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}

// Capabilities returns the capabilities of this connector.
func Capabilities() connector.Capabilities {
	return connector.ChannelCapabilities
}
