// Package jetstream provides a NATS JetStream connector for the bridge.
// Unlike Core NATS it is durable: inbound chat events published while the
// bridge is restarting are redelivered once it comes back.
package jetstream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/tunegate/tunegate/connector"
)

// ConnectorName is the name used to register this connector.
const ConnectorName = "nats-jetstream"

const (
	// DefaultMaxDeliver is the default max delivery attempts.
	DefaultMaxDeliver = 3

	// DefaultAckWait is the default ack wait timeout.
	DefaultAckWait = 30 * time.Second
)

func init() {
	connector.RegisterWithCapabilities(ConnectorName, Build, connector.NATSJetStreamCapabilities)
}

// Build creates a new NATS JetStream connector.
func Build(ctx context.Context, cfg connector.Config, logger watermill.LoggerAdapter) (connector.Connector, error) {
	config := Config{
		URL: cfg.GetNATSURL(),
	}

	c, err := New(config, logger)
	if err != nil {
		return connector.Connector{}, err
	}

	return connector.Connector{
		Publisher:  c,
		Subscriber: c,
	}, nil
}

// Capabilities returns the capabilities of this connector.
func Capabilities() connector.Capabilities {
	return connector.NATSJetStreamCapabilities
}

// Config holds NATS JetStream-specific configuration.
type Config struct {
	// URL is the NATS server URL.
	URL string

	// StreamName is the name of the JetStream stream to use.
	// If empty, defaults to "TUNEGATE".
	StreamName string

	// MaxDeliver is the maximum number of delivery attempts.
	MaxDeliver int

	// AckWait is the duration to wait for acknowledgment.
	AckWait time.Duration

	// Replicas is the number of stream replicas (for clustering).
	Replicas int
}

func (c Config) withDefaults() Config {
	if c.StreamName == "" {
		c.StreamName = "TUNEGATE"
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = DefaultMaxDeliver
	}
	if c.AckWait <= 0 {
		c.AckWait = DefaultAckWait
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	return c
}

// Conn implements Publisher and Subscriber for NATS JetStream.
type Conn struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	config Config
	logger watermill.LoggerAdapter

	subscriptions map[string]*nats.Subscription
	subMu         sync.RWMutex

	closed     bool
	closedMu   sync.RWMutex
	closedChan chan struct{}
}

// New creates a new NATS JetStream connector.
func New(cfg Config, logger watermill.LoggerAdapter) (*Conn, error) {
	cfg = cfg.withDefaults()

	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c := &Conn{
		nc:            nc,
		js:            js,
		config:        cfg,
		logger:        logger,
		subscriptions: make(map[string]*nats.Subscription),
		closedChan:    make(chan struct{}),
	}

	if err := c.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return c, nil
}

func (c *Conn) ensureStream() error {
	streamCfg := &nats.StreamConfig{
		Name:      c.config.StreamName,
		Subjects:  []string{c.config.StreamName + ".>"},
		MaxAge:    24 * time.Hour,
		Replicas:  c.config.Replicas,
		Retention: nats.LimitsPolicy,
	}

	_, err := c.js.AddStream(streamCfg)
	if err != nil {
		_, err = c.js.UpdateStream(streamCfg)
		if err != nil {
			if c.logger != nil {
				c.logger.Info("JetStream stream exists", watermill.LogFields{
					"stream": c.config.StreamName,
				})
			}
		}
	}

	return nil
}

// Publish publishes messages to the JetStream stream.
func (c *Conn) Publish(topic string, messages ...*message.Message) error {
	c.closedMu.RLock()
	if c.closed {
		c.closedMu.RUnlock()
		return fmt.Errorf("connector is closed")
	}
	c.closedMu.RUnlock()

	subject := c.topicToSubject(topic)

	for _, msg := range messages {
		headers := nats.Header{}
		headers.Set("tg_message_uuid", msg.UUID)
		for k, v := range msg.Metadata {
			headers.Set(k, v)
		}

		natsMsg := &nats.Msg{
			Subject: subject,
			Data:    msg.Payload,
			Header:  headers,
		}

		if _, err := c.js.PublishMsg(natsMsg); err != nil {
			return fmt.Errorf("failed to publish to JetStream: %w", err)
		}
	}

	return nil
}

// Subscribe subscribes to a topic and returns a channel of messages.
func (c *Conn) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	c.closedMu.RLock()
	if c.closed {
		c.closedMu.RUnlock()
		return nil, fmt.Errorf("connector is closed")
	}
	c.closedMu.RUnlock()

	subject := c.topicToSubject(topic)
	consumerName := c.topicToConsumer(topic)
	output := make(chan *message.Message)

	consumerCfg := &nats.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: subject,
		AckPolicy:     nats.AckExplicitPolicy,
		MaxDeliver:    c.config.MaxDeliver,
		AckWait:       c.config.AckWait,
		DeliverPolicy: nats.DeliverAllPolicy,
	}

	_, err := c.js.AddConsumer(c.config.StreamName, consumerCfg)
	if err != nil {
		_, err = c.js.UpdateConsumer(c.config.StreamName, consumerCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(subject, consumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	c.subMu.Lock()
	c.subscriptions[topic] = sub
	c.subMu.Unlock()

	go c.fetchMessages(ctx, sub, output, topic)

	return output, nil
}

func (c *Conn) fetchMessages(ctx context.Context, sub *nats.Subscription, output chan<- *message.Message, topic string) {
	defer close(output)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closedChan:
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(time.Second))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			if c.logger != nil {
				c.logger.Error("Failed to fetch messages", err, watermill.LogFields{
					"topic": topic,
				})
			}
			continue
		}

		for _, natsMsg := range msgs {
			wmMsg := c.natsToWatermill(natsMsg)

			select {
			case output <- wmMsg:
				select {
				case <-wmMsg.Acked():
					if err := natsMsg.Ack(); err != nil && c.logger != nil {
						c.logger.Error("Failed to ack", err, nil)
					}
				case <-wmMsg.Nacked():
					if err := natsMsg.Nak(); err != nil && c.logger != nil {
						c.logger.Error("Failed to nak", err, nil)
					}
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// natsToWatermill converts a fetched JetStream message back into a watermill
// message. Chat payloads carry no identifier of their own, so the UUID comes
// from the header set on publish, falling back to a timestamp for messages
// published by a foreign gateway.
func (c *Conn) natsToWatermill(natsMsg *nats.Msg) *message.Message {
	msgID := natsMsg.Header.Get("tg_message_uuid")
	if msgID == "" {
		msgID = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	wmMsg := message.NewMessage(msgID, natsMsg.Data)

	for k, v := range natsMsg.Header {
		if k == "tg_message_uuid" {
			continue
		}
		if len(v) > 0 {
			wmMsg.Metadata.Set(k, v[0])
		}
	}

	return wmMsg
}

func (c *Conn) topicToSubject(topic string) string {
	return c.config.StreamName + "." + topic
}

// topicToConsumer derives a durable consumer name. Durable names may not
// contain dots, which topics like "chat.inbound" do.
func (c *Conn) topicToConsumer(topic string) string {
	return "consumer_" + strings.ReplaceAll(topic, ".", "_")
}

// Close closes the JetStream connector.
func (c *Conn) Close() error {
	c.closedMu.Lock()
	if c.closed {
		c.closedMu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closedChan)
	c.closedMu.Unlock()

	c.subMu.Lock()
	for _, sub := range c.subscriptions {
		sub.Unsubscribe()
	}
	c.subscriptions = make(map[string]*nats.Subscription)
	c.subMu.Unlock()

	c.nc.Close()

	return nil
}

// GetCapabilities returns the JetStream connector capabilities.
func (c *Conn) GetCapabilities() connector.Capabilities {
	return connector.NATSJetStreamCapabilities
}
