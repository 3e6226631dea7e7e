package channel

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunegate/tunegate/connector"
)

func TestRegisteredInDefaultRegistry(t *testing.T) {
	assert.True(t, connector.DefaultRegistry.Has(ConnectorName))

	caps := connector.GetCapabilities(ConnectorName)
	assert.Equal(t, "channel", caps.Name)
	assert.True(t, caps.SupportsOrdering)
	assert.True(t, caps.SupportsAck)
	assert.False(t, caps.Durable)
}

func TestBuild(t *testing.T) {
	t.Run("creates connector with default factory", func(t *testing.T) {
		conn, err := Build(context.Background(), &stubConfig{}, watermill.NopLogger{})

		require.NoError(t, err)
		assert.NotNil(t, conn.Publisher)
		assert.NotNil(t, conn.Subscriber)
	})

	t.Run("uses custom factory", func(t *testing.T) {
		originalFactory := Factory
		defer func() { Factory = originalFactory }()

		mockPub := &mockPublisher{}
		mockSub := &mockSubscriber{}
		Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
			return mockPub, mockSub
		}

		conn, err := Build(context.Background(), &stubConfig{}, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, mockPub, conn.Publisher)
		assert.Equal(t, mockSub, conn.Subscriber)
	})
}

func TestPublishReachesSubscriber(t *testing.T) {
	conn, err := Build(context.Background(), &stubConfig{}, watermill.NopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := conn.Subscriber.Subscribe(ctx, "chat.inbound")
	require.NoError(t, err)

	sent := message.NewMessage("test-id", []byte(`{"from":"bot"}`))
	require.NoError(t, conn.Publisher.Publish("chat.inbound", sent))

	received := <-msgs
	assert.Equal(t, sent.Payload, received.Payload)
	received.Ack()
}

type stubConfig struct{}

func (s *stubConfig) GetChatSystem() string         { return ConnectorName }
func (s *stubConfig) GetNATSURL() string            { return "" }
func (s *stubConfig) GetKafkaBrokers() []string     { return nil }
func (s *stubConfig) GetKafkaConsumerGroup() string { return "" }
func (s *stubConfig) GetRabbitMQURL() string        { return "" }

type mockPublisher struct{}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error                                             { return nil }

type mockSubscriber struct{}

func (m *mockSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return make(chan *message.Message), nil
}
func (m *mockSubscriber) Close() error { return nil }
