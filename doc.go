// Package tunegate bridges HTTP music search requests to a chat music bot.
// A caller posts a query to the HTTP front door; the engine relays it as a
// chat message to the bot through a broker-backed connector (Go channels,
// NATS, NATS JetStream, RabbitMQ, or Kafka), then correlates the bot's
// unordered replies back to the pending searches and answers the caller with
// a track, a "nothing found" result, or a timeout.
//
// The bot never echoes queries, so correlation is heuristic: an inbound
// result is attributed to the most recently submitted pending search. The
// MaxConcurrentSearches ceiling bounds how many searches can be mismatched
// this way; a ceiling of 1 serializes searches and makes matching exact.
// Every search resolves exactly once - the first of caller timeout, bot
// reply, or background sweep wins, and the others are no-ops.
//
// A minimal setup fills Config, creates an Engine with New, and runs the
// engine and the HTTP API until shutdown:
//
//	conf := tunegate.Config{ChatSystem: "nats", NATSURL: "nats://localhost:4222"}.Normalize()
//	logger := tunegate.NewSlogServiceLogger(slog.Default())
//	engine := tunegate.New(&conf, logger, ctx, tunegate.Dependencies{})
//	go engine.Start(ctx)
//	tunegate.NewAPI(engine, logger).Serve(ctx)
//
// Connectors register themselves on import; pull in all built-ins with
//
//	import _ "github.com/tunegate/tunegate/connector/connectors"
//
// or import individual connector packages to keep the binary small.
package tunegate
