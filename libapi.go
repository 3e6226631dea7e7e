package tunegate

import (
	connectorpkg "github.com/tunegate/tunegate/connector"
	bridgepkg "github.com/tunegate/tunegate/internal/bridge"
	configpkg "github.com/tunegate/tunegate/internal/bridge/config"
	errspkg "github.com/tunegate/tunegate/internal/bridge/errors"
	idspkg "github.com/tunegate/tunegate/internal/bridge/ids"
	jsoncodec "github.com/tunegate/tunegate/internal/bridge/jsoncodec"
	loggingpkg "github.com/tunegate/tunegate/internal/bridge/logging"
	metadatapkg "github.com/tunegate/tunegate/internal/bridge/metadata"
)

type (
	Config       = configpkg.Config
	Engine       = bridgepkg.Engine
	Dependencies = bridgepkg.Dependencies
	API          = bridgepkg.API

	// Search lifecycle
	Outcome        = bridgepkg.Outcome
	OutcomeKind    = bridgepkg.OutcomeKind
	Track          = bridgepkg.Track
	PendingSearch  = bridgepkg.PendingSearch
	PendingTable   = bridgepkg.PendingTable
	SearchResponse = bridgepkg.SearchResponse
	HealthResponse = bridgepkg.HealthResponse
	StatusResponse = bridgepkg.StatusResponse

	// Event classification
	Classifier     = bridgepkg.Classifier
	Classification = bridgepkg.Classification
	EventKind      = bridgepkg.EventKind
	RawEvent       = bridgepkg.RawEvent
	AudioBlock     = bridgepkg.AudioBlock

	// Statistics
	Stats          = bridgepkg.Stats
	StatsSnapshot  = bridgepkg.StatsSnapshot
	LatencyMetrics = bridgepkg.LatencyMetrics

	MiddlewareBuilder      = bridgepkg.MiddlewareBuilder
	MiddlewareRegistration = bridgepkg.MiddlewareRegistration
	RetryMiddlewareConfig  = bridgepkg.RetryMiddlewareConfig

	// Search lifecycle hooks
	SearchContext = bridgepkg.SearchContext
	SearchHooks   = bridgepkg.SearchHooks

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	SendError = errspkg.SendError

	// Connector types
	Connector         = connectorpkg.Connector
	ConnectorBuilder  = connectorpkg.Builder
	ConnectorConfig   = connectorpkg.Config
	ConnectorRegistry = connectorpkg.Registry
	Capabilities      = connectorpkg.Capabilities
)

const (
	OutcomeUnresolved = bridgepkg.OutcomeUnresolved
	OutcomeResolved   = bridgepkg.OutcomeResolved
	OutcomeNotFound   = bridgepkg.OutcomeNotFound
	OutcomeExpired    = bridgepkg.OutcomeExpired
	OutcomeSendFailed = bridgepkg.OutcomeSendFailed

	EventUnrelated = bridgepkg.EventUnrelated
	EventResult    = bridgepkg.EventResult
	EventNegative  = bridgepkg.EventNegative
)

var (
	New            = bridgepkg.New
	NewAPI         = bridgepkg.NewAPI
	LoadConfig     = configpkg.Load
	ValidateConfig = configpkg.ValidateConfig

	NewClassifier   = bridgepkg.NewClassifier
	NewPendingTable = bridgepkg.NewPendingTable
	NewStats        = bridgepkg.NewStats

	DefaultMiddlewares      = bridgepkg.DefaultMiddlewares
	CorrelationIDMiddleware = bridgepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = bridgepkg.LogMessagesMiddleware
	TracerMiddleware        = bridgepkg.TracerMiddleware
	MetricsMiddleware       = bridgepkg.MetricsMiddleware
	RetryMiddleware         = bridgepkg.RetryMiddleware
	RecovererMiddleware     = bridgepkg.RecovererMiddleware

	// Search lifecycle hooks
	LoggingHooks = bridgepkg.LoggingHooks

	// Connector registry
	// Import individual connectors via: _ "github.com/tunegate/tunegate/connector/nats"
	// or pull in all of them with the connector/connectors package.
	DefaultConnectorRegistry = connectorpkg.DefaultRegistry
	RegisterConnector        = connectorpkg.Register
	BuildConnector           = connectorpkg.Build
	GetCapabilities          = connectorpkg.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrCapacityExceeded = errspkg.ErrCapacityExceeded
	ErrQueryRequired    = errspkg.ErrQueryRequired
	ErrQueryTooShort    = errspkg.ErrQueryTooShort
	ErrEngineRequired   = errspkg.ErrEngineRequired
	ErrLoggerRequired   = errspkg.ErrLoggerRequired
	ErrConfigRequired   = errspkg.ErrConfigRequired

	CreateULID = idspkg.New

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewWatermillAdapter       = loggingpkg.NewWatermillAdapter

	DefaultNotFoundPatterns = bridgepkg.DefaultNotFoundPatterns
)

// Default tuning values re-exported for callers that build configs by hand.
const (
	DefaultSearchTimeout         = configpkg.DefaultSearchTimeout
	DefaultMaxConcurrentSearches = configpkg.DefaultMaxConcurrentSearches
	DefaultSweepInterval         = configpkg.DefaultSweepInterval
	DefaultMinQueryLength        = configpkg.DefaultMinQueryLength
	DefaultBotPeer               = configpkg.DefaultBotPeer
	DefaultOutboundTopic         = configpkg.DefaultOutboundTopic
	DefaultInboundTopic          = configpkg.DefaultInboundTopic
)
