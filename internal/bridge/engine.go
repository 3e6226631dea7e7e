package bridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tunegate/tunegate/connector"
	configpkg "github.com/tunegate/tunegate/internal/bridge/config"
	bridgeerrors "github.com/tunegate/tunegate/internal/bridge/errors"
	idspkg "github.com/tunegate/tunegate/internal/bridge/ids"
	loggingpkg "github.com/tunegate/tunegate/internal/bridge/logging"
	metadatapkg "github.com/tunegate/tunegate/internal/bridge/metadata"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// Dependencies holds the optional collaborators the Engine can use.
// Leave fields nil to use the defaults.
type Dependencies struct {
	// Connector overrides connector construction entirely. When set, the
	// registry is not consulted.
	Connector *connector.Connector

	// Registry resolves the configured chat system to a connector. Defaults
	// to connector.DefaultRegistry.
	Registry *connector.Registry

	// Middlewares are appended after the default middleware chain.
	Middlewares []MiddlewareRegistration

	// DisableDefaultMiddlewares skips registering the default middleware
	// chain when true.
	DisableDefaultMiddlewares bool

	// Hooks observe the search lifecycle.
	Hooks SearchHooks

	// Registerer receives the engine's Prometheus collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Engine owns the full search lifecycle: admission, the outbound query to
// the music bot, correlation of inbound events back to pending searches, and
// expiry. One engine instance serves all HTTP callers.
//
// Correlation is heuristic. The bot does not echo queries, so an inbound
// result is attributed to the most recently submitted pending search. With
// MaxConcurrentSearches above 1 and overlapping searches this can pair a
// reply with the wrong query; run with a ceiling of 1 when that matters more
// than throughput.
type Engine struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	classifier *Classifier
	pending    *PendingTable
	stats      *Stats
	metrics    *engineMetrics
	hooks      SearchHooks

	promRegisterer prometheus.Registerer

	connected atomic.Bool

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
}

// New constructs an Engine for the supplied configuration. Call Start before
// submitting searches.
func New(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps Dependencies) *Engine {
	if conf == nil {
		panic(bridgeerrors.ErrConfigRequired)
	}
	if log == nil {
		panic(bridgeerrors.ErrLoggerRequired)
	}

	normalized := conf.Normalize()
	conf = &normalized

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating bridge engine",
		loggingpkg.LogFields{
			"chat_system": conf.ChatSystem,
			"config":      conf,
		})

	e := &Engine{
		Conf:           conf,
		Logger:         log,
		classifier:     NewClassifier(conf.BotPeer, conf.NotFoundPatterns...),
		pending:        NewPendingTable(conf.MaxConcurrentSearches),
		stats:          NewStats(),
		hooks:          deps.Hooks,
		promRegisterer: deps.Registerer,
	}

	if deps.Connector != nil {
		e.publisher = deps.Connector.Publisher
		e.subscriber = deps.Connector.Subscriber
	} else {
		registry := deps.Registry
		if registry == nil {
			registry = connector.DefaultRegistry
		}
		conn, err := registry.Build(ctx, conf, wmLogger)
		if err != nil {
			panic(err)
		}
		e.publisher = conn.Publisher
		e.subscriber = conn.Subscriber
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		panic(err)
	}

	e.router = router
	e.router.AddPlugin(plugin.SignalsHandler)

	e.registerConfiguredMiddlewares(deps)

	e.router.AddNoPublisherHandler(
		"inbound_chat_events",
		conf.InboundTopic,
		e.subscriber,
		e.handleInbound,
	)

	if conf.MetricsEnabled {
		e.metrics = newEngineMetrics(e.registerer(), func() float64 {
			return float64(e.pending.Count())
		})
	}

	return e
}

func (e *Engine) registerConfiguredMiddlewares(deps Dependencies) {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := e.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			panic(fmt.Sprintf("failed to register middleware %s: %v", name, err))
		}
	}
}

// Start runs the inbound consumer and the expiry sweep until the provided
// context is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.startHTTPServers()

	go e.sweepLoop(ctx)
	go func() {
		<-e.router.Running()
		e.connected.Store(true)
	}()
	defer e.connected.Store(false)

	return routerRun(e.router, ctx)
}

// Connected reports whether the inbound consumer is running.
func (e *Engine) Connected() bool {
	return e.connected.Load()
}

// Stats returns a snapshot of the search counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}

// PendingCount returns the number of in-flight searches.
func (e *Engine) PendingCount() int {
	return e.pending.Count()
}

// Submit sends a search query to the music bot and blocks until a terminal
// outcome: a track, a negative reply, expiry, or a send failure. The
// returned error is non-nil only when the search never ran (validation,
// capacity) or the outbound send failed.
func (e *Engine) Submit(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{}, bridgeerrors.ErrQueryRequired
	}
	if len([]rune(query)) < e.Conf.MinQueryLength {
		return Outcome{}, bridgeerrors.ErrQueryTooShort
	}

	e.stats.RecordSubmitted()

	id := idspkg.New()
	ps, err := e.pending.Admit(id, query, e.Conf.SearchTimeout)
	if err != nil {
		e.Logger.Info("Search rejected at capacity", loggingpkg.LogFields{
			"query":   query,
			"pending": e.pending.Count(),
		})
		return Outcome{}, err
	}

	if e.hooks.OnSearchStart != nil {
		e.hooks.OnSearchStart(SearchContext{
			SearchID:    ps.ID,
			Query:       ps.Query,
			SubmittedAt: ps.SubmittedAt,
		})
	}

	msg := message.NewMessage(id, []byte(query))
	headers := metadatapkg.New(
		metadatapkg.KeyCorrelationID, id,
		metadatapkg.KeySearchID, id,
		metadatapkg.KeyQuery, query,
	)
	for k, v := range headers {
		msg.Metadata.Set(k, v)
	}

	if err := e.publisher.Publish(e.Conf.OutboundTopic, msg); err != nil {
		sendErr := &bridgeerrors.SendError{Query: query, Err: err}
		ps.resolve(Outcome{Kind: OutcomeSendFailed, Err: sendErr})
		e.pending.Remove(id)
		e.finalize(ps, ps.Outcome())
		return ps.Outcome(), sendErr
	}

	e.Logger.Debug("Sent search query to music bot", loggingpkg.LogFields{
		"search_id": id,
		"query":     query,
	})

	outcome := e.pending.Await(ctx, ps)
	e.pending.Remove(id)
	e.finalize(ps, outcome)

	return outcome, nil
}

// finalize records the terminal state of an admitted search exactly once:
// stats, metrics, and hooks all fire here regardless of which writer won.
func (e *Engine) finalize(ps *PendingSearch, outcome Outcome) {
	duration := time.Since(ps.SubmittedAt)
	e.stats.RecordOutcome(outcome.Kind, duration)
	e.metrics.recordOutcome(outcome.Kind)

	sctx := SearchContext{
		SearchID:    ps.ID,
		Query:       ps.Query,
		SubmittedAt: ps.SubmittedAt,
		Duration:    duration,
		Outcome:     outcome.Kind,
	}

	if outcome.Kind == OutcomeResolved {
		if e.hooks.OnSearchResolved != nil {
			e.hooks.OnSearchResolved(sctx)
		}
		return
	}
	if e.hooks.OnSearchFailed != nil {
		e.hooks.OnSearchFailed(sctx, outcome.Err)
	}
}

// handleInbound consumes one relayed chat event. It never returns an error:
// an event that cannot be classified or matched is logged and dropped, so a
// noisy bot conversation cannot wedge the consumer in a retry loop.
func (e *Engine) handleInbound(msg *message.Message) error {
	classification := e.classifier.Classify(msg.Payload)

	switch classification.Kind {
	case EventResult:
		resolved := e.pending.ResolveLatest(Outcome{
			Kind:  OutcomeResolved,
			Track: classification.Track,
		})
		if resolved == nil {
			e.Logger.Debug("Result event with no pending search", loggingpkg.LogFields{
				"message_uuid": msg.UUID,
				"title":        classification.Track.Title,
			})
			return nil
		}
		e.Logger.Info("Matched audio result", loggingpkg.LogFields{
			"search_id": resolved.ID,
			"query":     resolved.Query,
			"title":     classification.Track.Title,
			"artist":    classification.Track.Artist,
		})

	case EventNegative:
		resolved := e.pending.ResolveLatest(Outcome{Kind: OutcomeNotFound})
		if resolved == nil {
			e.Logger.Debug("Negative signal with no pending search", loggingpkg.LogFields{
				"message_uuid": msg.UUID,
			})
			return nil
		}
		e.Logger.Info("No results for search", loggingpkg.LogFields{
			"search_id": resolved.ID,
			"query":     resolved.Query,
		})

	default:
		e.Logger.Trace("Dropping unrelated event", loggingpkg.LogFields{
			"message_uuid": msg.UUID,
		})
	}

	return nil
}

// sweepLoop expires overdue searches in the background. Awaiting callers
// normally expire their own search; the sweep catches entries whose caller
// disappeared.
func (e *Engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(e.Conf.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ps := range e.pending.SweepExpired() {
				e.Logger.Info("Expired search", loggingpkg.LogFields{
					"search_id": ps.ID,
					"query":     ps.Query,
				})
			}
		}
	}
}

// RegisterHTTPHandler mounts an extra handler on the auxiliary HTTP server
// for the given port. Used by the metrics middleware.
func (e *Engine) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	if e.httpServers == nil {
		e.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := e.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		e.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (e *Engine) startHTTPServers() {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	for port, mux := range e.httpServers {
		addr := fmt.Sprintf(":%d", port)
		e.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				e.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
