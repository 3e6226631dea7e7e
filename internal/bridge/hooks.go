package bridge

import (
	"time"

	loggingpkg "github.com/tunegate/tunegate/internal/bridge/logging"
)

// SearchContext provides information about a search to hooks.
type SearchContext struct {
	// SearchID is the identifier of the search.
	SearchID string
	// Query is the normalized query text.
	Query string
	// SubmittedAt is when the search was admitted.
	SubmittedAt time.Time
	// Duration is how long the search took (only set on resolution hooks).
	Duration time.Duration
	// Outcome is the terminal state (only set on resolution hooks).
	Outcome OutcomeKind
}

// SearchHooks defines callbacks for search lifecycle events.
// All hooks are optional - nil hooks are simply not called.
type SearchHooks struct {
	// OnSearchStart is called after a search is admitted, before the query
	// is sent to the bot.
	OnSearchStart func(ctx SearchContext)

	// OnSearchResolved is called when a search reaches a track result.
	OnSearchResolved func(ctx SearchContext)

	// OnSearchFailed is called for every other terminal state. err is set
	// only for send failures.
	OnSearchFailed func(ctx SearchContext, err error)
}

// Merge combines two SearchHooks, creating a new SearchHooks that calls both.
// The hooks from 'other' are called after the hooks from 'h'.
func (h SearchHooks) Merge(other SearchHooks) SearchHooks {
	return SearchHooks{
		OnSearchStart:    chainStartHooks(h.OnSearchStart, other.OnSearchStart),
		OnSearchResolved: chainStartHooks(h.OnSearchResolved, other.OnSearchResolved),
		OnSearchFailed:   chainFailHooks(h.OnSearchFailed, other.OnSearchFailed),
	}
}

func chainStartHooks(a, b func(SearchContext)) func(SearchContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SearchContext) {
		a(ctx)
		b(ctx)
	}
}

func chainFailHooks(a, b func(SearchContext, error)) func(SearchContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SearchContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// LoggingHooks returns pre-built hooks that log search lifecycle events.
func LoggingHooks(logger loggingpkg.ServiceLogger) SearchHooks {
	return SearchHooks{
		OnSearchStart: func(ctx SearchContext) {
			logger.Info("Search started", loggingpkg.LogFields{
				"search_id": ctx.SearchID,
				"query":     ctx.Query,
			})
		},
		OnSearchResolved: func(ctx SearchContext) {
			logger.Info("Search resolved", loggingpkg.LogFields{
				"search_id":   ctx.SearchID,
				"query":       ctx.Query,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnSearchFailed: func(ctx SearchContext, err error) {
			fields := loggingpkg.LogFields{
				"search_id":   ctx.SearchID,
				"query":       ctx.Query,
				"outcome":     ctx.Outcome.String(),
				"duration_ms": ctx.Duration.Milliseconds(),
			}
			if err != nil {
				logger.Error("Search failed", err, fields)
				return
			}
			logger.Info("Search unsuccessful", fields)
		},
	}
}
