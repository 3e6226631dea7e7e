package bridge

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	bridgeerrors "github.com/tunegate/tunegate/internal/bridge/errors"
	"github.com/tunegate/tunegate/internal/bridge/jsoncodec"
	loggingpkg "github.com/tunegate/tunegate/internal/bridge/logging"
)

// API is the HTTP front door of the bridge: a search endpoint for callers
// plus health and status probes.
type API struct {
	engine *Engine
	logger loggingpkg.ServiceLogger
}

// NewAPI creates the HTTP front door for an engine.
func NewAPI(engine *Engine, logger loggingpkg.ServiceLogger) *API {
	if engine == nil {
		panic(bridgeerrors.ErrEngineRequired)
	}
	if logger == nil {
		panic(bridgeerrors.ErrLoggerRequired)
	}
	return &API{
		engine: engine,
		logger: logger,
	}
}

// searchRequest is the JSON body accepted by the search endpoint.
type searchRequest struct {
	Query string `json:"query"`
}

// Router builds the route tree.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(a.corsMiddleware)

	r.Post("/search", a.handleSearch)
	r.Get("/health", a.handleHealth)
	r.Get("/status", a.handleStatus)

	return r
}

// Serve runs the front door until ctx is cancelled, then shuts down
// gracefully.
func (a *API) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.engine.Conf.ServerAddress,
		Handler: a.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting bridge server", loggingpkg.LogFields{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := jsoncodec.Decode(r.Body, &req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, SearchResponse{
			Success: false,
			Error:   "Invalid JSON body",
		})
		return
	}

	outcome, err := a.engine.Submit(r.Context(), req.Query)
	if err != nil {
		a.writeSubmitError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, searchOutcomeResponse(outcome))
}

// writeSubmitError maps engine errors onto HTTP statuses. Validation is the
// caller's fault (400), capacity is back-pressure (429), and a send failure
// means the broker or gateway is down (502). A bot that answers "nothing
// found" or stays silent is not an HTTP error; those arrive as outcomes.
func (a *API) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bridgeerrors.ErrQueryRequired):
		a.writeJSON(w, http.StatusBadRequest, SearchResponse{
			Success: false,
			Error:   "Query parameter is required",
		})
	case errors.Is(err, bridgeerrors.ErrQueryTooShort):
		a.writeJSON(w, http.StatusBadRequest, SearchResponse{
			Success: false,
			Error:   "Query must be at least 2 characters long",
		})
	case errors.Is(err, bridgeerrors.ErrCapacityExceeded):
		a.writeJSON(w, http.StatusTooManyRequests, SearchResponse{
			Success: false,
			Error:   "Too many concurrent searches, try again later",
		})
	default:
		var sendErr *bridgeerrors.SendError
		if errors.As(err, &sendErr) {
			a.writeJSON(w, http.StatusBadGateway, SearchResponse{
				Success: false,
				Error:   "Failed to reach the music bot",
			})
			return
		}
		a.logger.Error("Search failed", err, nil)
		a.writeJSON(w, http.StatusInternalServerError, SearchResponse{
			Success: false,
			Error:   "Internal server error",
		})
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := a.engine.Connected()
	status := "healthy"
	if !connected {
		status = "degraded"
	}

	a.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Connected: connected,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, StatusResponse{
		Connected: a.engine.Connected(),
		Stats:     a.engine.Stats(),
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsoncodec.Encode(w, body); err != nil {
		a.logger.Error("Failed to encode response", err, nil)
	}
}

// corsMiddleware sets CORS headers based on configuration and answers
// preflight requests.
func (a *API) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origins := a.engine.Conf.CORSAllowedOrigins; len(origins) > 0 {
			if allowed := allowedCORSOrigin(origins, r.Header.Get("Origin")); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowedCORSOrigin checks if the request origin is allowed and returns the
// appropriate Access-Control-Allow-Origin value.
func allowedCORSOrigin(allowedOrigins []string, requestOrigin string) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
