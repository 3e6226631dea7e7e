package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunegate/tunegate/connector"
	"github.com/tunegate/tunegate/internal/bridge/jsoncodec"
)

func postSearch(t *testing.T, handler http.Handler, body string) (*httptest.ResponseRecorder, SearchResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp SearchResponse
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestSearchEndpointSuccess(t *testing.T) {
	conf := testConfig()
	e, pubSub := startEngine(t, conf, Dependencies{})
	runFakeBot(t, pubSub, conf, thunderPayload())
	handler := NewAPI(e, newRecordingLogger()).Router()

	rec, resp := postSearch(t, handler, `{"query":"Imagine Dragons Thunder"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Thunder", resp.Title)
	assert.Equal(t, "Imagine Dragons", resp.Artist)
	assert.Equal(t, "tg_audio_42", resp.AudioURL)
	assert.Equal(t, 187, resp.Duration)
}

func TestSearchEndpointNotFound(t *testing.T) {
	conf := testConfig()
	e, pubSub := startEngine(t, conf, Dependencies{})
	runFakeBot(t, pubSub, conf, []byte(`{"from":"@vkmusbot","text":"no results"}`))
	handler := NewAPI(e, newRecordingLogger()).Router()

	rec, resp := postSearch(t, handler, `{"query":"nothing real"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "No music found for the given query", resp.Error)
}

func TestSearchEndpointTimeout(t *testing.T) {
	conf := testConfig()
	conf.SearchTimeout = 50 * time.Millisecond
	e, _ := startEngine(t, conf, Dependencies{})
	handler := NewAPI(e, newRecordingLogger()).Router()

	rec, resp := postSearch(t, handler, `{"query":"silent bot"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Search timed out, no response from music bot", resp.Error)
}

func TestSearchEndpointValidation(t *testing.T) {
	conf := testConfig()
	e, _ := startEngine(t, conf, Dependencies{})
	handler := NewAPI(e, newRecordingLogger()).Router()

	t.Run("missing query", func(t *testing.T) {
		rec, resp := postSearch(t, handler, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Query parameter is required", resp.Error)
	})

	t.Run("whitespace query", func(t *testing.T) {
		rec, resp := postSearch(t, handler, `{"query":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Query parameter is required", resp.Error)
	})

	t.Run("too short", func(t *testing.T) {
		rec, resp := postSearch(t, handler, `{"query":"a"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Query must be at least 2 characters long", resp.Error)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec, resp := postSearch(t, handler, `{"query":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid JSON body", resp.Error)
	})
}

func TestSearchEndpointCapacity(t *testing.T) {
	conf := testConfig()
	conf.MaxConcurrentSearches = 1
	conf.SearchTimeout = time.Second
	e, _ := startEngine(t, conf, Dependencies{})
	handler := NewAPI(e, newRecordingLogger()).Router()

	go e.Submit(context.Background(), "occupies the slot")
	require.Eventually(t, func() bool { return e.PendingCount() == 1 },
		time.Second, 5*time.Millisecond)

	rec, resp := postSearch(t, handler, `{"query":"rejected"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Too many concurrent searches")
}

func TestSearchEndpointSendFailure(t *testing.T) {
	conf := testConfig()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	e, _ := startEngine(t, conf, Dependencies{
		Connector: &connector.Connector{Publisher: &failingPublisher{}, Subscriber: pubSub},
	})
	handler := NewAPI(e, newRecordingLogger()).Router()

	rec, resp := postSearch(t, handler, `{"query":"doomed"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to reach the music bot", resp.Error)
}

func TestHealthEndpoint(t *testing.T) {
	conf := testConfig()
	e, _ := startEngine(t, conf, Dependencies{})
	handler := NewAPI(e, newRecordingLogger()).Router()

	require.Eventually(t, e.Connected, time.Second, 5*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.Connected)
	assert.Greater(t, resp.Timestamp, 0.0)
}

func TestStatusEndpoint(t *testing.T) {
	conf := testConfig()
	e, pubSub := startEngine(t, conf, Dependencies{})
	runFakeBot(t, pubSub, conf, thunderPayload())
	handler := NewAPI(e, newRecordingLogger()).Router()

	_, err := e.Submit(context.Background(), "some track")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.Stats.SearchesPerformed)
	assert.Equal(t, uint64(1), resp.Stats.SuccessfulSearches)
	assert.NotEmpty(t, resp.Stats.UptimeFormatted)
}

func TestCORSHeaders(t *testing.T) {
	conf := testConfig()
	conf.CORSAllowedOrigins = []string{"https://player.example.com"}
	e, _ := startEngine(t, conf, Dependencies{})
	handler := NewAPI(e, newRecordingLogger()).Router()

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/search", nil)
		req.Header.Set("Origin", "https://player.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://player.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/search", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		assert.Equal(t, "*", allowedCORSOrigin([]string{"*"}, "https://anyone.example.com"))
	})
}
