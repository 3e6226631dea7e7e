package bridge

import (
	"fmt"
	"time"
)

// RawEvent is an inbound chat event as relayed by the gateway. Only a subset
// of the gateway's fields matter to the bridge; unknown fields are ignored.
type RawEvent struct {
	// From is the chat identity that produced the event (e.g. "@vkmusbot").
	From string `json:"from"`

	// Text is the plain-text body, if any.
	Text string `json:"text,omitempty"`

	// Audio is the attached audio block, if any.
	Audio *AudioBlock `json:"audio,omitempty"`

	// MessageID is the gateway-side message identifier.
	MessageID int64 `json:"message_id,omitempty"`
}

// AudioBlock describes an audio attachment on an inbound event.
type AudioBlock struct {
	Title     string `json:"title,omitempty"`
	Performer string `json:"performer,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Size      int64  `json:"size,omitempty"`
	FileRef   string `json:"file_ref,omitempty"`
}

// Track is the normalized search result handed back to callers.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"`
	FileSize int64  `json:"file_size"`
	AudioRef string `json:"audio_url"`
}

// EventKind classifies an inbound event.
type EventKind int

const (
	// EventUnrelated means the event is not addressed to the bridge or
	// carries nothing actionable. It is dropped.
	EventUnrelated EventKind = iota

	// EventResult means the event carries an audio result.
	EventResult

	// EventNegative means the event is a textual "nothing found" signal.
	EventNegative
)

func (k EventKind) String() string {
	switch k {
	case EventResult:
		return "result"
	case EventNegative:
		return "negative"
	default:
		return "unrelated"
	}
}

// Classification is the outcome of classifying a single inbound event.
// Track is set only for EventResult.
type Classification struct {
	Kind  EventKind
	Track *Track
}

// OutcomeKind is the terminal state of a search.
type OutcomeKind int

const (
	// OutcomeUnresolved means the search has not reached a terminal state.
	OutcomeUnresolved OutcomeKind = iota

	// OutcomeResolved means a track was matched to the search.
	OutcomeResolved

	// OutcomeNotFound means the bot replied with a negative signal.
	OutcomeNotFound

	// OutcomeExpired means no reply arrived within the deadline.
	OutcomeExpired

	// OutcomeSendFailed means the outbound query could not be delivered.
	OutcomeSendFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return "resolved"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeSendFailed:
		return "send_failed"
	default:
		return "unresolved"
	}
}

// Terminal reports whether the kind is a terminal state.
func (k OutcomeKind) Terminal() bool {
	return k != OutcomeUnresolved
}

// Outcome is the final result of a search. Track is set only for
// OutcomeResolved; Err is set only for OutcomeSendFailed.
type Outcome struct {
	Kind  OutcomeKind
	Track *Track
	Err   error
}

// SearchResponse is the JSON body returned by the HTTP search endpoint.
type SearchResponse struct {
	Success  bool   `json:"success"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Duration int    `json:"duration,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is the JSON body returned by the health endpoint.
type HealthResponse struct {
	Status    string  `json:"status"`
	Connected bool    `json:"chat_connected"`
	Timestamp float64 `json:"timestamp"`
}

// StatusResponse is the JSON body returned by the status endpoint.
type StatusResponse struct {
	Connected bool          `json:"connected"`
	Stats     StatsSnapshot `json:"stats"`
}

// searchOutcomeResponse converts a terminal outcome into the HTTP response
// body. Negative and expired searches are reported with success=false and a
// human-readable error rather than an HTTP error status.
func searchOutcomeResponse(outcome Outcome) SearchResponse {
	switch outcome.Kind {
	case OutcomeResolved:
		t := outcome.Track
		return SearchResponse{
			Success:  true,
			Title:    t.Title,
			Artist:   t.Artist,
			AudioURL: t.AudioRef,
			Duration: t.Duration,
			FileSize: t.FileSize,
		}
	case OutcomeNotFound:
		return SearchResponse{
			Success: false,
			Error:   "No music found for the given query",
		}
	case OutcomeExpired:
		return SearchResponse{
			Success: false,
			Error:   "Search timed out, no response from music bot",
		}
	default:
		return SearchResponse{
			Success: false,
			Error:   "Internal server error",
		}
	}
}

// formatUptime renders a duration as hh:mm:ss.
func formatUptime(d time.Duration) string {
	total := int64(d.Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
