package bridge

import (
	"strings"

	"github.com/tunegate/tunegate/internal/bridge/jsoncodec"
)

// DefaultNotFoundPatterns are the textual signals the music bot sends when a
// query matches nothing. The bot answers in English or Russian depending on
// the requesting account's locale.
var DefaultNotFoundPatterns = []string{
	`not found`,
	`ничего не найдено`,
	`no results`,
	`нет результатов`,
	`try another`,
}

const (
	defaultTitle  = "Unknown Title"
	defaultArtist = "Unknown Artist"
)

// Classifier inspects inbound chat events and decides whether they are a
// search result, a negative signal, or noise. Classification is stateless;
// matching an event to a pending search is the engine's job.
type Classifier struct {
	botPeer  string
	patterns []string
}

// NewClassifier creates a classifier for events from botPeer. extraPatterns
// are appended to DefaultNotFoundPatterns. Patterns are plain substrings,
// not regular expressions, matched case-insensitively; blank patterns are
// dropped.
func NewClassifier(botPeer string, extraPatterns ...string) *Classifier {
	all := make([]string, 0, len(DefaultNotFoundPatterns)+len(extraPatterns))
	all = append(all, DefaultNotFoundPatterns...)
	all = append(all, extraPatterns...)

	patterns := make([]string, 0, len(all))
	for _, p := range all {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
	}

	return &Classifier{
		botPeer:  botPeer,
		patterns: patterns,
	}
}

// Classify decodes a raw event payload and categorizes it. Undecodable
// payloads, events from other senders, and events with neither audio nor a
// recognized negative text are all classified as unrelated.
func (c *Classifier) Classify(payload []byte) Classification {
	var ev RawEvent
	if err := jsoncodec.Unmarshal(payload, &ev); err != nil {
		return Classification{Kind: EventUnrelated}
	}
	return c.ClassifyEvent(ev)
}

// ClassifyEvent categorizes an already-decoded event.
func (c *Classifier) ClassifyEvent(ev RawEvent) Classification {
	if c.botPeer != "" && !strings.EqualFold(ev.From, c.botPeer) {
		return Classification{Kind: EventUnrelated}
	}

	if ev.Audio != nil {
		return Classification{
			Kind:  EventResult,
			Track: trackFromAudio(ev.Audio),
		}
	}

	if ev.Text != "" && c.isNotFoundText(ev.Text) {
		return Classification{Kind: EventNegative}
	}

	return Classification{Kind: EventUnrelated}
}

func (c *Classifier) isNotFoundText(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range c.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func trackFromAudio(a *AudioBlock) *Track {
	title := a.Title
	if title == "" {
		title = defaultTitle
	}
	artist := a.Performer
	if artist == "" {
		artist = defaultArtist
	}
	return &Track{
		Title:    title,
		Artist:   artist,
		Duration: a.Duration,
		FileSize: a.Size,
		AudioRef: a.FileRef,
	}
}
