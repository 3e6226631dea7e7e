package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAudioEvent(t *testing.T) {
	c := NewClassifier("@vkmusbot")

	payload := []byte(`{"from":"@vkmusbot","audio":{"title":"Thunder","performer":"Imagine Dragons","duration":187,"size":4500000,"file_ref":"tg_audio_42"},"message_id":42}`)
	got := c.Classify(payload)

	assert.Equal(t, EventResult, got.Kind)
	require.NotNil(t, got.Track)
	assert.Equal(t, "Thunder", got.Track.Title)
	assert.Equal(t, "Imagine Dragons", got.Track.Artist)
	assert.Equal(t, 187, got.Track.Duration)
	assert.Equal(t, int64(4500000), got.Track.FileSize)
	assert.Equal(t, "tg_audio_42", got.Track.AudioRef)
}

func TestClassifyAudioMissingTags(t *testing.T) {
	c := NewClassifier("@vkmusbot")

	got := c.ClassifyEvent(RawEvent{
		From:  "@vkmusbot",
		Audio: &AudioBlock{Duration: 90},
	})

	assert.Equal(t, EventResult, got.Kind)
	require.NotNil(t, got.Track)
	assert.Equal(t, "Unknown Title", got.Track.Title)
	assert.Equal(t, "Unknown Artist", got.Track.Artist)
}

func TestClassifyNegativeSignals(t *testing.T) {
	c := NewClassifier("@vkmusbot")

	texts := []string{
		"Sorry, not found :(",
		"NO RESULTS for your query",
		"Ничего не найдено",
		"нет результатов, попробуйте ещё",
		"Nothing here, try another query",
	}

	for _, text := range texts {
		got := c.ClassifyEvent(RawEvent{From: "@vkmusbot", Text: text})
		assert.Equal(t, EventNegative, got.Kind, "text: %s", text)
		assert.Nil(t, got.Track)
	}
}

func TestClassifyUnrelated(t *testing.T) {
	c := NewClassifier("@vkmusbot")

	t.Run("wrong sender", func(t *testing.T) {
		got := c.ClassifyEvent(RawEvent{
			From:  "@someoneelse",
			Audio: &AudioBlock{Title: "x"},
		})
		assert.Equal(t, EventUnrelated, got.Kind)
	})

	t.Run("plain chatter", func(t *testing.T) {
		got := c.ClassifyEvent(RawEvent{From: "@vkmusbot", Text: "Searching..."})
		assert.Equal(t, EventUnrelated, got.Kind)
	})

	t.Run("empty event", func(t *testing.T) {
		got := c.ClassifyEvent(RawEvent{From: "@vkmusbot"})
		assert.Equal(t, EventUnrelated, got.Kind)
	})

	t.Run("undecodable payload", func(t *testing.T) {
		got := c.Classify([]byte(`not json at all`))
		assert.Equal(t, EventUnrelated, got.Kind)
	})
}

func TestClassifySenderCaseInsensitive(t *testing.T) {
	c := NewClassifier("@VkMusBot")

	got := c.ClassifyEvent(RawEvent{From: "@vkmusbot", Audio: &AudioBlock{Title: "x"}})
	assert.Equal(t, EventResult, got.Kind)
}

func TestClassifyExtraPatterns(t *testing.T) {
	c := NewClassifier("@vkmusbot", `nichts gefunden`)

	got := c.ClassifyEvent(RawEvent{From: "@vkmusbot", Text: "Leider nichts gefunden"})
	assert.Equal(t, EventNegative, got.Kind)
}

func TestClassifyExtraPatternCaseInsensitive(t *testing.T) {
	// Operator-supplied patterns match regardless of their casing or the
	// message's.
	c := NewClassifier("@vkmusbot", `Nicht Gefunden`)

	got := c.ClassifyEvent(RawEvent{From: "@vkmusbot", Text: "Leider NICHT GEFUNDEN"})
	assert.Equal(t, EventNegative, got.Kind)
}

func TestClassifyPatternsAreLiteralSubstrings(t *testing.T) {
	// Patterns are not regular expressions: metacharacters match
	// themselves, and a pattern that would not compile as a regex still
	// works.
	c := NewClassifier("@vkmusbot", `nothing :( sorry`, `([`)

	got := c.ClassifyEvent(RawEvent{From: "@vkmusbot", Text: "Nothing :( sorry"})
	assert.Equal(t, EventNegative, got.Kind)

	got = c.ClassifyEvent(RawEvent{From: "@vkmusbot", Text: "weird ([ token"})
	assert.Equal(t, EventNegative, got.Kind)
}

func TestClassifyAudioWinsOverText(t *testing.T) {
	c := NewClassifier("@vkmusbot")

	got := c.ClassifyEvent(RawEvent{
		From:  "@vkmusbot",
		Text:  "not found",
		Audio: &AudioBlock{Title: "Thunder"},
	})
	assert.Equal(t, EventResult, got.Kind)
}
