package jsoncodec

import (
	"bytes"
	"strings"
	"testing"
)

type testEvent struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := testEvent{From: "musicbot", Text: "not found"}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out testEvent
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out != in {
		t.Fatalf("expected round trip to match, got %#v", out)
	}

	indented, err := MarshalIndent(in, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent failed: %v", err)
	}
	if !strings.Contains(string(indented), "\n  \"from\"") {
		t.Fatalf("expected indented output, got %s", string(indented))
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	buf := &bytes.Buffer{}
	payload := testEvent{From: "musicbot", Text: "try another"}

	if err := Encode(buf, payload); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded testEvent
	if err := Decode(buf, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != payload {
		t.Fatalf("expected decoded payload to match, got %#v", decoded)
	}
}
