// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	type snapshot struct {
		ServerURL string    `cbor:"server_url"`
		Watermark time.Time `cbor:"watermark"`
		Rooms     []string  `cbor:"rooms"`
	}

	original := snapshot{
		ServerURL: "https://chat.example.org",
		Watermark: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Rooms:     []string{"R1", "R2"},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded snapshot
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ServerURL != original.ServerURL {
		t.Errorf("ServerURL = %q, want %q", decoded.ServerURL, original.ServerURL)
	}
	if !decoded.Watermark.Equal(original.Watermark) {
		t.Errorf("Watermark = %v, want %v", decoded.Watermark, original.Watermark)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]int{"zulu": 1, "alpha": 2, "mike": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same logical data produced different bytes")
	}
}

func TestUnmarshalAnyMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"key": "value"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("decoded type = %T, want map[string]any", decoded)
	}
}
