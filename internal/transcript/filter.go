// Package transcript filters and exports the realtime event log of a practice session.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AllTypes is the type filter that matches every message.
const AllTypes = "all"

// Message is one realtime event as received from the browser.
type Message struct {
	Type string
	Raw  json.RawMessage
}

// Parse reads the event type out of a raw realtime event.
func Parse(raw json.RawMessage) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return Message{Type: head.Type, Raw: raw}, nil
}

// ParseAll parses a batch of raw events, stopping at the first malformed one.
func ParseAll(raws []json.RawMessage) ([]Message, error) {
	out := make([]Message, 0, len(raws))
	for i, raw := range raws {
		m, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Pretty returns the message JSON indented by two spaces.
func (m Message) Pretty() string {
	var b bytes.Buffer
	if err := json.Indent(&b, m.Raw, "", "  "); err != nil {
		return string(m.Raw)
	}
	return b.String()
}

// Types returns AllTypes followed by the distinct message types in first-seen order.
func Types(msgs []Message) []string {
	out := []string{AllTypes}
	seen := make(map[string]bool)
	for _, m := range msgs {
		if seen[m.Type] {
			continue
		}
		seen[m.Type] = true
		out = append(out, m.Type)
	}
	return out
}

// Filter keeps the messages of the given type (AllTypes or "" for any) whose JSON text
// contains query, compared case-insensitively.
func Filter(msgs []Message, typeFilter, query string) []Message {
	query = strings.ToLower(query)
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if typeFilter != "" && typeFilter != AllTypes && m.Type != typeFilter {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(string(m.Raw)), query) {
			continue
		}
		out = append(out, m)
	}
	return out
}
