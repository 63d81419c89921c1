// Package options reads the remote options catalogue: the topics shown on the landing
// page and the subtopic records that carry free-text conversation topic definitions.
package options

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/p-n-ai/pai-speak/internal/topics"
)

// Free-text field names used by subtopic records.
const (
	FieldStarterTopics      = "Starter Conversation Topics"
	FieldIntermediateTopics = "Intermediate Conversation Topics"
	FieldAdvancedTopics     = "Advanced Conversation Topics"
	FieldTopics             = "Conversation Topics"
	FieldParties            = "Conversation Parties"
)

// levelFields maps each level to the subtopic field holding its topics.
var levelFields = map[topics.Level]string{
	topics.LevelBeginner:     FieldStarterTopics,
	topics.LevelIntermediate: FieldIntermediateTopics,
	topics.LevelAdvanced:     FieldAdvancedTopics,
}

// TextKind tells how a TextField was encoded upstream.
type TextKind uint8

const (
	TextAbsent  TextKind = iota // missing, null or an unsupported shape
	TextPlain                   // a JSON string
	TextWrapped                 // an object with a "value" string
)

// TextField is a free-text value that the catalogue sends either as a plain string or
// wrapped as {"value": "..."}. It is normalised at decode time so callers only ever see
// a string.
type TextField struct {
	Kind  TextKind
	value string
}

// Plain builds a TextField holding a plain string.
func Plain(s string) TextField { return TextField{Kind: TextPlain, value: s} }

// Wrapped builds a TextField that was decoded from a wrapper object.
func Wrapped(s string) TextField { return TextField{Kind: TextWrapped, value: s} }

// String returns the text, or "" when absent.
func (f TextField) String() string { return f.value }

// UnmarshalJSON accepts a string or an object with a string "value". Any other shape
// decodes as TextAbsent.
func (f *TextField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = TextField{}
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode text field: %w", err)
		}
		*f = Plain(s)
	case '{':
		var w struct {
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(b, &w); err != nil || w.Value == nil {
			return nil
		}
		*f = Wrapped(*w.Value)
	}
	return nil
}

// MarshalJSON always emits the normalised string.
func (f TextField) MarshalJSON() ([]byte, error) {
	if f.Kind == TextAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// TopicRef is the topic association of a subtopic, sent as one id or a list of ids.
type TopicRef []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (r *TopicRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = nil
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode topic ref: %w", err)
		}
		*r = TopicRef{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return nil
	}
	*r = list
	return nil
}

// Contains reports whether id is among the referenced topics.
func (r TopicRef) Contains(id string) bool {
	for _, v := range r {
		if v == id {
			return true
		}
	}
	return false
}

// Topic is a top-level practice topic.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"Name,omitempty"`
	LowerName   string `json:"name,omitempty"`
	Description string `json:"Description,omitempty"`
	Emoji       string `json:"Emoji,omitempty"`
}

// UnmarshalJSON reads each field like a TextField, so a value of any other shape is empty.
func (t *Topic) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode topic: %w", err)
	}
	*t = Topic{}
	fields := map[string]*string{
		"id":          &t.ID,
		"Name":        &t.Name,
		"name":        &t.LowerName,
		"Description": &t.Description,
		"Emoji":       &t.Emoji,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var f TextField
		if err := json.Unmarshal(v, &f); err != nil {
			return err
		}
		*dst = f.String()
	}
	return nil
}

// DisplayName prefers Name and falls back to name.
func (t Topic) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.LowerName
}

// Subtopic is one subtopic record with its conversation topic definitions.
type Subtopic struct {
	ID          string
	Name        TextField
	Description TextField
	Topic       TopicRef
	TopicID     string
	Fields      map[string]TextField
}

// UnmarshalJSON picks the known keys out of a loosely typed record.
func (s *Subtopic) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode subtopic: %w", err)
	}
	*s = Subtopic{Fields: map[string]TextField{}}

	if v, ok := raw["id"]; ok {
		var id TextField
		if err := json.Unmarshal(v, &id); err != nil {
			return err
		}
		s.ID = id.String()
	}
	if err := decodeFirst(raw, &s.Name, "Name", "name"); err != nil {
		return err
	}
	if err := decodeFirst(raw, &s.Description, "Description", "description"); err != nil {
		return err
	}
	if v, ok := raw["Topic"]; ok {
		if err := json.Unmarshal(v, &s.Topic); err != nil {
			return err
		}
	}
	if v, ok := raw["TopicId"]; ok {
		var id TextField
		if err := json.Unmarshal(v, &id); err != nil {
			return err
		}
		s.TopicID = id.String()
	}
	for _, key := range []string{FieldStarterTopics, FieldIntermediateTopics, FieldAdvancedTopics, FieldTopics, FieldParties} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var f TextField
		if err := json.Unmarshal(v, &f); err != nil {
			return err
		}
		s.Fields[key] = f
	}
	return nil
}

// MarshalJSON writes the record back with the key names it was read with.
func (s Subtopic) MarshalJSON() ([]byte, error) {
	out := map[string]any{"id": s.ID}
	if s.Name.Kind != TextAbsent {
		out["Name"] = s.Name
	}
	if s.Description.Kind != TextAbsent {
		out["Description"] = s.Description
	}
	if len(s.Topic) == 1 {
		out["Topic"] = s.Topic[0]
	} else if len(s.Topic) > 1 {
		out["Topic"] = []string(s.Topic)
	}
	if s.TopicID != "" {
		out["TopicId"] = s.TopicID
	}
	for k, v := range s.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

func decodeFirst(raw map[string]json.RawMessage, dst *TextField, keys ...string) error {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
			if dst.Kind != TextAbsent {
				return nil
			}
		}
	}
	return nil
}

// Text returns the normalised string of a free-text field.
func (s Subtopic) Text(field string) string {
	return s.Fields[field].String()
}

// HasLevelTexts reports whether any per-level field is present.
func (s Subtopic) HasLevelTexts() bool {
	for _, f := range levelFields {
		if s.Text(f) != "" {
			return true
		}
	}
	return false
}

// LevelTexts returns the topic text of each level.
func (s Subtopic) LevelTexts() map[topics.Level]string {
	out := make(map[topics.Level]string, len(levelFields))
	for l, f := range levelFields {
		out[l] = s.Text(f)
	}
	return out
}

// FlatTexts returns the single-list topic and party texts.
func (s Subtopic) FlatTexts() (topicsText, partiesText string) {
	return s.Text(FieldTopics), s.Text(FieldParties)
}

// MatchesTopic reports whether the subtopic belongs to the topic.
func (s Subtopic) MatchesTopic(topicID string) bool {
	return s.TopicID == topicID || s.Topic.Contains(topicID)
}

// Payload is the options catalogue.
type Payload struct {
	Topics    []Topic    `json:"topics"`
	Subtopics []Subtopic `json:"subtopics"`
}

// FindTopic returns the topic with the given id.
func (p *Payload) FindTopic(id string) (Topic, bool) {
	for _, t := range p.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// FindSubtopic resolves a subtopic by explicit id, or else by its topic association.
func (p *Payload) FindSubtopic(topicID, subtopicID string) (Subtopic, bool) {
	for _, st := range p.Subtopics {
		if subtopicID != "" {
			if st.ID == subtopicID {
				return st, true
			}
			continue
		}
		if st.MatchesTopic(topicID) {
			return st, true
		}
	}
	return Subtopic{}, false
}
