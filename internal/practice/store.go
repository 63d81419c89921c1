// Package practice records practice sessions started from the selection wizard and the
// realtime event log of each session.
package practice

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/p-n-ai/pai-speak/internal/selector"
	"github.com/p-n-ai/pai-speak/internal/transcript"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("practice session not found")

// ErrInvalidMessage is returned when a message has no type or its payload is not JSON.
var ErrInvalidMessage = errors.New("invalid message")

// Message is one realtime event of a session, numbered from 1 in arrival order.
type Message struct {
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Raw       json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transcript returns the message in the form the transcript filters use.
func (m Message) Transcript() transcript.Message {
	return transcript.Message{Type: m.Type, Raw: m.Raw}
}

// Session is one practice run handed off from the wizard.
type Session struct {
	ID                  string     `json:"id"`
	TopicID             string     `json:"topicId"`
	Level               string     `json:"level,omitempty"`
	ConversationTopic   string     `json:"conversationTopic,omitempty"`
	ConversationParty   string     `json:"conversationParty,omitempty"`
	Section             string     `json:"section,omitempty"`
	CustomOption        string     `json:"customOption,omitempty"`
	SubtopicID          string     `json:"subtopicId,omitempty"`
	SubtopicName        string     `json:"subtopicName,omitempty"`
	SubtopicDescription string     `json:"subtopicDescription,omitempty"`
	Voice               string     `json:"voice,omitempty"`
	RealtimeSessionID   string     `json:"realtimeSessionId,omitempty"`
	StartedAt           time.Time  `json:"startedAt"`
	EndedAt             *time.Time `json:"endedAt,omitempty"`
}

// SessionFromParams builds a session from wizard handoff parameters.
func SessionFromParams(p map[string]string) Session {
	return Session{
		TopicID:             p[selector.ParamTopicID],
		Level:               p[selector.ParamLevel],
		ConversationTopic:   p[selector.ParamConversationTopic],
		ConversationParty:   p[selector.ParamConversationParty],
		Section:             p[selector.ParamSection],
		CustomOption:        p[selector.ParamCustomOption],
		SubtopicID:          p[selector.ParamSubtopicID],
		SubtopicName:        p[selector.ParamSubtopicName],
		SubtopicDescription: p[selector.ParamSubtopicDescription],
	}
}

// Store persists practice sessions and their messages.
type Store interface {
	CreateSession(ctx context.Context, s Session) (string, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	AttachRealtime(ctx context.Context, id, realtimeSessionID, voice string) error
	AppendMessages(ctx context.Context, id string, msgs []Message) ([]Message, error)
	ListMessages(ctx context.Context, id string) ([]Message, error)
	EndSession(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	messages map[string][]Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		messages: make(map[string][]Message),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, sess Session) (string, error) {
	if sess.TopicID == "" {
		return "", fmt.Errorf("topic_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.ID = generateID()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	s.sessions[sess.ID] = &sess
	s.messages[sess.ID] = []Message{}
	return sess.ID, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) AttachRealtime(_ context.Context, id, realtimeSessionID, voice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.RealtimeSessionID = realtimeSessionID
	sess.Voice = voice
	return nil
}

func (s *MemoryStore) AppendMessages(_ context.Context, id string, msgs []Message) ([]Message, error) {
	if err := validateMessages(msgs); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	stored := s.messages[id]
	out := make([]Message, len(msgs))
	now := time.Now()
	for i, m := range msgs {
		m.Seq = len(stored) + 1
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		stored = append(stored, m)
		out[i] = m
	}
	s.messages[id] = stored
	return out, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return slices.Clone(msgs), nil
}

func (s *MemoryStore) EndSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if sess.EndedAt == nil {
		now := time.Now()
		sess.EndedAt = &now
	}
	return nil
}

func validateMessages(msgs []Message) error {
	for i, m := range msgs {
		if m.Type == "" {
			return fmt.Errorf("%w %d: type is required", ErrInvalidMessage, i)
		}
		if !json.Valid(m.Raw) {
			return fmt.Errorf("%w %d: payload is not valid JSON", ErrInvalidMessage, i)
		}
	}
	return nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
