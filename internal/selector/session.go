package selector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/pai-speak/internal/options"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

const fetchTimeout = 15 * time.Second

// Session owns one wizard: its machine, its current state and the options fetch for
// the current identity. It is safe for concurrent use.
type Session struct {
	ID string

	source options.Source
	rng    topics.IntN

	mu       sync.Mutex
	machine  *Machine
	gen      uint64
	state    State
	topic    options.Topic
	lastSeen time.Time
	subs     map[int]chan State
	nextSub  int
}

// NewSession creates an idle session. Call Retarget to start it.
func NewSession(id string, source options.Source, rng topics.IntN) *Session {
	return &Session{
		ID:       id,
		source:   source,
		rng:      rng,
		lastSeen: time.Now(),
		subs:     make(map[int]chan State),
	}
}

// Retarget resets the session for cfg and, on the level track, starts fetching the
// options for cfg's identity. A fetch that completes after a later Retarget is dropped
// by the machine's identity and generation check.
func (s *Session) Retarget(ctx context.Context, cfg Config) {
	m := NewMachine(cfg, s.rng)

	s.mu.Lock()
	s.gen++
	s.machine = m
	s.state = m.Initial()
	s.state.Generation = s.gen
	s.topic = options.Topic{ID: cfg.TopicID, Name: cfg.TopicName}
	s.lastSeen = time.Now()
	st := s.state
	s.notifyLocked()
	s.mu.Unlock()

	if st.Status != StatusLoading {
		return
	}

	// The fetch outlives the request that triggered it.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
	go func() {
		defer cancel()
		ev, topic := Resolve(fetchCtx, s.source, m.Config())
		ev = withGeneration(ev, st.Generation)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state.Generation == st.Generation && topic.ID != "" {
			s.topic = topic
		}
		s.dispatchLocked(ev)
	}()
}

func withGeneration(ev Event, gen uint64) Event {
	switch e := ev.(type) {
	case Loaded:
		e.Generation = gen
		return e
	case LoadFailed:
		e.Generation = gen
		return e
	}
	return ev
}

// Dispatch applies ev and returns the resulting state and any handoff.
func (s *Session) Dispatch(ev Event) (State, *Handoff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(ev)
}

func (s *Session) dispatchLocked(ev Event) (State, *Handoff) {
	if s.machine == nil {
		return s.state, nil
	}
	next, handoff := s.machine.Apply(s.state, ev)
	s.state = next
	s.lastSeen = time.Now()
	s.notifyLocked()
	return next, handoff
}

// Snapshot is a consistent view of a session's state, config and topic.
type Snapshot struct {
	State  State
	Config Config
	Topic  options.Topic
}

// Snapshot returns the state, config and topic read under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Topic: s.topic}
	if s.machine != nil {
		snap.Config = s.machine.Config()
	}
	return snap
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the normalised config of the current identity.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return Config{}
	}
	return s.machine.Config()
}

// Topic returns the topic record resolved from the catalogue, or the configured name
// while loading.
func (s *Session) Topic() options.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topic
}

// LastSeen returns when the session was last touched.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Subscribe returns a channel that receives the latest state after every change, and a
// function that ends the subscription. Slow readers only ever see the newest state.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}

// Resolve fetches the catalogue and turns it into the Loaded or LoadFailed event for
// cfg's identity, together with the wizard's topic record when found.
func Resolve(ctx context.Context, source options.Source, cfg Config) (Event, options.Topic) {
	identity := cfg.Identity()
	if source == nil {
		return LoadFailed{Identity: identity, Kind: ProblemFetchFailure}, options.Topic{}
	}

	snap, err := source.Fetch(ctx)
	if err != nil {
		slog.Warn("options fetch failed",
			"identity", identity,
			"upstream", errors.Is(err, options.ErrFetch),
			"error", err,
		)
		return LoadFailed{Identity: identity, Kind: ProblemFetchFailure}, options.Topic{}
	}

	topic, _ := snap.Payload.FindTopic(cfg.TopicID)

	subtopicID := ""
	if cfg.Subtopic != nil {
		subtopicID = cfg.Subtopic.ID
	}
	st, ok := snap.Payload.FindSubtopic(cfg.TopicID, subtopicID)
	if !ok {
		return LoadFailed{Identity: identity, Kind: ProblemNotFound}, topic
	}

	ix := BuildIndex(st, cfg.Mode)
	if ix.Empty() {
		return LoadFailed{Identity: identity, Kind: ProblemNotFound}, topic
	}
	return Loaded{Identity: identity, Index: ix}, topic
}

// BuildIndex builds the per-level index of a subtopic. Leveled subtopics without any
// per-level text fall back to their single-list fields.
func BuildIndex(st options.Subtopic, mode Mode) topics.LevelIndex {
	if mode == ModeFlat || !st.HasLevelTexts() {
		topicsText, partiesText := st.FlatTexts()
		if topicsText != "" {
			return topics.BuildFlatIndex(topicsText, partiesText)
		}
	}
	return topics.BuildIndex(st.LevelTexts())
}
