package selector

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/p-n-ai/pai-speak/internal/options"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

const testPayload = `{
  "topics": [
    {"id": "t1", "Name": "日常會話"},
    {"id": "t2", "Name": "旅遊英語"},
    {"id": "t3", "Name": "空白"}
  ],
  "subtopics": [
    {
      "id": "s1",
      "Topic": "t1",
      "Starter Conversation Topics": "點餐[顧客,店員]",
      "Intermediate Conversation Topics": {"value": "客訴[經理,客人]"}
    },
    {
      "id": "s2",
      "TopicId": "t2",
      "Conversation Topics": "機場, 飯店",
      "Conversation Parties": "旅客, 櫃檯"
    },
    {"id": "s3", "TopicId": "t3", "Starter Conversation Topics": ""}
  ]
}`

type staticSource struct {
	snap *options.Snapshot
	err  error
}

func (s staticSource) Fetch(context.Context) (*options.Snapshot, error) {
	return s.snap, s.err
}

// gatedSource blocks every fetch until the test releases it.
type gatedSource struct {
	snap    *options.Snapshot
	started chan chan struct{}
}

func (g *gatedSource) Fetch(ctx context.Context) (*options.Snapshot, error) {
	release := make(chan struct{})
	g.started <- release
	select {
	case <-release:
		return g.snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func mustSnapshot(t *testing.T) *options.Snapshot {
	t.Helper()
	snap, err := options.Decode([]byte(testPayload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return snap
}

func testRand() topics.IntN { return rand.New(rand.NewPCG(3, 4)) }

func waitFor(t *testing.T, ch <-chan State, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestResolve(t *testing.T) {
	snap := mustSnapshot(t)

	tests := []struct {
		name      string
		source    options.Source
		cfg       Config
		wantKind  ProblemKind
		wantTopic string
	}{
		{"leveled", staticSource{snap: snap}, Config{TopicID: "t1"}, ProblemNone, "日常會話"},
		{"flat fallback", staticSource{snap: snap}, Config{TopicID: "t2"}, ProblemNone, "旅遊英語"},
		{"explicit subtopic", staticSource{snap: snap}, Config{TopicID: "t9", Subtopic: &Subtopic{ID: "s1"}}, ProblemNone, ""},
		{"missing subtopic", staticSource{snap: snap}, Config{TopicID: "t9"}, ProblemNotFound, ""},
		{"explicit miss", staticSource{snap: snap}, Config{TopicID: "t1", Subtopic: &Subtopic{ID: "nope"}}, ProblemNotFound, "日常會話"},
		{"empty index", staticSource{snap: snap}, Config{TopicID: "t3"}, ProblemNotFound, "空白"},
		{"fetch error", staticSource{err: options.ErrFetch}, Config{TopicID: "t1"}, ProblemFetchFailure, ""},
		{"nil source", nil, Config{TopicID: "t1"}, ProblemFetchFailure, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, topic := Resolve(context.Background(), tt.source, tt.cfg)
			switch e := ev.(type) {
			case Loaded:
				if tt.wantKind != ProblemNone {
					t.Fatalf("Resolve() = Loaded, want %v", tt.wantKind)
				}
				if e.Identity != tt.cfg.Identity() {
					t.Errorf("Identity = %q, want %q", e.Identity, tt.cfg.Identity())
				}
			case LoadFailed:
				if e.Kind != tt.wantKind {
					t.Fatalf("Resolve() = LoadFailed(%v), want %v", e.Kind, tt.wantKind)
				}
			default:
				t.Fatalf("Resolve() returned %T", ev)
			}
			if topic.Name != tt.wantTopic {
				t.Errorf("topic = %q, want %q", topic.Name, tt.wantTopic)
			}
		})
	}
}

func TestBuildIndex_FlatSharesEntries(t *testing.T) {
	snap := mustSnapshot(t)
	st, _ := snap.Payload.FindSubtopic("t2", "")

	ix := BuildIndex(st, ModeLeveled)
	for _, l := range topics.Levels {
		entries := ix.Entries(l)
		if len(entries) != 2 {
			t.Fatalf("%s entries = %d, want 2", l, len(entries))
		}
		if !entries[0].HasParty("櫃檯") {
			t.Errorf("%s entry %q missing shared party", l, entries[0].Topic)
		}
	}
}

func TestSession_LoadsAndDispatches(t *testing.T) {
	s := NewSession("w1", staticSource{snap: mustSnapshot(t)}, testRand())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Retarget(context.Background(), Config{TopicID: "t1"})
	waitFor(t, ch, func(st State) bool { return st.Status == StatusReady })

	if got := s.Topic().Name; got != "日常會話" {
		t.Errorf("Topic().Name = %q, want 日常會話", got)
	}

	st, _ := s.Dispatch(SelectLevel{Level: topics.LevelBeginner})
	if st.Step != StepTopic || len(st.Offered) != 1 {
		t.Fatalf("step=%d offered=%d", st.Step, len(st.Offered))
	}
	st, _ = s.Dispatch(SelectTopic{Raw: st.Offered[0].Raw})
	st, _ = s.Dispatch(Proceed{})
	st, _ = s.Dispatch(SelectParty{Party: "店員"})
	_, h := s.Dispatch(Proceed{})
	if h == nil || h.Params.Get(ParamConversationParty) != "店員" {
		t.Fatalf("handoff = %v", h)
	}
}

func TestSession_StaleFetchDropped(t *testing.T) {
	src := &gatedSource{snap: mustSnapshot(t), started: make(chan chan struct{})}
	s := NewSession("w1", src, testRand())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Retarget(context.Background(), Config{TopicID: "t1"})
	releaseT1 := <-src.started

	s.Retarget(context.Background(), Config{TopicID: "t2"})
	releaseT2 := <-src.started

	close(releaseT2)
	ready := waitFor(t, ch, func(st State) bool { return st.Status == StatusReady })
	if ready.Identity != "t2" {
		t.Fatalf("ready identity = %q, want t2", ready.Identity)
	}

	close(releaseT1)
	// The stale result still notifies, but must not change the state.
	after := waitFor(t, ch, func(State) bool { return true })
	if after.Identity != "t2" || after.Status != StatusReady {
		t.Errorf("after stale fetch: identity=%q status=%v", after.Identity, after.Status)
	}
	if got := s.Topic().Name; got != "旅遊英語" {
		t.Errorf("Topic().Name = %q, want 旅遊英語", got)
	}
	entries := s.State().Index.Entries(topics.LevelBeginner)
	if len(entries) != 2 || entries[0].Topic != "機場" {
		t.Errorf("index = %+v, want t2 flat entries", entries)
	}
}

func TestSession_FetchFailure(t *testing.T) {
	s := NewSession("w1", staticSource{err: errors.New("boom")}, testRand())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Retarget(context.Background(), Config{TopicID: "t1"})
	st := waitFor(t, ch, func(st State) bool { return st.Status == StatusError })
	if st.Problem.Kind != ProblemFetchFailure {
		t.Errorf("Problem = %v, want fetch_failure", st.Problem.Kind)
	}
}

func TestSession_MenuSkipsFetch(t *testing.T) {
	src := &gatedSource{started: make(chan chan struct{})}
	s := NewSession("w1", src, testRand())
	s.Retarget(context.Background(), Config{TopicID: "gept", Menu: gept()})

	if st := s.State(); st.Status != StatusReady || st.Track != TrackMenu {
		t.Errorf("status=%v track=%v, want ready menu", st.Status, st.Track)
	}
	select {
	case <-src.started:
		t.Error("menu wizard fetched options")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSession_DispatchBeforeRetarget(t *testing.T) {
	s := NewSession("w1", nil, testRand())
	_, h := s.Dispatch(Proceed{})
	if h != nil {
		t.Error("idle session produced a handoff")
	}
}

func TestSession_UnsubscribeIdempotent(t *testing.T) {
	s := NewSession("w1", nil, testRand())
	_, cancel := s.Subscribe()
	cancel()
	cancel()
	s.Retarget(context.Background(), Config{TopicID: "gept", Menu: gept()})
}

func TestSession_SameIdentityRetargetDropsEarlierFetch(t *testing.T) {
	src := &gatedSource{snap: mustSnapshot(t), started: make(chan chan struct{})}
	s := NewSession("w1", src, testRand())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Retarget(context.Background(), Config{TopicID: "t1"})
	releaseFirst := <-src.started
	s.Retarget(context.Background(), Config{TopicID: "t1", HideParties: true})
	releaseSecond := <-src.started

	// Drain the loading state of the second retarget.
	waitFor(t, ch, func(State) bool { return true })

	close(releaseFirst)
	after := waitFor(t, ch, func(State) bool { return true })
	if after.Status != StatusLoading {
		t.Fatalf("earlier fetch applied: status=%v", after.Status)
	}

	close(releaseSecond)
	ready := waitFor(t, ch, func(st State) bool { return st.Status == StatusReady })
	if ready.Generation != 2 {
		t.Errorf("Generation = %d, want 2", ready.Generation)
	}
	if !s.Snapshot().Config.HideParties {
		t.Error("config of the second retarget lost")
	}
}

func TestSession_Snapshot(t *testing.T) {
	s := NewSession("w1", nil, testRand())
	if snap := s.Snapshot(); snap.Config.TopicID != "" || snap.State.Identity != "" {
		t.Errorf("idle snapshot = %+v", snap)
	}

	s.Retarget(context.Background(), Config{TopicID: "gept", TopicName: "全民英檢", Menu: gept()})
	snap := s.Snapshot()
	if snap.State.Identity != "gept" || snap.Config.TopicID != "gept" || snap.Topic.Name != "全民英檢" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.State.Generation != 1 {
		t.Errorf("Generation = %d, want 1", snap.State.Generation)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(staticSource{snap: mustSnapshot(t)}, testRand())

	s := r.Create(context.Background(), Config{TopicID: "gept", Menu: gept()})
	if len(s.ID) != 32 {
		t.Errorf("ID = %q, want 32 hex chars", s.ID)
	}
	got, err := r.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrUnknownWizard) {
		t.Errorf("Get(missing) error = %v, want ErrUnknownWizard", err)
	}

	if n := r.Prune(time.Hour); n != 0 {
		t.Errorf("Prune(1h) = %d, want 0", n)
	}
	time.Sleep(5 * time.Millisecond)
	if n := r.Prune(time.Millisecond); n != 1 {
		t.Errorf("Prune(1ms) = %d, want 1", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}

	s2 := r.Create(context.Background(), Config{TopicID: "gept", Menu: gept()})
	r.Delete(s2.ID)
	if _, err := r.Get(s2.ID); !errors.Is(err, ErrUnknownWizard) {
		t.Errorf("Get after Delete error = %v", err)
	}
}
