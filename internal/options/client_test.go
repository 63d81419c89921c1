package options

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
}

func (m *memCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	snap, err := NewClient(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(snap.Payload.Topics) != 2 {
		t.Errorf("topics = %d, want 2", len(snap.Payload.Topics))
	}
}

func TestClient_Fetch_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Fetch(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestClient_Fetch_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topics": 7}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Fetch(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestClient_Fetch_UsesCache(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	cache := &memCache{}
	client := NewClient(server.URL, WithCache(cache, time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}

	if hits != 1 {
		t.Errorf("upstream hits = %d, want 1", hits)
	}
	if cache.ttl != time.Minute {
		t.Errorf("cache ttl = %v, want 1m", cache.ttl)
	}
}

func TestClient_Fetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(server.URL).Fetch(ctx); err == nil {
		t.Fatal("Fetch() should fail with canceled context")
	}
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.json")
	if err := os.WriteFile(path, []byte(samplePayload), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := FileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(snap.Payload.Subtopics) != 2 {
		t.Errorf("subtopics = %d, want 2", len(snap.Payload.Subtopics))
	}

	_, err = FileSource{Path: filepath.Join(dir, "missing.json")}.Fetch(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Errorf("missing file error = %v, want ErrFetch", err)
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint([]byte("abc"))
	b := Fingerprint([]byte("abc"))
	c := Fingerprint([]byte("abd"))
	if a != b {
		t.Errorf("Fingerprint not stable: %q != %q", a, b)
	}
	if a == c {
		t.Error("different bodies share a fingerprint")
	}
}
