package transcript

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sampleMessages(t *testing.T) []Message {
	t.Helper()
	msgs, err := ParseAll([]json.RawMessage{
		json.RawMessage(`{"type":"session.created","session":{"id":"s1"}}`),
		json.RawMessage(`{"type":"response.audio_transcript.done","transcript":"Hello There"}`),
		json.RawMessage(`{"type":"session.created","session":{"id":"s2"}}`),
		json.RawMessage(`{"type":"input_audio_buffer.speech_started"}`),
	})
	if err != nil {
		t.Fatalf("ParseAll() error = %v", err)
	}
	return msgs
}

func TestTypes(t *testing.T) {
	got := Types(sampleMessages(t))
	want := []string{"all", "session.created", "response.audio_transcript.done", "input_audio_buffer.speech_started"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %q, want %q", got, want)
	}
	if got := Types(nil); !reflect.DeepEqual(got, []string{"all"}) {
		t.Errorf("Types(nil) = %q", got)
	}
}

func TestFilter(t *testing.T) {
	msgs := sampleMessages(t)

	tests := []struct {
		name  string
		typ   string
		query string
		want  int
	}{
		{"all", "all", "", 4},
		{"empty type", "", "", 4},
		{"by type", "session.created", "", 2},
		{"case-insensitive search", "all", "hello there", 1},
		{"type and search", "session.created", "s2", 1},
		{"search matches keys", "all", "TRANSCRIPT", 1},
		{"no match", "all", "goodbye", 0},
		{"unknown type", "conversation.item.created", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filter(msgs, tt.typ, tt.query); len(got) != tt.want {
				t.Errorf("Filter(%q, %q) = %d messages, want %d", tt.typ, tt.query, len(got), tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := ParseAll([]json.RawMessage{json.RawMessage(`[1,2]`)}); err == nil {
		t.Error("ParseAll() should reject non-object messages")
	}
}

func TestPretty(t *testing.T) {
	m := Message{Type: "x", Raw: json.RawMessage(`{"type":"x","n":1}`)}
	want := "{\n  \"type\": \"x\",\n  \"n\": 1\n}"
	if got := m.Pretty(); got != want {
		t.Errorf("Pretty() = %q, want %q", got, want)
	}
}

func TestExport(t *testing.T) {
	msgs := sampleMessages(t)

	var buf bytes.Buffer
	if err := Export(&buf, msgs); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != len(msgs)+1 {
		t.Fatalf("rows = %d, want %d", len(rows), len(msgs)+1)
	}
	if !reflect.DeepEqual(rows[0], []string{"type", "content"}) {
		t.Errorf("header = %q", rows[0])
	}
	if rows[2][0] != "response.audio_transcript.done" {
		t.Errorf("row 2 type = %q", rows[2][0])
	}
	if rows[2][1] != msgs[1].Pretty() {
		t.Errorf("row 2 content = %q", rows[2][1])
	}
}
