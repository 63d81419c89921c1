package topics_test

import (
	"reflect"
	"testing"

	"github.com/p-n-ai/pai-speak/internal/topics"
)

func TestParse_WellFormed(t *testing.T) {
	got := topics.Parse("A[x, y], B[z]")

	if len(got) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(got))
	}
	if got[0].Topic != "A" || !reflect.DeepEqual(got[0].Parties, []string{"x", "y"}) {
		t.Errorf("entry 0 = %+v, want topic A parties [x y]", got[0])
	}
	if got[1].Topic != "B" || !reflect.DeepEqual(got[1].Parties, []string{"z"}) {
		t.Errorf("entry 1 = %+v, want topic B parties [z]", got[1])
	}
	if got[0].Raw != "A[x, y]" {
		t.Errorf("entry 0 raw = %q, want %q", got[0].Raw, "A[x, y]")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTopics []string
	}{
		{"empty", "", nil},
		{"no brackets", "just some text, and more", nil},
		{"unclosed bracket", "A[x, y", nil},
		{"single", "Ordering coffee[barista, customer]", []string{"Ordering coffee"}},
		{"whitespace trimmed", "  Job interview  [ interviewer ,candidate ]", []string{"Job interview"}},
		{"cjk labels", "點餐[服務生, 顧客]，問路[路人]", []string{"點餐", "，問路"}},
		{"duplicate labels kept", "A[x], A[y]", []string{"A", "A"}},
		{"empty label skipped", "A[x], [y]", []string{"A"}},
		{"newline separated", "A[x]\nB[y]", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := topics.Parse(tt.raw)
			if got == nil {
				t.Fatal("Parse() returned nil, want empty slice")
			}
			var labels []string
			for _, e := range got {
				labels = append(labels, e.Topic)
			}
			if !reflect.DeepEqual(labels, tt.wantTopics) {
				t.Errorf("topics = %q, want %q", labels, tt.wantTopics)
			}
		})
	}
}

func TestParse_DuplicateLabelsHaveDistinctRaw(t *testing.T) {
	got := topics.Parse("A[x], A[y]")
	if len(got) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(got))
	}
	if got[0].Raw == got[1].Raw {
		t.Errorf("raw keys collide: %q", got[0].Raw)
	}
}

func TestParse_DropsEmptyItems(t *testing.T) {
	got := topics.Parse("A[x, , y,]")
	if len(got) != 1 {
		t.Fatalf("Parse() returned %d entries, want 1", len(got))
	}
	if !reflect.DeepEqual(got[0].Parties, []string{"x", "y"}) {
		t.Errorf("parties = %q, want [x y]", got[0].Parties)
	}
}

func TestEntry_HasParty(t *testing.T) {
	e := topics.Entry{Topic: "A", Parties: []string{"x", "y"}}
	if !e.HasParty("y") {
		t.Error("HasParty(y) = false, want true")
	}
	if e.HasParty("z") {
		t.Error("HasParty(z) = true, want false")
	}
}
