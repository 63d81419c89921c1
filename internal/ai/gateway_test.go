package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-speak/internal/ai"
)

func TestMockProvider_CreateSession(t *testing.T) {
	mock := ai.NewMockProvider("sess_1")

	sess, err := mock.CreateSession(context.Background(), ai.SessionConfig{Voice: "ash"})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sess.ID != "sess_1" || sess.ClientSecret != "ek_sess_1" {
		t.Errorf("session = %+v", sess)
	}
	if !strings.Contains(string(sess.Raw), `"client_secret"`) {
		t.Errorf("Raw = %s, want client_secret", sess.Raw)
	}
	if got := mock.LastConfig(); got == nil || got.Voice != "ash" {
		t.Errorf("LastConfig() = %+v", got)
	}
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
}

func TestMockProvider_Error(t *testing.T) {
	mock := ai.NewMockProvider("x")
	mock.Err = errors.New("upstream down")

	if _, err := mock.CreateSession(context.Background(), ai.SessionConfig{}); err == nil {
		t.Fatal("CreateSession() should return the configured error")
	}
	if err := mock.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should return the configured error")
	}
}

func TestVoiceForAvatar(t *testing.T) {
	tests := []struct {
		avatar string
		want   string
	}{
		{"jin", "coral"},
		{"zhan", "ash"},
		{"", "alloy"},
		{"lily", "alloy"},
		{"JIN", "alloy"},
	}
	for _, tt := range tests {
		t.Run(tt.avatar, func(t *testing.T) {
			if got := ai.VoiceForAvatar(tt.avatar); got != tt.want {
				t.Errorf("VoiceForAvatar(%q) = %q, want %q", tt.avatar, got, tt.want)
			}
		})
	}
}

func TestInstructions(t *testing.T) {
	if got := ai.Instructions(ai.Scenario{}); got != ai.TutorPersona {
		t.Error("Instructions() without scenario should be the bare persona")
	}

	got := ai.Instructions(ai.Scenario{
		Level:             "intermediate",
		ConversationTopic: "點餐",
		ConversationParty: "顧客",
		Notes:             "  Keep turns short.\n",
	})
	if !strings.HasPrefix(got, ai.TutorPersona) {
		t.Error("Instructions() should start with the persona")
	}
	for _, want := range []string{
		"Practice Scenario:",
		"- Difficulty: intermediate",
		"- Conversation topic: 點餐",
		"- The student plays: 顧客",
		"\n\nKeep turns short.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Instructions() missing %q", want)
		}
	}
	if strings.Contains(got, "Question type") {
		t.Error("Instructions() rendered an empty field")
	}
}
