package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-speak/internal/topics"
)

func TestResolveTag(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		want   language.Tag
	}{
		{"default", "/", "", language.TraditionalChinese},
		{"query param wins", "/?lang=en", "zh-TW", language.English},
		{"accept-language", "/", "en-US,en;q=0.9", language.English},
		{"taiwan", "/", "zh-TW", language.TraditionalChinese},
		{"unsupported falls back", "/", "fr", language.TraditionalChinese},
		{"unsupported query falls through", "/?lang=fr", "en", language.English},
		{"bad query ignored", "/?lang=1234567890", "en", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com"+tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			if got := ResolveTag(req); got != tt.want {
				t.Errorf("ResolveTag() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveTag_NilRequest(t *testing.T) {
	if got := ResolveTag(nil); got != Default() {
		t.Errorf("ResolveTag(nil) = %s, want default", got)
	}
}

func TestMessages(t *testing.T) {
	zh := Printer(language.TraditionalChinese)
	en := Printer(language.English)

	if got := LevelTitle(zh, topics.LevelIntermediate); got != "中級" {
		t.Errorf("zh LevelTitle = %q", got)
	}
	if got := LevelDescription(zh, topics.LevelBeginner); got != "基礎對話，簡單句型，充分引導" {
		t.Errorf("zh LevelDescription = %q", got)
	}
	if got := EmptyLevel(zh, topics.LevelAdvanced); got != "找不到高級對話主題，請聯絡管理員。" {
		t.Errorf("zh EmptyLevel = %q", got)
	}
	if got := zh.Sprintf(KeyProblemNotFound); got != "找不到相關子主題，請聯絡管理員。" {
		t.Errorf("zh not found = %q", got)
	}
	if got := EmptyLevel(en, topics.LevelBeginner); got != "No Beginner conversation topics were found. Please contact an administrator." {
		t.Errorf("en EmptyLevel = %q", got)
	}
	if got := en.Sprintf(KeyStepExam); got != "Exam practice topics" {
		t.Errorf("en exam heading = %q", got)
	}
}
