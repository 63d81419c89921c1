// Package i18n holds the learner-facing strings of the wizard and picks a language per
// request.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/p-n-ai/pai-speak/internal/topics"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

// Message keys.
const (
	KeyProblemNotFound     = "problem.not_found"
	KeyProblemFetchFailure = "problem.fetch_failure"
	KeyProblemEmptyLevel   = "problem.empty_level"

	KeyStepLevel   = "step.level"
	KeyStepTopic   = "step.topic"
	KeyStepExam    = "step.topic.exam_prep"
	KeyStepParty   = "step.party"
	KeyStepSection = "step.section"
	KeyStepOption  = "step.option"

	KeyNext  = "action.next"
	KeyBack  = "action.back"
	KeyStart = "action.start"
)

var supportedTags = []language.Tag{
	language.TraditionalChinese,
	language.English,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Supported returns the supported language tags, default first.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.TraditionalChinese
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag determines the best supported language for the request: the lang query
// parameter first, then Accept-Language. Unsupported values fall through.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}

	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			if matched, ok := match(tag); ok {
				return matched
			}
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if matched, ok := match(tags...); ok {
				return matched
			}
		}
	}

	return Default()
}

// match maps tags to one of the supported tags, dropping any extensions the matcher adds.
func match(tags ...language.Tag) (language.Tag, bool) {
	_, idx, conf := tagMatcher.Match(tags...)
	if conf == language.No {
		return language.Und, false
	}
	return supportedTags[idx], true
}

// LevelTitle returns the display title of a level.
func LevelTitle(p *message.Printer, l topics.Level) string {
	return p.Sprintf(message.Key("level."+string(l)+".title", string(l)))
}

// LevelDescription returns the one-line description of a level.
func LevelDescription(p *message.Printer, l topics.Level) string {
	return p.Sprintf(message.Key("level."+string(l)+".description", ""))
}

// EmptyLevel returns the message shown when a level has no conversation topics.
func EmptyLevel(p *message.Printer, l topics.Level) string {
	return p.Sprintf(KeyProblemEmptyLevel, LevelTitle(p, l))
}
