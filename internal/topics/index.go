package topics

import "strings"

// Level is a difficulty level offered in the first wizard step.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists the difficulty levels in display order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseLevel accepts a level key case-insensitively.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// LevelIndex holds the parsed entries of every level for one subtopic, so switching
// levels never needs another fetch.
type LevelIndex map[Level][]Entry

// Entries returns the entries for a level. A missing level yields an empty slice.
func (ix LevelIndex) Entries(l Level) []Entry {
	if e, ok := ix[l]; ok {
		return e
	}
	return []Entry{}
}

// Empty reports whether no level has any entry.
func (ix LevelIndex) Empty() bool {
	for _, e := range ix {
		if len(e) > 0 {
			return false
		}
	}
	return true
}

// BuildIndex parses the free text of each level.
func BuildIndex(texts map[Level]string) LevelIndex {
	ix := make(LevelIndex, len(Levels))
	for _, l := range Levels {
		ix[l] = Parse(texts[l])
	}
	return ix
}

// BuildFlatIndex builds an index from a single topic list shared by every level.
// Bracketed topics carry their own parties. Plain comma-separated topics all receive
// the parties listed in partiesText.
func BuildFlatIndex(topicsText, partiesText string) LevelIndex {
	entries := Parse(topicsText)
	if len(entries) == 0 {
		parties := splitList(partiesText)
		if len(parties) > 0 {
			for _, t := range splitList(topicsText) {
				entries = append(entries, Entry{Topic: t, Parties: parties, Raw: t})
			}
		}
	}
	ix := make(LevelIndex, len(Levels))
	for _, l := range Levels {
		ix[l] = entries
	}
	return ix
}
