// Package topics parses conversation topic definitions and samples them for display.
//
// Topic definitions arrive as free text in the options catalogue, for example
//
//	Ordering coffee[barista, customer], Job interview[interviewer, candidate]
//
// Each bracket group becomes one Entry.
package topics

import (
	"regexp"
	"strings"
)

// entryPattern matches one `label[item, item]` group. The label may not contain a comma
// or an opening bracket, so the comma separating groups is skipped naturally.
var entryPattern = regexp.MustCompile(`([^,\[]+)\[([^\]]+)\]`)

// Entry is one conversation topic with the roles a learner can play in it.
type Entry struct {
	Topic   string   `json:"topic"`
	Parties []string `json:"parties"`
	// Raw is the matched source text. Two entries may share a Topic label, so Raw is the
	// key used to tell them apart.
	Raw string `json:"raw"`
}

// Parse decodes every `label[item, ...]` group in raw, in source order.
// Text without bracket groups yields an empty slice, never nil.
func Parse(raw string) []Entry {
	entries := []Entry{}
	for _, m := range entryPattern.FindAllStringSubmatch(raw, -1) {
		label := strings.TrimSpace(m[1])
		if label == "" {
			continue
		}
		parties := splitList(m[2])
		if len(parties) == 0 {
			continue
		}
		entries = append(entries, Entry{Topic: label, Parties: parties, Raw: m[0]})
	}
	return entries
}

// splitList splits a comma-separated list, trimming items and dropping empty ones.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasParty reports whether party is one of the entry's roles.
func (e Entry) HasParty(party string) bool {
	for _, p := range e.Parties {
		if p == party {
			return true
		}
	}
	return false
}
