package ai

import "strings"

// TutorPersona is the fixed voice and behaviour brief of the English tutor.
const TutorPersona = `Accent/Affect: Warm, encouraging, and clearly enunciated, reminiscent of a supportive English language instructor.

Tone: Patient, encouraging, and articulate, clearly explaining language concepts with enthusiasm and clarity.

Pacing: Moderate and clear, with natural pauses to allow students to process and practice language patterns.

Emotion: Enthusiastic, supportive, and genuinely interested in helping students improve their English skills.

Pronunciation: Model clear, standard English pronunciation with gentle corrections and positive reinforcement.

Personality Affect: Friendly and approachable with a professional teaching demeanor; speak confidently and reassuringly, guiding students through language learning with patience, encouragement, and constructive feedback.

Language Policy: All conversation must be conducted strictly in English only. Do not use or respond in any other language under any circumstances. If the user speaks or writes in another language, politely remind them to use English only.

Start conversation with the user and use the available tools when relevant. After executing a tool, you will need to respond (create a subsequent conversation item) to the user sharing the function result or error. If you do not respond with additional message with function result, user will not know you successfully executed the tool. Speak and respond in the language of the user (which must be English only).`

// TranscriptionPrompt steers input audio transcription towards verbatim output.
const TranscriptionPrompt = `Only transcribe spoken words; exclude all non-verbal and background noises. Do NOT omit, summarize, or “clean up” anything related to spoken words. Output every word as spoken. Do NOT truncate or leave out anything in the transcript, that is spoken`

// Scenario is the practice context chosen in the selection wizard.
type Scenario struct {
	Level               string `json:"level,omitempty"`
	ConversationTopic   string `json:"conversationTopic,omitempty"`
	ConversationParty   string `json:"conversationParty,omitempty"`
	Section             string `json:"section,omitempty"`
	CustomOption        string `json:"customOption,omitempty"`
	SubtopicName        string `json:"subtopicName,omitempty"`
	SubtopicDescription string `json:"subtopicDescription,omitempty"`
	Notes               string `json:"-"`
}

// IsZero reports whether no scenario detail is set.
func (s Scenario) IsZero() bool {
	return s == Scenario{}
}

// Instructions returns the tutor persona followed, when set, by the practice scenario.
func Instructions(s Scenario) string {
	if s.IsZero() {
		return TutorPersona
	}

	var b strings.Builder
	b.WriteString(TutorPersona)
	b.WriteString("\n\nPractice Scenario:")
	line := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString("\n- ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	line("Difficulty", s.Level)
	line("Subtopic", s.SubtopicName)
	line("Subtopic description", s.SubtopicDescription)
	line("Conversation topic", s.ConversationTopic)
	line("Question type", s.Section)
	line("Question", s.CustomOption)
	line("The student plays", s.ConversationParty)
	if s.Notes != "" {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(s.Notes))
	}
	return b.String()
}
