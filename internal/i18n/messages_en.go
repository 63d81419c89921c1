package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	// Levels
	message.SetString(lang, "level.beginner.title", "Beginner")
	message.SetString(lang, "level.beginner.description", "Basic conversation, simple sentences, plenty of guidance")
	message.SetString(lang, "level.intermediate.title", "Intermediate")
	message.SetString(lang, "level.intermediate.description", "Everyday conversation, natural expression, moderate challenge")
	message.SetString(lang, "level.advanced.title", "Advanced")
	message.SetString(lang, "level.advanced.description", "Complex situations, specialist vocabulary, in-depth discussion")

	// Problems
	message.SetString(lang, KeyProblemNotFound, "No matching subtopic was found. Please contact an administrator.")
	message.SetString(lang, KeyProblemFetchFailure, "Failed to load options")
	message.SetString(lang, KeyProblemEmptyLevel, "No %s conversation topics were found. Please contact an administrator.")

	// Steps
	message.SetString(lang, KeyStepLevel, "Choose a difficulty")
	message.SetString(lang, KeyStepTopic, "Choose a conversation topic")
	message.SetString(lang, KeyStepExam, "Exam practice topics")
	message.SetString(lang, KeyStepParty, "Choose your role")
	message.SetString(lang, KeyStepSection, "Choose a question type")
	message.SetString(lang, KeyStepOption, "Choose a question")

	// Actions
	message.SetString(lang, KeyNext, "Next")
	message.SetString(lang, KeyBack, "Back")
	message.SetString(lang, KeyStart, "Start conversation")
}
