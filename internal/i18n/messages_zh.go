package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.TraditionalChinese

	// Levels
	message.SetString(lang, "level.beginner.title", "初級")
	message.SetString(lang, "level.beginner.description", "基礎對話，簡單句型，充分引導")
	message.SetString(lang, "level.intermediate.title", "中級")
	message.SetString(lang, "level.intermediate.description", "日常對話，自然表達，適度挑戰")
	message.SetString(lang, "level.advanced.title", "高級")
	message.SetString(lang, "level.advanced.description", "複雜情境，專業詞彙，深度討論")

	// Problems
	message.SetString(lang, KeyProblemNotFound, "找不到相關子主題，請聯絡管理員。")
	message.SetString(lang, KeyProblemFetchFailure, "載入選項時發生錯誤")
	message.SetString(lang, KeyProblemEmptyLevel, "找不到%s對話主題，請聯絡管理員。")

	// Steps
	message.SetString(lang, KeyStepLevel, "選擇練習難度")
	message.SetString(lang, KeyStepTopic, "選擇對話主題")
	message.SetString(lang, KeyStepExam, "備考必練主題")
	message.SetString(lang, KeyStepParty, "選擇對話角色")
	message.SetString(lang, KeyStepSection, "選擇題型")
	message.SetString(lang, KeyStepOption, "選擇題目")

	// Actions
	message.SetString(lang, KeyNext, "下一步")
	message.SetString(lang, KeyBack, "返回")
	message.SetString(lang, KeyStart, "開始對話")
}
