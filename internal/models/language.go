package models

// Language selects the response language for lookups and chat.
// It is session-scoped and never changes the shape of persisted data.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// RTL reports whether the language renders right-to-left.
func (l Language) RTL() bool {
	return l == LanguageArabic
}

// ParseLanguage maps a config/env value to a Language, defaulting to English.
func ParseLanguage(s string) Language {
	if s == string(LanguageArabic) || s == "arabic" {
		return LanguageArabic
	}
	return LanguageEnglish
}
