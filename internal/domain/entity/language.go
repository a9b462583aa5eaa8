package entity

import "strings"

// Language is the user-facing display language preference.
type Language string

const (
	LanguageSK Language = "SK"
	LanguageEN Language = "EN"
)

// DefaultLanguage is used until a preference is stored.
const DefaultLanguage = LanguageSK

// ParseLanguage decodes a stored or submitted language code.
func ParseLanguage(s string) (Language, bool) {
	switch lang := Language(strings.ToUpper(strings.TrimSpace(s))); lang {
	case LanguageSK, LanguageEN:
		return lang, true
	default:
		return DefaultLanguage, false
	}
}
