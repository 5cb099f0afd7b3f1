package model

// Language, Visibility and Expiration are closed enumerations stored as
// plain strings. Values outside the declared set survive a load/save round
// trip untouched; Kind maps them to the Other variant so callers can detect
// them.

type Language string

const (
	LanguagePlaintext  Language = "plaintext"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
	LanguagePHP        Language = "php"
	LanguageRuby       Language = "ruby"
	LanguageSwift      Language = "swift"
	LanguageKotlin     Language = "kotlin"
	LanguageJSON       Language = "json"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageSQL        Language = "sql"
	LanguageBash       Language = "bash"
	LanguageYAML       Language = "yaml"
	LanguageMarkdown   Language = "markdown"

	LanguageOther Language = "other"
)

var languages = []Language{
	LanguagePlaintext, LanguageJavaScript, LanguageTypeScript, LanguagePython,
	LanguageJava, LanguageC, LanguageCPP, LanguageCSharp, LanguageGo,
	LanguageRust, LanguagePHP, LanguageRuby, LanguageSwift, LanguageKotlin,
	LanguageJSON, LanguageHTML, LanguageCSS, LanguageSQL, LanguageBash,
	LanguageYAML, LanguageMarkdown,
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func (l Language) Known() bool {
	for _, known := range languages {
		if l == known {
			return true
		}
	}
	return false
}

func (l Language) Kind() Language {
	if l.Known() {
		return l
	}
	return LanguageOther
}

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"

	VisibilityOther Visibility = "other"
)

var visibilities = []Visibility{VisibilityPublic, VisibilityUnlisted, VisibilityPrivate}

func Visibilities() []Visibility {
	out := make([]Visibility, len(visibilities))
	copy(out, visibilities)
	return out
}

func (v Visibility) Known() bool {
	for _, known := range visibilities {
		if v == known {
			return true
		}
	}
	return false
}

func (v Visibility) Kind() Visibility {
	if v.Known() {
		return v
	}
	return VisibilityOther
}

// Expiration is recorded with a bin but never enforced.
type Expiration string

const (
	ExpirationNever Expiration = "never"
	ExpirationHour  Expiration = "1h"
	ExpirationDay   Expiration = "1d"
	ExpirationWeek  Expiration = "7d"
	ExpirationMonth Expiration = "30d"

	ExpirationOther Expiration = "other"
)

var expirations = []Expiration{ExpirationNever, ExpirationHour, ExpirationDay, ExpirationWeek, ExpirationMonth}

func Expirations() []Expiration {
	out := make([]Expiration, len(expirations))
	copy(out, expirations)
	return out
}

func (e Expiration) Known() bool {
	for _, known := range expirations {
		if e == known {
			return true
		}
	}
	return false
}

func (e Expiration) Kind() Expiration {
	if e.Known() {
		return e
	}
	return ExpirationOther
}
