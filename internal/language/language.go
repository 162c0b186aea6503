package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a resolved target language.
type Language struct {
	// Tag is the canonical BCP 47 tag, e.g. "es" or "pt-BR".
	Tag string
	// Name is the English display name used in prompt text, e.g. "Spanish".
	Name string
}

// Resolve normalizes a user-supplied language value. It accepts BCP 47 tags
// and English language names in any casing.
func Resolve(value string) (Language, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Language{}, fmt.Errorf("empty language")
	}

	if tag, err := language.Parse(trimmed); err == nil {
		name := display.English.Tags().Name(tag)
		if name == "" {
			name = cases.Title(language.Und).String(trimmed)
		}
		return Language{Tag: tag.String(), Name: name}, nil
	}

	// Not a tag; try matching an English display name.
	title := cases.Title(language.Und).String(strings.ToLower(trimmed))
	for _, tag := range display.Supported.Tags() {
		if display.English.Tags().Name(tag) == title {
			return Language{Tag: tag.String(), Name: title}, nil
		}
	}

	return Language{}, fmt.Errorf("unrecognized language %q", value)
}

// NameOrDefault resolves value to a display name, returning fallback when the
// value is empty or unrecognized.
func NameOrDefault(value, fallback string) string {
	lang, err := Resolve(value)
	if err != nil {
		return fallback
	}
	return lang.Name
}
