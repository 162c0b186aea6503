// Package language normalizes target-language settings.
//
// Users may name a language by English word ("spanish"), display name
// ("Spanish"), or BCP 47 tag ("es", "pt-BR"). Resolve accepts any of these
// and returns a canonical form with the English display name used in prompt
// text.
package language
