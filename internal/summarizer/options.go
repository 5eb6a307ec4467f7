package summarizer

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/localrivet/docsummary/internal/errortypes"
)

// MaxRequirementLength bounds the free-text requirement accepted from callers.
const MaxRequirementLength = 1000

// Options are the caller-tunable knobs of a summary request.
type Options struct {
	// Ratio is the share of sentences kept, in (0, 1]. Zero means DefaultRatio.
	Ratio float64 `json:"ratio,omitempty" yaml:"ratio,omitempty"`
	// Requirement is appended to the summary as a note (local engine) or
	// passed to remote providers as a special requirement.
	Requirement string `json:"requirement,omitempty" yaml:"requirement,omitempty"`
	// Language is a code (en, zh, ja) or a language name. Empty means English.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// DefaultOptions returns the options used when the caller gives none.
func DefaultOptions() Options {
	return Options{Ratio: DefaultRatio, Language: DefaultLanguage}
}

// Validate rejects options that could not come from a well-behaved client.
func (o Options) Validate() error {
	if math.IsNaN(o.Ratio) || o.Ratio < 0 || o.Ratio > 1 {
		return errortypes.ValidationError(nil, fmt.Sprintf("ratio must be within (0, 1], got %v", o.Ratio)).
			WithField("ratio", o.Ratio)
	}
	if n := utf8.RuneCountInString(o.Requirement); n > MaxRequirementLength {
		return errortypes.ValidationError(nil, fmt.Sprintf("requirement is %d characters, limit is %d", n, MaxRequirementLength))
	}
	return nil
}

// WithDefaults fills unset fields and resolves the language code to a name.
func (o Options) WithDefaults(defaultRatio float64) Options {
	if o.Ratio <= 0 {
		o.Ratio = defaultRatio
	}
	o.Language = LanguageName(o.Language)
	return o
}

var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"ja": "Japanese",
}

// LanguageName maps the language codes offered to users to the language
// name used in prompts and statistics. Unknown values pass through trimmed.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage
	}
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
