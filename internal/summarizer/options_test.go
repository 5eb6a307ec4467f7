package summarizer

import (
	"math"
	"strings"
	"testing"

	"github.com/localrivet/docsummary/internal/errortypes"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"unset ratio", Options{}, false},
		{"full ratio", Options{Ratio: 1}, false},
		{"negative ratio", Options{Ratio: -0.1}, true},
		{"ratio above one", Options{Ratio: 1.5}, true},
		{"nan ratio", Options{Ratio: math.NaN()}, true},
		{"long requirement", Options{Requirement: strings.Repeat("x", MaxRequirementLength+1)}, true},
		{"requirement at limit", Options{Requirement: strings.Repeat("語", MaxRequirementLength)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errortypes.IsValidationError(err) {
				t.Errorf("Expected validation error, got %T", err)
			}
		})
	}
}

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"":        "English",
		"en":      "English",
		"zh":      "Chinese",
		"JA":      "Japanese",
		" French": "French",
		"Spanish": "Spanish",
	}
	for input, want := range tests {
		if got := LanguageName(input); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{Language: "zh"}.WithDefaults(DefaultDetailedRatio)
	if opts.Ratio != DefaultDetailedRatio || opts.Language != "Chinese" {
		t.Errorf("Unexpected defaults: %+v", opts)
	}

	opts = Options{Ratio: 0.6, Requirement: "bullets"}.WithDefaults(DefaultRatio)
	if opts.Ratio != 0.6 || opts.Requirement != "bullets" || opts.Language != DefaultLanguage {
		t.Errorf("Explicit values overwritten: %+v", opts)
	}
}
