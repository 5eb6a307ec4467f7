package summarizer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultRatio is the share of sentences kept by Summarize.
	DefaultRatio = 0.3

	// DefaultDetailedRatio is the share of sentences kept by SummarizeDetailed.
	DefaultDetailedRatio = 0.25

	// DefaultLanguage is echoed in summary statistics when no language is given.
	DefaultLanguage = "English"

	// MinSentenceLength is the trimmed length a sentence must exceed to be a candidate.
	MinSentenceLength = 20

	// MinTokenLength is the length a token must exceed to be counted.
	MinTokenLength = 2

	// MinSummarySentences is the floor on the number of selected sentences.
	MinSummarySentences = 2

	// ExcerptLength is the number of characters kept by the truncation fallback.
	ExcerptLength = 500

	// EmptyTextMessage is returned for empty or whitespace-only input.
	EmptyTextMessage = "No text provided for summarization."
)

var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+`)

// Stats describes a produced summary relative to its source text.
type Stats struct {
	OriginalLength    int    `json:"originalLength" yaml:"originalLength"`
	SummaryLength     int    `json:"summaryLength" yaml:"summaryLength"`
	CompressionRatio  string `json:"compressionRatio" yaml:"compressionRatio"`
	OriginalSentences int    `json:"originalSentences" yaml:"originalSentences"`
	SummarySentences  int    `json:"summarySentences" yaml:"summarySentences"`
	Language          string `json:"language" yaml:"language"`
}

// Detailed is a summary together with its statistics.
type Detailed struct {
	Summary string `json:"summary" yaml:"summary"`
	Stats   Stats  `json:"stats" yaml:"stats"`
}

// ExtractSentences splits text into candidate sentences. A sentence is a run of
// characters closed by one or more of '.', '!' or '?' whose trimmed length is
// above MinSentenceLength. When no such run exists, non-empty lines of the same
// minimum length are used instead. The result may be empty.
func ExtractSentences(text string) []string {
	var sentences []string
	for _, match := range sentencePattern.FindAllString(text, -1) {
		if s := strings.TrimSpace(match); charCount(s) > MinSentenceLength {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 0 {
		return sentences
	}

	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); charCount(s) > MinSentenceLength {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Tokenize lowercases text, drops everything that is not a letter, digit or
// whitespace, and returns the words longer than MinTokenLength.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if charCount(word) > MinTokenLength {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// TermFrequencies maps each distinct token to its share of all tokens.
func TermFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64)
	if len(tokens) == 0 {
		return tf
	}
	for _, token := range tokens {
		tf[token]++
	}
	total := float64(len(tokens))
	for token, count := range tf {
		tf[token] = count / total
	}
	return tf
}

// scoreSentence averages the term frequencies of the sentence's tokens.
func scoreSentence(sentence string, tf map[string]float64) float64 {
	tokens := Tokenize(sentence)
	if len(tokens) == 0 {
		return 0
	}
	var score float64
	for _, token := range tokens {
		score += tf[token]
	}
	return score / float64(len(tokens))
}

// SelectTopSentences returns the n highest scoring sentences in their original
// order. Equal scores keep their original relative order.
func SelectTopSentences(sentences []string, tf map[string]float64, n int) []string {
	type scored struct {
		index int
		score float64
	}

	ranked := make([]scored, len(sentences))
	for i, sentence := range sentences {
		ranked[i] = scored{index: i, score: scoreSentence(sentence, tf)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	top := ranked[:n]
	sort.Slice(top, func(i, j int) bool {
		return top[i].index < top[j].index
	})

	selected := make([]string, len(top))
	for i, item := range top {
		selected[i] = sentences[item.index]
	}
	return selected
}

// SummaryLength is the number of sentences kept out of count for ratio.
func SummaryLength(count int, ratio float64) int {
	n := int(math.Ceil(float64(count) * ratio))
	if n < MinSummarySentences {
		n = MinSummarySentences
	}
	if n > count {
		n = count
	}
	return n
}

// Summarize builds an extractive summary of text keeping roughly ratio of its
// sentences. A non-empty requirement is appended as a bracketed note. It never
// panics: internal failures degrade to a truncated excerpt of text.
func Summarize(text string, ratio float64, requirement string) (summary string) {
	if strings.TrimSpace(text) == "" {
		return EmptyTextMessage
	}

	defer func() {
		if r := recover(); r != nil {
			summary = excerpt(text)
		}
	}()

	return summarize(text, normalizeRatio(ratio, DefaultRatio), requirement)
}

func summarize(text string, ratio float64, requirement string) string {
	sentences := ExtractSentences(text)
	if len(sentences) == 0 {
		return fmt.Sprintf("Unable to extract sentences from text. Original text length: %d characters.", charCount(text))
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return excerpt(text)
	}

	selected := SelectTopSentences(sentences, TermFrequencies(tokens), SummaryLength(len(sentences), ratio))
	return appendRequirement(strings.Join(selected, " "), requirement)
}

// SummarizeDetailed summarizes text like Summarize and reports statistics
// about the result. The language label is echoed back unchanged; callers
// resolve defaults with LanguageName or Options.WithDefaults.
func SummarizeDetailed(text string, ratio float64, requirement, language string) Detailed {
	summary := Summarize(text, normalizeRatio(ratio, DefaultDetailedRatio), requirement)

	originalLength := charCount(text)
	summaryLength := charCount(summary)

	return Detailed{
		Summary: summary,
		Stats: Stats{
			OriginalLength:    originalLength,
			SummaryLength:     summaryLength,
			CompressionRatio:  compressionRatio(originalLength, summaryLength),
			OriginalSentences: len(ExtractSentences(text)),
			SummarySentences:  len(ExtractSentences(summary)),
			Language:          language,
		},
	}
}

func compressionRatio(originalLength, summaryLength int) string {
	if originalLength == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", (1-float64(summaryLength)/float64(originalLength))*100)
}

func appendRequirement(summary, requirement string) string {
	if requirement == "" {
		return summary
	}
	return summary + "\n\n[Note: " + requirement + "]"
}

func normalizeRatio(ratio, fallback float64) float64 {
	switch {
	case math.IsNaN(ratio) || ratio <= 0:
		return fallback
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}

// excerpt keeps the first ExcerptLength characters of text followed by "...".
func excerpt(text string) string {
	if charCount(text) <= ExcerptLength {
		return text + "..."
	}
	runes := []rune(text)
	return string(runes[:ExcerptLength]) + "..."
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
