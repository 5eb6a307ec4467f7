package summarizer

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

const aiText = "AI is transforming industries. Many companies adopt AI. AI raises ethical questions. Ethics must guide AI adoption. Regulation is emerging slowly."

func TestExtractSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "terminated sentences",
			text: aiText,
			want: []string{
				"AI is transforming industries.",
				"Many companies adopt AI.",
				"AI raises ethical questions.",
				"Ethics must guide AI adoption.",
				"Regulation is emerging slowly.",
			},
		},
		{
			name: "short sentences dropped",
			text: "Too short. This one is long enough to keep! Ok?",
			want: []string{"This one is long enough to keep!"},
		},
		{
			name: "repeated terminators stay attached",
			text: "Is this really happening?!? It certainly seems so...",
			want: []string{"Is this really happening?!?", "It certainly seems so..."},
		},
		{
			name: "unterminated tail ignored",
			text: "The first sentence is complete. the rest trails off without end",
			want: []string{"The first sentence is complete."},
		},
		{
			name: "line fallback",
			text: "  first line without punctuation  \nshort\nsecond line also has no stop",
			want: []string{"first line without punctuation", "second line also has no stop"},
		},
		{
			name: "nothing qualifies",
			text: "tiny\nlines\nonly",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSentences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSentencesCountsCharacters(t *testing.T) {
	// 10 characters but 30 bytes
	if got := ExtractSentences("日本語の短い文です。"); len(got) != 0 {
		t.Errorf("Expected short multi-byte sentence to be dropped, got %q", got)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"AI is transforming industries.", []string{"transforming", "industries"}},
		{"Hello, WORLD! it's 2024", []string{"hello", "world", "its", "2024"}},
		{"snake_case and-dash", []string{"snakecase", "anddash"}},
		{"Café naïve résumé", []string{"café", "naïve", "résumé"}},
		{"a an the", []string{"the"}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := Tokenize(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	inputs := []string{aiText, "Mixed CASE, punctuation!!! and   spacing\n\tacross lines.", "Ünïcödé wörds 123 ok"}
	for _, input := range inputs {
		first := Tokenize(input)
		second := Tokenize(strings.Join(first, " "))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Tokenize not idempotent for %q: %q vs %q", input, first, second)
		}
	}
}

func TestTermFrequencies(t *testing.T) {
	tf := TermFrequencies([]string{"data", "data", "model", "data"})
	if tf["data"] != 0.75 || tf["model"] != 0.25 {
		t.Errorf("Unexpected frequencies: %v", tf)
	}
	if tf["missing"] != 0 {
		t.Errorf("Absent token should score 0")
	}
	if len(TermFrequencies(nil)) != 0 {
		t.Errorf("Expected empty map for no tokens")
	}
}

func TestSummaryLength(t *testing.T) {
	tests := []struct {
		count int
		ratio float64
		want  int
	}{
		{5, 0.4, 2},
		{10, 0.3, 3},
		{10, 1.0, 10},
		{10, 0.01, 2},
		{7, 0.5, 4},
		{1, 0.3, 1},
		{0, 0.3, 0},
	}
	for _, tt := range tests {
		if got := SummaryLength(tt.count, tt.ratio); got != tt.want {
			t.Errorf("SummaryLength(%d, %v) = %d, want %d", tt.count, tt.ratio, got, tt.want)
		}
	}
}

func TestSelectTopSentences(t *testing.T) {
	sentences := []string{
		"Cats sleep most of the day in the sun.",
		"Markets rallied on strong earnings reports.",
		"Cats and more cats chase other cats around.",
		"Weather stayed mild for the whole week.",
	}
	tokens := Tokenize(strings.Join(sentences, " "))
	tf := TermFrequencies(tokens)

	got := SelectTopSentences(sentences, tf, 2)
	want := []string{sentences[0], sentences[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectTopSentences() = %q, want %q", got, want)
	}

	if got := SelectTopSentences(sentences, tf, 10); !reflect.DeepEqual(got, sentences) {
		t.Errorf("Expected all sentences in original order, got %q", got)
	}
}

func TestSelectTopSentencesTiesKeepOrder(t *testing.T) {
	sentences := []string{"alpha beta gamma", "delta epsilon zeta", "theta iota kappa"}
	tf := TermFrequencies(Tokenize(strings.Join(sentences, " ")))

	got := SelectTopSentences(sentences, tf, 2)
	if !reflect.DeepEqual(got, sentences[:2]) {
		t.Errorf("Expected earliest tied sentences, got %q", got)
	}
}

func TestSummarizeScenarios(t *testing.T) {
	t.Run("frequent terms, ratio 0.4", func(t *testing.T) {
		// "ai" is only two characters long so it never counts as a token;
		// every sentence ties and the first two are kept.
		got := Summarize(aiText, 0.4, "")
		want := "AI is transforming industries. Many companies adopt AI."
		if got != want {
			t.Errorf("Summarize() = %q, want %q", got, want)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		for _, text := range []string{"", "   ", "\n\t\n"} {
			if got := Summarize(text, 0.3, ""); got != EmptyTextMessage {
				t.Errorf("Summarize(%q) = %q, want %q", text, got, EmptyTextMessage)
			}
		}
	})

	t.Run("no sentences", func(t *testing.T) {
		text := "short line\nanother one\n"
		want := "Unable to extract sentences from text. Original text length: 23 characters."
		if got := Summarize(text, 0.3, ""); got != want {
			t.Errorf("Summarize() = %q, want %q", got, want)
		}
	})

	t.Run("single long line", func(t *testing.T) {
		text := "no punctuation here and no newlines either just one long run"
		if got := Summarize(text, 0.3, ""); got != text {
			t.Errorf("Expected the line itself to be the summary, got %q", got)
		}
	})

	t.Run("ratio 1 keeps everything", func(t *testing.T) {
		var sentences []string
		for i := 0; i < 10; i++ {
			sentences = append(sentences, fmt.Sprintf("Sentence number %d talks about topic %c at length.", i, 'a'+i))
		}
		text := strings.Join(sentences, " ")
		if got := Summarize(text, 1.0, ""); got != text {
			t.Errorf("Summarize() = %q, want full text %q", got, text)
		}
	})
}

func TestSummarizeRequirementNote(t *testing.T) {
	got := Summarize(aiText, 0.4, "Focus on ethics")
	if !strings.HasSuffix(got, "\n\n[Note: Focus on ethics]") {
		t.Errorf("Expected requirement note suffix, got %q", got)
	}
	if strings.Contains(Summarize(aiText, 0.4, ""), "[Note:") {
		t.Errorf("Empty requirement should not add a note")
	}
}

func TestSummarizeWithoutTokens(t *testing.T) {
	text := "ab cd ef gh ij kl mn op."
	if got := Summarize(text, 0.3, ""); got != text+"..." {
		t.Errorf("Expected excerpt fallback, got %q", got)
	}

	long := strings.Repeat("ab. ", 200) + "cd ef gh ij kl mn op qr."
	got := Summarize(long, 0.3, "")
	if len([]rune(got)) != ExcerptLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected %d character excerpt, got %d", ExcerptLength+3, len([]rune(got)))
	}
}

func TestSummarizeRatioNormalization(t *testing.T) {
	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Paragraph %d covers subject %c in detail today.", i, 'k'+i))
	}
	text := strings.Join(sentences, " ")

	tests := []struct {
		ratio float64
		want  int
	}{
		{0, 3},
		{-1, 3},
		{math.NaN(), 3},
		{5, 10},
		{0.5, 5},
	}
	for _, tt := range tests {
		got := len(ExtractSentences(Summarize(text, tt.ratio, "")))
		if got != tt.want {
			t.Errorf("ratio %v: got %d sentences, want %d", tt.ratio, got, tt.want)
		}
	}
}

func TestSummarizeIsSubsequence(t *testing.T) {
	text := `Solar output rose sharply this quarter. Wind farms reported steady output.
Grid operators expect solar output to keep rising. Storage remains the main bottleneck for solar.
Analysts disagree on pricing. Policy changes could accelerate solar adoption further.`

	sentences := ExtractSentences(text)
	for _, ratio := range []float64{0.1, 0.3, 0.5, 0.9} {
		selected := SelectTopSentences(sentences, TermFrequencies(Tokenize(text)), SummaryLength(len(sentences), ratio))

		next := 0
		for _, s := range selected {
			found := false
			for next < len(sentences) {
				next++
				if sentences[next-1] == s {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("ratio %v: %q is out of order or not extracted", ratio, s)
			}
		}

		bound := int(math.Max(2, math.Ceil(float64(len(sentences))*ratio)))
		if len(selected) < 2 || len(selected) > bound || len(selected) > len(sentences) {
			t.Errorf("ratio %v: selected %d sentences, bound %d", ratio, len(selected), bound)
		}
	}
}

func TestSummarizeDetailed(t *testing.T) {
	detailed := SummarizeDetailed(aiText, 0.4, "", "")

	if detailed.Summary != Summarize(aiText, 0.4, "") {
		t.Errorf("Detailed summary differs from Summarize: %q", detailed.Summary)
	}

	stats := detailed.Stats
	originalLength := len([]rune(aiText))
	summaryLength := len([]rune(detailed.Summary))
	wantRatio := fmt.Sprintf("%.1f%%", (1-float64(summaryLength)/float64(originalLength))*100)

	if stats.OriginalLength != originalLength || stats.SummaryLength != summaryLength {
		t.Errorf("Unexpected lengths: %+v", stats)
	}
	if stats.CompressionRatio != wantRatio {
		t.Errorf("CompressionRatio = %s, want %s", stats.CompressionRatio, wantRatio)
	}
	if stats.OriginalSentences != 5 || stats.SummarySentences != 2 {
		t.Errorf("Unexpected sentence counts: %+v", stats)
	}
	if stats.Language != "" {
		t.Errorf("Expected empty language label to be echoed, got %q", stats.Language)
	}
}

func TestSummarizeDetailedDefaults(t *testing.T) {
	var sentences []string
	for i := 0; i < 8; i++ {
		sentences = append(sentences, fmt.Sprintf("Finding %d describes result %c of the experiment.", i, 'p'+i))
	}
	detailed := SummarizeDetailed(strings.Join(sentences, " "), 0, "", "Japanese")

	// ceil(8 * 0.25) = 2
	if detailed.Stats.SummarySentences != 2 {
		t.Errorf("Expected default detailed ratio to keep 2 sentences, got %d", detailed.Stats.SummarySentences)
	}
	if detailed.Stats.Language != "Japanese" {
		t.Errorf("Expected language echoed, got %s", detailed.Stats.Language)
	}

	empty := SummarizeDetailed("", 0, "", "")
	if empty.Summary != EmptyTextMessage || empty.Stats.CompressionRatio != "0.0%" {
		t.Errorf("Unexpected empty-text result: %+v", empty)
	}
}

func TestSummarizeDetailedEchoesLanguage(t *testing.T) {
	for _, language := range []string{"", "English", "klingon", "日本語"} {
		if got := SummarizeDetailed(aiText, 0.3, "", language).Stats.Language; got != language {
			t.Errorf("Language = %q, want %q", got, language)
		}
	}
}

func TestSummarizeAlwaysReturnsText(t *testing.T) {
	bangs := strings.Repeat("!", 30)
	inputs := []struct {
		name string
		text string
		want string
	}{
		{"single letter", "a", "Unable to extract sentences from text. Original text length: 1 characters."},
		{"non-latin", "日本語の文章はピリオドを使わずに句点で終わるので文を分割できません。これも同じです。", ""},
		{"invalid utf-8", "\xff\xfe", ""},
		{"punctuation only", bangs, bangs + "..."},
	}
	ratios := []float64{0, 1, math.Inf(1), math.NaN(), -5}

	for _, in := range inputs {
		for _, ratio := range ratios {
			t.Run(fmt.Sprintf("%s/%v", in.name, ratio), func(t *testing.T) {
				got := Summarize(in.text, ratio, "")
				if got == "" {
					t.Fatal("Expected a non-empty summary")
				}
				if in.want != "" && got != in.want {
					t.Errorf("Summarize() = %q, want %q", got, in.want)
				}

				detailed := SummarizeDetailed(in.text, ratio, "", "English")
				if detailed.Summary == "" || !strings.HasSuffix(detailed.Stats.CompressionRatio, "%") {
					t.Errorf("Unexpected detailed result: %+v", detailed)
				}
			})
		}
	}
}
