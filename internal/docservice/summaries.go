package docservice

import (
	"context"
	"strings"

	"github.com/localrivet/docsummary/internal/documents"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/summarizer"
	"github.com/localrivet/docsummary/internal/telemetry"
)

// GenerateRequest asks for the summary of a stored document. When Text is
// empty the document's extracted text is summarized.
type GenerateRequest struct {
	DocumentName string `json:"documentName"`
	Text         string `json:"text,omitempty"`
	summarizer.Options
	Mode string `json:"mode,omitempty"`
}

// GenerateResult is a generated summary. Saved is false when the summary
// could not be persisted.
type GenerateResult struct {
	summarizer.Result
	DocumentName string `json:"documentName"`
	Saved        bool   `json:"saved"`
}

// TextSummary is the result of summarizing text directly with the local
// engine. Stats is only set for detailed summaries.
type TextSummary struct {
	Summary string            `json:"summary" yaml:"summary"`
	Stats   *summarizer.Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// Summarize summarizes text without storing anything. An empty mode uses the
// service default.
func (s *Service) Summarize(ctx context.Context, text string, opts summarizer.Options, mode string) (summarizer.Result, error) {
	if err := opts.Validate(); err != nil {
		return summarizer.Result{}, err
	}
	opts = s.withDefaults(opts)
	if mode == "" {
		mode = s.mode
	}
	if err := validMode(mode); err != nil {
		return summarizer.Result{}, err
	}

	engine := s.local
	if mode == ModeAuto && s.remote != nil {
		engine = s.remote
	}
	return engine.Summarize(ctx, summarizer.Request{Text: text, Options: opts})
}

func (s *Service) withDefaults(opts summarizer.Options) summarizer.Options {
	if opts.Ratio == 0 {
		opts.Ratio = s.defaults.Ratio
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = s.defaults.Language
	}
	return opts
}

// GenerateSummary summarizes a document and stores the summary under the
// document name. A storage failure is logged and the summary still returned.
func (s *Service) GenerateSummary(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	name := strings.TrimSpace(req.DocumentName)
	if name == "" {
		return nil, errortypes.ValidationError(nil, "missing documentName")
	}

	text := req.Text
	if strings.TrimSpace(text) == "" {
		stored, err := s.Text(ctx, documents.PathFor(name))
		if err != nil {
			return nil, err
		}
		text = stored
	}
	if strings.TrimSpace(text) == "" {
		return nil, errortypes.ValidationError(nil, "document has no text to summarize").WithField("document", name)
	}

	opts := s.withDefaults(req.Options)
	result, err := s.Summarize(ctx, text, opts, req.Mode)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementCounter(telemetry.MetricSummariesGenerated, 1)

	out := &GenerateResult{Result: result, DocumentName: name}
	err = s.store.SaveSummary(&documents.Summary{
		DocumentName: name,
		Summary:      result.Summary,
		Provider:     result.Provider,
		Language:     summarizer.LanguageName(opts.Language),
		Requirement:  opts.Requirement,
	})
	if err != nil {
		s.metrics.IncrementCounter(telemetry.MetricSummaryPersistFail, 1)
		errortypes.LogError(s.logger, errortypes.DatabaseError(err, "failed to save summary").WithField("document", name))
		return out, nil
	}

	out.Saved = true
	s.logger.Info("Summary generated", "document", name, "provider", result.Provider, "summary_length", len(result.Summary))
	return out, nil
}

// GetSummary returns the stored summary of the named document, or nil when
// none has been generated yet.
func (s *Service) GetSummary(ctx context.Context, documentName string) (*documents.Summary, error) {
	if strings.TrimSpace(documentName) == "" {
		return nil, errortypes.ValidationError(nil, "missing documentName")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, err := s.store.GetSummary(documentName)
	if errortypes.IsNotFoundError(err) {
		return nil, nil
	}
	return summary, err
}

// UpdateSummary replaces the stored summary of the named document with text.
// The language and requirement of an existing summary are kept.
func (s *Service) UpdateSummary(ctx context.Context, documentName, text string) (*documents.Summary, error) {
	if strings.TrimSpace(documentName) == "" || strings.TrimSpace(text) == "" {
		return nil, errortypes.ValidationError(nil, "missing documentName or summary")
	}

	updated := &documents.Summary{
		DocumentName: documentName,
		Summary:      text,
		Provider:     ProviderManual,
	}
	existing, err := s.GetSummary(ctx, documentName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updated.Language = existing.Language
		updated.Requirement = existing.Requirement
		updated.CreatedAt = existing.CreatedAt
	}

	if err := s.store.SaveSummary(updated); err != nil {
		return nil, err
	}
	s.metrics.IncrementCounter(telemetry.MetricSummariesUpdated, 1)
	return updated, nil
}

// SummarizeText runs the local engine on text. With detailed set the
// statistics of the summary are included and the detailed default ratio
// applies.
func (s *Service) SummarizeText(text string, opts summarizer.Options, detailed bool) (*TextSummary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if !detailed {
		return &TextSummary{Summary: summarizer.Summarize(text, opts.Ratio, opts.Requirement)}, nil
	}

	d := summarizer.SummarizeDetailed(text, opts.Ratio, opts.Requirement, summarizer.LanguageName(opts.Language))
	return &TextSummary{Summary: d.Summary, Stats: &d.Stats}, nil
}
