// Package docservice implements the document and summary operations shared by
// the HTTP API, the MCP tool server and the CLI.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/localrivet/docsummary/internal/documents"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/extract"
	"github.com/localrivet/docsummary/internal/summarizer"
	"github.com/localrivet/docsummary/internal/telemetry"
	"github.com/localrivet/docsummary/internal/util"
)

// Summary modes
const (
	// ModeAuto tries remote providers before the local engine.
	ModeAuto = "auto"
	// ModeLocal only uses the local extractive engine.
	ModeLocal = "local"
)

// ProviderManual marks summaries edited by a user.
const ProviderManual = "manual"

// DefaultMaxUploadBytes is the upload size limit (50 MiB).
const DefaultMaxUploadBytes = 50 << 20

// ServePath is the route that streams stored documents back to clients.
const ServePath = "/api/documents/serve"

// ErrMissingStore is returned by New when no store is configured.
var ErrMissingStore = errors.New("document store is required")

// Config holds the dependencies and settings of a Service.
type Config struct {
	Store documents.Store
	// Summarizer is used in ModeAuto. When nil every summary is made locally.
	Summarizer summarizer.Summarizer
	Metrics    *telemetry.MetricsCollector
	Logger     *slog.Logger

	MaxUploadBytes int64
	PublicBaseURL  string
	Mode           string

	// Defaults fills the ratio and language of requests that leave them unset.
	Defaults summarizer.Options
}

// Service coordinates the document store, text extraction and summarizers.
type Service struct {
	store          documents.Store
	remote         summarizer.Summarizer
	local          summarizer.Summarizer
	metrics        *telemetry.MetricsCollector
	logger         *slog.Logger
	maxUploadBytes int64
	baseURL        string
	mode           string
	defaults       summarizer.Options
	newID          func() string
}

// New creates a Service from cfg, filling in defaults for unset settings.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errortypes.ConfigError(ErrMissingStore, "document service initialization failed")
	}

	s := &Service{
		store:          cfg.Store,
		remote:         cfg.Summarizer,
		local:          summarizer.NewLocalSummarizer(),
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		maxUploadBytes: cfg.MaxUploadBytes,
		baseURL:        strings.TrimRight(cfg.PublicBaseURL, "/"),
		mode:           cfg.Mode,
		defaults:       summarizer.Options{Ratio: cfg.Defaults.Ratio, Language: cfg.Defaults.Language},
		newID:          uuid.NewString,
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetricsCollector()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "docservice")
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = DefaultMaxUploadBytes
	}
	if s.mode == "" {
		s.mode = ModeAuto
	}
	if err := validMode(s.mode); err != nil {
		return nil, err
	}
	if err := s.defaults.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func validMode(mode string) error {
	if mode != ModeAuto && mode != ModeLocal {
		return errortypes.ValidationError(nil, fmt.Sprintf("unknown summary mode %q, want %s or %s", mode, ModeAuto, ModeLocal)).
			WithField("mode", mode)
	}
	return nil
}

// Metrics returns the collector the service records into.
func (s *Service) Metrics() *telemetry.MetricsCollector {
	return s.metrics
}

// MaxUploadBytes returns the upload size limit.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload stores data as the document called name, replacing any previous
// upload of the same name. The content type is taken from contentType when
// it is supported and detected from the file extension otherwise.
func (s *Service) Upload(ctx context.Context, name, contentType string, data []byte) (*documents.Document, error) {
	if !documents.ValidName(name) {
		return nil, errortypes.ValidationError(nil, "invalid file name").WithField("name", name)
	}
	if len(data) == 0 {
		return nil, errortypes.ValidationError(nil, "no file provided")
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, errortypes.ValidationError(nil, fmt.Sprintf("file size exceeds %dMB limit", s.maxUploadBytes>>20)).
			WithField("size", len(data))
	}

	ct := extract.DetectContentType(name, contentType)
	if !extract.Allowed(ct) {
		return nil, errortypes.UnsupportedError(nil, "invalid file type, only txt, PDF and HTML are allowed").
			WithField("content_type", contentType)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A document whose text cannot be extracted is still stored; ExtractText
	// reports the failure when the text is requested.
	text, err := extract.Text(ct, data)
	if err != nil {
		s.logger.Warn("Text extraction failed during upload", "name", name, "content_type", ct, "error", err)
		text = ""
	}

	doc := &documents.Document{
		ID:          s.newID(),
		Path:        documents.PathFor(name),
		Name:        name,
		ContentType: ct,
		Size:        int64(len(data)),
		Checksum:    util.ContentHash(data),
		Content:     data,
		Text:        text,
	}
	if err := s.store.SaveDocument(doc); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(telemetry.MetricDocumentsUploaded, 1)
	s.metrics.RecordTimestamp(telemetry.MetricLastUpload)
	s.logger.Info("Document uploaded", "path", doc.Path, "content_type", ct, "size", doc.Size)
	return doc, nil
}

// List returns the stored documents, newest first.
func (s *Service) List(ctx context.Context) ([]documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(documents.Prefix)
}

// Get returns the document at path including its content.
func (s *Service) Get(ctx context.Context, path string) (*documents.Document, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetDocument(path)
}

// Text returns the text of the document at path. The text stored at upload
// is used when present; otherwise the content is extracted again.
func (s *Service) Text(ctx context.Context, path string) (string, error) {
	doc, err := s.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if doc.Text != "" {
		return doc.Text, nil
	}
	return extract.Text(doc.ContentType, doc.Content)
}

// ExtractText parses the stored content of the document at path again and
// returns its text.
func (s *Service) ExtractText(ctx context.Context, path string) (string, error) {
	doc, err := s.Get(ctx, path)
	if err != nil {
		return "", err
	}
	return extract.Text(doc.ContentType, doc.Content)
}

// Delete removes the document at path together with its summary.
func (s *Service) Delete(ctx context.Context, path string) error {
	if err := requirePath(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(path); err != nil {
		return err
	}
	s.metrics.IncrementCounter(telemetry.MetricDocumentsDeleted, 1)
	s.logger.Info("Document deleted", "path", path)
	return nil
}

// PublicURL returns the URL under which the document at path is served.
func (s *Service) PublicURL(path string) (string, error) {
	if err := requirePath(path); err != nil {
		return "", err
	}
	return s.baseURL + ServePath + "?path=" + url.QueryEscape(path), nil
}

func requirePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errortypes.ValidationError(nil, "no file path provided")
	}
	return nil
}
