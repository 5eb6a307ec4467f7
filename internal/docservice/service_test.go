package docservice

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/localrivet/docsummary/internal/documents"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/summarizer"
	"github.com/localrivet/docsummary/internal/telemetry"
)

// MockStore is an in-memory documents.Store for testing
type MockStore struct {
	mu          sync.Mutex
	docs        map[string]documents.Document
	summaries   map[string]documents.Summary
	summaryErr  error
	saveCalls   int
	initialized bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		docs:      make(map[string]documents.Document),
		summaries: make(map[string]documents.Summary),
	}
}

func (m *MockStore) Initialize(string) error {
	m.initialized = true
	return nil
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) SaveDocument(doc *documents.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.docs[doc.Path] = *doc
	return nil
}

func (m *MockStore) GetDocument(path string) (*documents.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		return nil, errortypes.NotFoundError(nil, "document not found")
	}
	return &doc, nil
}

func (m *MockStore) ListDocuments(prefix string) ([]documents.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := []documents.Document{}
	for p, doc := range m.docs {
		if strings.HasPrefix(p, prefix) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (m *MockStore) DeleteDocument(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[path]; !ok {
		return errortypes.NotFoundError(nil, "document not found")
	}
	delete(m.docs, path)
	delete(m.summaries, documents.NameOf(path))
	return nil
}

func (m *MockStore) SaveSummary(summary *documents.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.summaryErr != nil {
		return m.summaryErr
	}
	m.summaries[summary.DocumentName] = *summary
	return nil
}

func (m *MockStore) GetSummary(name string) (*documents.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, ok := m.summaries[name]
	if !ok {
		return nil, errortypes.NotFoundError(nil, "summary not found")
	}
	return &summary, nil
}

// MockSummarizer records requests and returns a fixed result
type MockSummarizer struct {
	result   summarizer.Result
	err      error
	requests []summarizer.Request
}

func (m *MockSummarizer) Initialize() error { return nil }

func (m *MockSummarizer) Summarize(_ context.Context, req summarizer.Request) (summarizer.Result, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

const sampleText = "Machine learning models need large amounts of training data. " +
	"Training data quality matters more than model size in many cases. " +
	"Researchers collect training data from many public sources every year. " +
	"Cats are popular pets around the world."

func newTestService(t *testing.T, remote summarizer.Summarizer) (*Service, *MockStore) {
	t.Helper()
	store := NewMockStore()
	svc, err := New(Config{Store: store, Summarizer: remote, PublicBaseURL: "http://localhost:8080/"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	svc.newID = func() string { return "fixed-id" }
	return svc, store
}

func TestNew(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrMissingStore) {
		t.Errorf("Expected ErrMissingStore, got %v", err)
	}
	if _, err := New(Config{Store: NewMockStore(), Mode: "remote"}); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error for unknown mode, got %v", err)
	}

	svc, err := New(Config{Store: NewMockStore()})
	if err != nil {
		t.Fatal(err)
	}
	if svc.MaxUploadBytes() != DefaultMaxUploadBytes || svc.mode != ModeAuto || svc.Metrics() == nil {
		t.Errorf("Defaults not applied: max=%d mode=%s", svc.MaxUploadBytes(), svc.mode)
	}
}

func TestUpload(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "notes.txt", "text/plain; charset=utf-8", []byte(sampleText))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if doc.Path != "documents/notes.txt" || doc.ID != "fixed-id" || doc.ContentType != "text/plain" {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if doc.Text != sampleText || doc.Size != int64(len(sampleText)) || len(doc.Checksum) != 64 {
		t.Errorf("Unexpected text, size or checksum: %+v", doc)
	}
	if svc.Metrics().GetCounter(telemetry.MetricDocumentsUploaded) != 1 {
		t.Errorf("Expected upload to be counted")
	}

	// Uploading the same name replaces the document
	if _, err := svc.Upload(ctx, "notes.txt", "", []byte("Replaced content.")); err != nil {
		t.Fatal(err)
	}
	docs, _ := svc.List(ctx)
	if len(docs) != 1 || store.docs["documents/notes.txt"].Text != "Replaced content." {
		t.Errorf("Expected upsert by name, got %+v", docs)
	}
}

func TestUploadRejects(t *testing.T) {
	svc, store := newTestService(t, nil)
	svc.maxUploadBytes = 10
	ctx := context.Background()

	tests := []struct {
		name        string
		file        string
		contentType string
		data        []byte
		check       func(error) bool
	}{
		{"empty data", "a.txt", "text/plain", nil, errortypes.IsValidationError},
		{"bad name", "../a.txt", "text/plain", []byte("x"), errortypes.IsValidationError},
		{"too large", "a.txt", "text/plain", []byte(strings.Repeat("x", 11)), errortypes.IsValidationError},
		{"unsupported type", "a.docx", "application/msword", []byte("x"), func(err error) bool {
			return errortypes.TypeOf(err) == errortypes.ErrorTypeUnsupported
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.file, tt.contentType, tt.data)
			if err == nil || !tt.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
	if store.saveCalls != 0 {
		t.Errorf("Rejected uploads must not be stored")
	}
}

func TestUploadKeepsUnparsableDocument(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "broken.pdf", "application/pdf", []byte("not a pdf"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("Expected empty text, got %q", doc.Text)
	}
	if _, err := svc.ExtractText(ctx, doc.Path); !errortypes.IsValidationError(err) {
		t.Errorf("Expected extraction to fail, got %v", err)
	}
}

func TestTextAndExtract(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	html := []byte("<html><body><p>First paragraph.</p><p>Second paragraph.</p></body></html>")
	doc, err := svc.Upload(ctx, "page.html", "", html)
	if err != nil {
		t.Fatal(err)
	}

	text, err := svc.Text(ctx, doc.Path)
	if err != nil || text != "First paragraph.\nSecond paragraph." {
		t.Errorf("Text() = %q, %v", text, err)
	}

	// Stored text missing: content is extracted again
	stored := store.docs[doc.Path]
	stored.Text = ""
	store.docs[doc.Path] = stored
	if text, _ := svc.Text(ctx, doc.Path); text != "First paragraph.\nSecond paragraph." {
		t.Errorf("Expected re-extraction, got %q", text)
	}

	if _, err := svc.Text(ctx, "documents/missing.txt"); !errortypes.IsNotFoundError(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := svc.ExtractText(ctx, ""); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error for empty path, got %v", err)
	}
}

func TestDeleteAndPublicURL(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	doc, _ := svc.Upload(ctx, "my report.txt", "text/plain", []byte(sampleText))
	store.summaries["my report.txt"] = documents.Summary{DocumentName: "my report.txt", Summary: "s"}

	url, err := svc.PublicURL(doc.Path)
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://localhost:8080/api/documents/serve?path=documents%2Fmy+report.txt" {
		t.Errorf("Unexpected URL %s", url)
	}

	if err := svc.Delete(ctx, doc.Path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(store.docs) != 0 || len(store.summaries) != 0 {
		t.Errorf("Expected document and summary to be deleted")
	}
	if err := svc.Delete(ctx, doc.Path); !errortypes.IsNotFoundError(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
	if _, err := svc.PublicURL(" "); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestGenerateSummaryLocal(t *testing.T) {
	remote := &MockSummarizer{result: summarizer.Result{Summary: "remote", Provider: "groq"}}
	svc, store := newTestService(t, remote)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "ml.txt", "text/plain", []byte(sampleText)); err != nil {
		t.Fatal(err)
	}

	result, err := svc.GenerateSummary(ctx, GenerateRequest{
		DocumentName: "ml.txt",
		Options:      summarizer.Options{Ratio: 0.5, Language: "ja"},
		Mode:         ModeLocal,
	})
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if result.Provider != summarizer.ProviderLocal || result.Summary != summarizer.Summarize(sampleText, 0.5, "") {
		t.Errorf("Unexpected local result: %+v", result)
	}
	if !result.Saved {
		t.Errorf("Expected summary to be saved")
	}
	if len(remote.requests) != 0 {
		t.Errorf("Local mode must not call the remote summarizer")
	}

	saved := store.summaries["ml.txt"]
	if saved.Summary != result.Summary || saved.Language != "Japanese" || saved.Provider != summarizer.ProviderLocal {
		t.Errorf("Unexpected stored summary: %+v", saved)
	}
}

func TestGenerateSummaryAuto(t *testing.T) {
	remote := &MockSummarizer{result: summarizer.Result{Summary: "remote summary", Provider: "groq"}}
	svc, _ := newTestService(t, remote)

	result, err := svc.GenerateSummary(context.Background(), GenerateRequest{
		DocumentName: "given.txt",
		Text:         sampleText,
		Options:      summarizer.Options{Requirement: "bullets"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary != "remote summary" || result.Provider != "groq" || result.DocumentName != "given.txt" {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(remote.requests) != 1 || remote.requests[0].Text != sampleText || remote.requests[0].Requirement != "bullets" {
		t.Errorf("Unexpected remote requests: %+v", remote.requests)
	}
	if svc.Metrics().GetCounter(telemetry.MetricSummariesGenerated) != 1 {
		t.Errorf("Expected generated summary to be counted")
	}
}

func TestConfiguredDefaults(t *testing.T) {
	remote := &MockSummarizer{result: summarizer.Result{Summary: "remote summary", Provider: "groq"}}
	svc, err := New(Config{
		Store:      NewMockStore(),
		Summarizer: remote,
		Defaults:   summarizer.Options{Ratio: 0.6, Language: "zh"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := svc.Summarize(ctx, sampleText, summarizer.Options{}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Summarize(ctx, sampleText, summarizer.Options{Ratio: 0.2, Language: "ja"}, ""); err != nil {
		t.Fatal(err)
	}

	if got := remote.requests[0].Options; got.Ratio != 0.6 || got.Language != "zh" {
		t.Errorf("Expected configured defaults, got %+v", got)
	}
	if got := remote.requests[1].Options; got.Ratio != 0.2 || got.Language != "ja" {
		t.Errorf("Request options must win over defaults, got %+v", got)
	}

	if _, err := New(Config{Store: NewMockStore(), Defaults: summarizer.Options{Ratio: 3}}); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error for invalid default ratio, got %v", err)
	}
}

func TestGenerateSummaryPersistFailure(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.summaryErr = errors.New("disk full")

	result, err := svc.GenerateSummary(context.Background(), GenerateRequest{DocumentName: "a.txt", Text: sampleText})
	if err != nil {
		t.Fatalf("Persistence failure should not fail the request: %v", err)
	}
	if result.Saved || result.Summary == "" {
		t.Errorf("Expected unsaved summary, got %+v", result)
	}
	if svc.Metrics().GetCounter(telemetry.MetricSummaryPersistFail) != 1 {
		t.Errorf("Expected persistence failure to be counted")
	}
}

func TestGenerateSummaryErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   GenerateRequest
		check func(error) bool
	}{
		{"missing name", GenerateRequest{Text: sampleText}, errortypes.IsValidationError},
		{"unknown document", GenerateRequest{DocumentName: "nope.txt"}, errortypes.IsNotFoundError},
		{"bad ratio", GenerateRequest{DocumentName: "a.txt", Text: sampleText, Options: summarizer.Options{Ratio: 2}}, errortypes.IsValidationError},
		{"bad mode", GenerateRequest{DocumentName: "a.txt", Text: sampleText, Mode: "cloud"}, errortypes.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.GenerateSummary(ctx, tt.req); !tt.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestGetAndUpdateSummary(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	summary, err := svc.GetSummary(ctx, "doc.pdf")
	if err != nil || summary != nil {
		t.Errorf("Expected nil summary for unknown document, got %+v, %v", summary, err)
	}

	store.summaries["doc.pdf"] = documents.Summary{DocumentName: "doc.pdf", Summary: "old", Language: "Chinese", Requirement: "short"}
	updated, err := svc.UpdateSummary(ctx, "doc.pdf", "new text")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Summary != "new text" || updated.Provider != ProviderManual || updated.Language != "Chinese" || updated.Requirement != "short" {
		t.Errorf("Unexpected updated summary: %+v", updated)
	}

	got, _ := svc.GetSummary(ctx, "doc.pdf")
	if got == nil || got.Summary != "new text" {
		t.Errorf("Expected stored update, got %+v", got)
	}

	if _, err := svc.UpdateSummary(ctx, "doc.pdf", " "); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error for empty summary, got %v", err)
	}
	if _, err := svc.GetSummary(ctx, ""); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error for empty name, got %v", err)
	}
}

func TestSummarizeText(t *testing.T) {
	svc, _ := newTestService(t, nil)

	plain, err := svc.SummarizeText(sampleText, summarizer.Options{Requirement: "Keep it short"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if plain.Stats != nil || plain.Summary != summarizer.Summarize(sampleText, 0, "Keep it short") {
		t.Errorf("Unexpected plain summary: %+v", plain)
	}

	detailed, err := svc.SummarizeText(sampleText, summarizer.Options{Language: "zh"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if detailed.Stats == nil || detailed.Stats.Language != "Chinese" || detailed.Stats.OriginalSentences != 4 {
		t.Errorf("Unexpected detailed summary: %+v", detailed)
	}

	if _, err := svc.SummarizeText(sampleText, summarizer.Options{Ratio: -1}, false); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
