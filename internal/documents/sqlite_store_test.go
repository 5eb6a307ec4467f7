package documents

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/localrivet/docsummary/internal/errortypes"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore()
	if err := store.Initialize(filepath.Join(t.TempDir(), "docs.db")); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreDocuments(t *testing.T) {
	store := newTestStore(t)

	doc := &Document{
		ID:          "id-1",
		Path:        PathFor("notes.txt"),
		Name:        "notes.txt",
		ContentType: "text/plain",
		Size:        11,
		Checksum:    "abc",
		Content:     []byte("hello world"),
		Text:        "hello world",
	}
	if err := store.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, err := store.GetDocument("documents/notes.txt")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.ID != "id-1" || got.Name != "notes.txt" || got.Size != 11 || got.Text != "hello world" {
		t.Errorf("Unexpected document: %+v", got)
	}
	if !bytes.Equal(got.Content, []byte("hello world")) {
		t.Errorf("Unexpected content %q", got.Content)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("CreatedAt not round-tripped: %v vs %v", got.CreatedAt, doc.CreatedAt)
	}

	if _, err := store.GetDocument("documents/missing.txt"); !errortypes.IsNotFoundError(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestSQLiteStoreEmptyContent(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"empty.txt", "nil.txt"} {
		doc := &Document{ID: name, Path: PathFor(name), Name: name, ContentType: "text/plain"}
		if name == "empty.txt" {
			doc.Content = []byte{}
		}
		if err := store.SaveDocument(doc); err != nil {
			t.Fatalf("SaveDocument(%s) failed: %v", name, err)
		}

		got, err := store.GetDocument(PathFor(name))
		if err != nil {
			t.Fatalf("GetDocument(%s) failed: %v", name, err)
		}
		if len(got.Content) != 0 || got.Text != "" || got.Size != 0 {
			t.Errorf("Expected empty document for %s, got %+v", name, got)
		}
	}

	list, err := store.ListDocuments("")
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(list))
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := newTestStore(t)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	first := &Document{ID: "old", Path: PathFor("a.txt"), Name: "a.txt", ContentType: "text/plain", Content: []byte("v1"), Text: "v1"}
	if err := store.SaveDocument(first); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(time.Hour)
	second := &Document{ID: "new", Path: PathFor("a.txt"), Name: "a.txt", ContentType: "text/plain", Content: []byte("v2"), Text: "v2"}
	if err := store.SaveDocument(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetDocument(PathFor("a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "new" || got.Text != "v2" {
		t.Errorf("Expected replaced document, got %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) || !got.UpdatedAt.Equal(clock) {
		t.Errorf("Expected created %v updated %v, got %v / %v", first.CreatedAt, clock, got.CreatedAt, got.UpdatedAt)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("SaveDocument should report the stored creation time, got %v", second.CreatedAt)
	}

	docs, err := store.ListDocuments(Prefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected a single document after upsert, got %d", len(docs))
	}
}

func TestSQLiteStoreList(t *testing.T) {
	store := newTestStore(t)

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	for _, p := range []string{"documents/one.txt", "documents/two.pdf", "archive/old.txt", "documents_other/x.txt"} {
		if err := store.SaveDocument(&Document{ID: p, Path: p, Name: NameOf(p), ContentType: "text/plain"}); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := store.ListDocuments(Prefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Path != "documents/two.pdf" || docs[1].Path != "documents/one.txt" {
		t.Errorf("Unexpected listing: %+v", docs)
	}
	if docs[0].Content != nil || docs[0].Text != "" {
		t.Errorf("Listing should not load content")
	}

	all, err := store.ListDocuments("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 documents without prefix, got %d", len(all))
	}

	empty := newTestStore(t)
	none, err := empty.ListDocuments(Prefix)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("Expected empty non-nil listing, got %v, %v", none, err)
	}
}

func TestSQLiteStoreSummaries(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetSummary("report.pdf"); !errortypes.IsNotFoundError(err) {
		t.Errorf("Expected not found error, got %v", err)
	}

	if err := store.SaveSummary(&Summary{DocumentName: "report.pdf", Summary: "first", Provider: "local", Language: "English"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSummary(&Summary{DocumentName: "report.pdf", Summary: "edited", Provider: "user"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetSummary("report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary != "edited" || got.Provider != "user" {
		t.Errorf("Expected updated summary, got %+v", got)
	}

	if err := store.SaveSummary(&Summary{}); !errortypes.IsValidationError(err) {
		t.Errorf("Expected validation error for missing name, got %v", err)
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newTestStore(t)

	doc := &Document{ID: "1", Path: PathFor("report.pdf"), Name: "report.pdf", ContentType: "application/pdf"}
	if err := store.SaveDocument(doc); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSummary(&Summary{DocumentName: "report.pdf", Summary: "s"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSummary(&Summary{DocumentName: "other.pdf", Summary: "keep"}); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteDocument(doc.Path); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if _, err := store.GetDocument(doc.Path); !errortypes.IsNotFoundError(err) {
		t.Errorf("Document should be gone, got %v", err)
	}
	if _, err := store.GetSummary("report.pdf"); !errortypes.IsNotFoundError(err) {
		t.Errorf("Summary should be deleted with its document, got %v", err)
	}
	if _, err := store.GetSummary("other.pdf"); err != nil {
		t.Errorf("Unrelated summary should survive, got %v", err)
	}

	if err := store.DeleteDocument(doc.Path); !errortypes.IsNotFoundError(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestSQLiteStoreNotInitialized(t *testing.T) {
	store := NewSQLiteStore()
	if _, err := store.ListDocuments(""); !errortypes.IsDatabaseError(err) {
		t.Errorf("Expected database error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on unopened store failed: %v", err)
	}
}

func TestValidName(t *testing.T) {
	tests := map[string]bool{
		"report.pdf":  true,
		"日本語.txt":     true,
		"":            false,
		"..":          false,
		"a/b.txt":     false,
		`a\b.txt`:     false,
		"nul\x00.txt": false,
	}
	for name, want := range tests {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}
