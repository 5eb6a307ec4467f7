// Package documents stores uploaded documents and their summaries.
package documents

import (
	"path"
	"strings"
	"time"
)

// Prefix is the folder every uploaded document is stored under.
const Prefix = "documents/"

// Document is an uploaded file together with its extracted text.
type Document struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Content and Text are only loaded by GetDocument.
	Content []byte `json:"-"`
	Text    string `json:"-"`
}

// Summary is the stored summary of a document, keyed by document name.
type Summary struct {
	DocumentName string    `json:"documentName"`
	Summary      string    `json:"summary"`
	Provider     string    `json:"provider,omitempty"`
	Language     string    `json:"language,omitempty"`
	Requirement  string    `json:"requirement,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store defines the interface for storing and retrieving documents and summaries.
type Store interface {
	// Initialize opens the store at dbPath.
	Initialize(dbPath string) error

	// Close closes the store and releases any resources.
	Close() error

	// SaveDocument inserts doc, replacing any document stored at the same path.
	SaveDocument(doc *Document) error

	// GetDocument returns the document at path including its content.
	GetDocument(path string) (*Document, error)

	// ListDocuments returns metadata of the documents whose path starts with prefix.
	ListDocuments(prefix string) ([]Document, error)

	// DeleteDocument removes the document at path and the summary of the same name.
	DeleteDocument(path string) error

	// SaveSummary inserts or replaces the summary of summary.DocumentName.
	SaveSummary(summary *Summary) error

	// GetSummary returns the summary stored for documentName.
	GetSummary(documentName string) (*Summary, error)
}

// PathFor returns the storage path of a document called name.
func PathFor(name string) string {
	return Prefix + name
}

// NameOf returns the document name for a storage path.
func NameOf(p string) string {
	return path.Base(p)
}

// ValidName reports whether name can be used as a document name: non-empty,
// no path separators and not a dot path.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
