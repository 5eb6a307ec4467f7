// Package tools defines the request and response schemas of the
// docsummary MCP tools.
package tools

import "github.com/localrivet/docsummary/internal/summarizer"

const (
	// ToolSummarizeText is the name of the summarize_text MCP tool
	ToolSummarizeText = "summarize_text"

	// ToolListDocuments is the name of the list_documents MCP tool
	ToolListDocuments = "list_documents"

	// ToolExtractText is the name of the extract_text MCP tool
	ToolExtractText = "extract_text"

	// ToolGenerateSummary is the name of the generate_summary MCP tool
	ToolGenerateSummary = "generate_summary"

	// ToolGetSummary is the name of the get_summary MCP tool
	ToolGetSummary = "get_summary"

	// ToolUpdateSummary is the name of the update_summary MCP tool
	ToolUpdateSummary = "update_summary"

	// ToolDeleteDocument is the name of the delete_document MCP tool
	ToolDeleteDocument = "delete_document"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SummarizeTextRequest defines the input schema for summarize_text tool
type SummarizeTextRequest struct {
	// Text is the text to summarize
	Text string `json:"text"`

	// Ratio is the share of sentences to keep, in (0, 1]
	Ratio float64 `json:"ratio,omitempty"`

	Requirement string `json:"requirement,omitempty"`

	// Language is a code (en, zh, ja) or a language name
	Language string `json:"language,omitempty"`

	// Detailed adds summary statistics; it always uses the local engine
	Detailed bool `json:"detailed,omitempty"`

	// Mode is "auto" (remote providers first) or "local"
	Mode string `json:"mode,omitempty"`
}

// SummarizeTextResponse defines the output schema for summarize_text tool
type SummarizeTextResponse struct {
	Status   string            `json:"status"`
	Summary  string            `json:"summary,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Stats    *summarizer.Stats `json:"stats,omitempty"`

	// Warning reports remote provider failures that were recovered locally
	Warning string `json:"warning,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// ListDocumentsRequest defines the input schema for list_documents tool
type ListDocumentsRequest struct{}

// DocumentInfo describes a stored document
type DocumentInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	UpdatedAt   string `json:"updated_at"`
}

// ListDocumentsResponse defines the output schema for list_documents tool
type ListDocumentsResponse struct {
	Status    string         `json:"status"`
	Documents []DocumentInfo `json:"documents"`
	Error     string         `json:"error,omitempty"`
}

// ExtractTextRequest defines the input schema for extract_text tool
type ExtractTextRequest struct {
	// Path is the storage path of the document, e.g. documents/report.pdf
	Path string `json:"path"`
}

// ExtractTextResponse defines the output schema for extract_text tool
type ExtractTextResponse struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GenerateSummaryRequest defines the input schema for generate_summary tool
type GenerateSummaryRequest struct {
	DocumentName string `json:"document_name"`

	// Text overrides the stored text of the document
	Text string `json:"text,omitempty"`

	Ratio       float64 `json:"ratio,omitempty"`
	Requirement string  `json:"requirement,omitempty"`
	Language    string  `json:"language,omitempty"`
	Mode        string  `json:"mode,omitempty"`
}

// GenerateSummaryResponse defines the output schema for generate_summary tool
type GenerateSummaryResponse struct {
	Status   string `json:"status"`
	Summary  string `json:"summary,omitempty"`
	Provider string `json:"provider,omitempty"`

	// Saved is false when the summary could not be stored
	Saved   bool   `json:"saved"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GetSummaryRequest defines the input schema for get_summary tool
type GetSummaryRequest struct {
	DocumentName string `json:"document_name"`
}

// GetSummaryResponse defines the output schema for get_summary tool
type GetSummaryResponse struct {
	Status string `json:"status"`

	// Found is false when no summary has been generated for the document
	Found     bool   `json:"found"`
	Summary   string `json:"summary,omitempty"`
	Provider  string `json:"provider,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UpdateSummaryRequest defines the input schema for update_summary tool
type UpdateSummaryRequest struct {
	DocumentName string `json:"document_name"`
	Summary      string `json:"summary"`
}

// UpdateSummaryResponse defines the output schema for update_summary tool
type UpdateSummaryResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DeleteDocumentRequest defines the input schema for delete_document tool
type DeleteDocumentRequest struct {
	Path string `json:"path"`
}

// DeleteDocumentResponse defines the output schema for delete_document tool
type DeleteDocumentResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
