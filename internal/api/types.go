package api

import (
	"github.com/localrivet/docsummary/internal/docservice"
	"github.com/localrivet/docsummary/internal/documents"
	"github.com/localrivet/docsummary/internal/summarizer"
)

// PathRequest names a stored document by its path.
type PathRequest struct {
	Path string `json:"path"`
}

// SuccessResponse acknowledges an operation without a payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type UploadResponse struct {
	Path     string              `json:"path"`
	Success  bool                `json:"success"`
	Document *documents.Document `json:"document"`
}

type ListResponse struct {
	Files []documents.Document `json:"files"`
}

type TextResponse struct {
	Text string `json:"text"`
}

type URLResponse struct {
	PublicURL string `json:"publicUrl"`
}

type GenerateResponse struct {
	*docservice.GenerateResult
	Success bool `json:"success"`
}

type SummaryRequest struct {
	DocumentName string `json:"documentName"`
}

// SummaryResponse carries the stored summary text, null when the document
// has none, and the stored record when present.
type SummaryResponse struct {
	Summary *string             `json:"summary"`
	Record  *documents.Summary `json:"record,omitempty"`
}

type UpdateSummaryRequest struct {
	DocumentName string `json:"documentName"`
	Summary      string `json:"summary"`
}

// SummarizeRequest summarizes text directly with the local engine.
type SummarizeRequest struct {
	Text string `json:"text"`
	summarizer.Options
	Detailed bool `json:"detailed,omitempty"`
}
