// Package api serves the document summarization HTTP API.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/localrivet/docsummary/internal/docservice"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/summarizer"
	"github.com/localrivet/docsummary/internal/telemetry"
)

// multipartOverhead is allowed on top of the upload limit for form framing.
const multipartOverhead = 1 << 20

// HealthFunc reports the health of the summarization backends.
type HealthFunc func(ctx context.Context) (*summarizer.HealthReport, error)

type Handler struct {
	service *docservice.Service
	health  HealthFunc
	metrics *telemetry.MetricsCollector
	logger  *slog.Logger
	maxBody int64
}

// NewHandler creates the API handler. health may be nil, in which case only
// the local engine is reported.
func NewHandler(service *docservice.Service, health HealthFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		health:  health,
		metrics: service.Metrics(),
		logger:  logger.With("component", "api"),
		maxBody: service.MaxUploadBytes() + multipartOverhead,
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     summarizer.StatusHealthy,
			"components": map[string]string{"local": string(summarizer.StatusHealthy)},
			"version":    summarizer.Version,
		})
		return
	}

	report, err := h.health(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	status := http.StatusOK
	if report.Status == summarizer.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBody {
		h.handleError(w, r, &http.MaxBytesError{Limit: h.maxBody})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if !errors.As(err, &maxBytesErr) {
			err = errortypes.ValidationError(err, "no file provided")
		}
		h.handleError(w, r, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, r, errortypes.ValidationError(err, "failed to read uploaded file"))
		return
	}

	doc, err := h.service.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{Path: doc.Path, Success: true, Document: doc})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Files: docs})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), req.Path); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Document deleted successfully"})
}

// HandleDownload returns the text of a document.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	text, err := h.service.Text(r.Context(), req.Path)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: text})
}

// HandleServe streams the stored bytes of a document.
func (h *Handler) HandleServe(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": doc.Name}))
	http.ServeContent(w, r, doc.Name, doc.UpdatedAt, bytes.NewReader(doc.Content))
}

func (h *Handler) HandleGetURL(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	url, err := h.service.PublicURL(req.Path)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{PublicURL: url})
}

func (h *Handler) HandleExtractText(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	text, err := h.service.ExtractText(r.Context(), req.Path)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: text})
}

func (h *Handler) HandleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req docservice.GenerateRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	result, err := h.service.GenerateSummary(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{GenerateResult: result, Success: true})
}

func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	record, err := h.service.GetSummary(r.Context(), req.DocumentName)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := SummaryResponse{Record: record}
	if record != nil {
		resp.Summary = &record.Summary
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleUpdateSummary(w http.ResponseWriter, r *http.Request) {
	var req UpdateSummaryRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if _, err := h.service.UpdateSummary(r.Context(), req.DocumentName, req.Summary); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Summary updated successfully"})
}

// HandleSummarize runs the local engine on the posted text.
func (h *Handler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	result, err := h.service.SummarizeText(req.Text, req.Options, req.Detailed)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
