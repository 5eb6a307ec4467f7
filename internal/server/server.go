// Package server provides the MCP server implementation for the docsummary service.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/docsummary/internal/docservice"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/summarizer"
	"github.com/localrivet/docsummary/internal/tools"
)

// DefaultToolTimeout bounds the work done for a single tool call.
const DefaultToolTimeout = 2 * time.Minute

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("document service is nil")
)

// MCPDocumentToolServer implements the DocumentToolServer interface
// for handling MCP tool calls on stored documents and their summaries.
type MCPDocumentToolServer struct {
	service   *docservice.Service
	timeout   time.Duration
	logger    *slog.Logger
	mcpServer server.Server
}

// NewDocumentToolServer creates a new MCPDocumentToolServer instance.
func NewDocumentToolServer(service *docservice.Service, logger *slog.Logger) *MCPDocumentToolServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPDocumentToolServer{
		service: service,
		timeout: DefaultToolTimeout,
		logger:  logger.With("component", "mcp"),
	}
}

// Initialize registers the tools with a new MCP server.
func (s *MCPDocumentToolServer) Initialize() error {
	s.logger.Info("Initializing MCP Document Tool Server")

	if s.service == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	srv := s.RegisterTools(server.NewServer("docsummary"))

	s.mcpServer = srv
	s.logger.Info("MCP Document Tool Server initialized successfully", "tool_count", 7)
	return nil
}

// RegisterTools adds the document tools to srv and returns it. Use it to
// embed the tools in an MCP server owned by the caller.
func (s *MCPDocumentToolServer) RegisterTools(srv server.Server) server.Server {
	return srv.
		Tool(tools.ToolSummarizeText, "Summarize a block of text", s.handleSummarizeText).
		Tool(tools.ToolListDocuments, "List the stored documents", s.handleListDocuments).
		Tool(tools.ToolExtractText, "Extract the text of a stored document", s.handleExtractText).
		Tool(tools.ToolGenerateSummary, "Generate and store the summary of a document", s.handleGenerateSummary).
		Tool(tools.ToolGetSummary, "Get the stored summary of a document", s.handleGetSummary).
		Tool(tools.ToolUpdateSummary, "Replace the stored summary of a document", s.handleUpdateSummary).
		Tool(tools.ToolDeleteDocument, "Delete a document and its summary", s.handleDeleteDocument)
}

// Start serves MCP requests over stdio until stdin is closed.
func (s *MCPDocumentToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.logger.Info("Starting MCP Document Tool Server")
	return s.mcpServer.AsStdio().Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPDocumentToolServer) Stop() error {
	s.logger.Info("Stopping MCP Document Tool Server")
	// The server will exit when stdin is closed
	return nil
}

func (s *MCPDocumentToolServer) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// fail logs err and returns its message for the response.
func (s *MCPDocumentToolServer) fail(tool string, err error) string {
	errortypes.LogError(s.logger.With("tool", tool), err)
	return err.Error()
}

// handleSummarizeText handles the summarize_text MCP tool call.
func (s *MCPDocumentToolServer) handleSummarizeText(_ *server.Context, req tools.SummarizeTextRequest) (tools.SummarizeTextResponse, error) {
	s.logger.Info("Processing summarize_text request", "text_length", len(req.Text), "detailed", req.Detailed)

	response := tools.SummarizeTextResponse{Status: tools.StatusSuccess}
	opts := summarizer.Options{Ratio: req.Ratio, Requirement: req.Requirement, Language: req.Language}

	if req.Detailed {
		result, err := s.service.SummarizeText(req.Text, opts, true)
		if err != nil {
			response.Status = tools.StatusError
			response.Error = s.fail(tools.ToolSummarizeText, err)
			return response, nil
		}
		response.Summary = result.Summary
		response.Provider = summarizer.ProviderLocal
		response.Stats = result.Stats
		return response, nil
	}

	ctx, cancel := s.callContext()
	defer cancel()

	result, err := s.service.Summarize(ctx, req.Text, opts, req.Mode)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolSummarizeText, err)
		return response, nil
	}
	response.Summary = result.Summary
	response.Provider = result.Provider
	response.Warning = result.Error
	return response, nil
}

// handleListDocuments handles the list_documents MCP tool call.
func (s *MCPDocumentToolServer) handleListDocuments(_ *server.Context, _ tools.ListDocumentsRequest) (tools.ListDocumentsResponse, error) {
	response := tools.ListDocumentsResponse{Status: tools.StatusSuccess, Documents: []tools.DocumentInfo{}}

	ctx, cancel := s.callContext()
	defer cancel()

	docs, err := s.service.List(ctx)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolListDocuments, err)
		return response, nil
	}

	for _, doc := range docs {
		response.Documents = append(response.Documents, tools.DocumentInfo{
			Name:        doc.Name,
			Path:        doc.Path,
			ContentType: doc.ContentType,
			Size:        doc.Size,
			UpdatedAt:   doc.UpdatedAt.Format(time.RFC3339),
		})
	}
	s.logger.Info("Listed documents", "count", len(docs))
	return response, nil
}

// handleExtractText handles the extract_text MCP tool call.
func (s *MCPDocumentToolServer) handleExtractText(_ *server.Context, req tools.ExtractTextRequest) (tools.ExtractTextResponse, error) {
	s.logger.Info("Processing extract_text request", "path", req.Path)

	response := tools.ExtractTextResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.callContext()
	defer cancel()

	text, err := s.service.ExtractText(ctx, req.Path)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolExtractText, err)
		return response, nil
	}
	response.Text = text
	return response, nil
}

// handleGenerateSummary handles the generate_summary MCP tool call.
func (s *MCPDocumentToolServer) handleGenerateSummary(_ *server.Context, req tools.GenerateSummaryRequest) (tools.GenerateSummaryResponse, error) {
	s.logger.Info("Processing generate_summary request", "document", req.DocumentName, "mode", req.Mode)

	response := tools.GenerateSummaryResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.callContext()
	defer cancel()

	result, err := s.service.GenerateSummary(ctx, docservice.GenerateRequest{
		DocumentName: req.DocumentName,
		Text:         req.Text,
		Options:      summarizer.Options{Ratio: req.Ratio, Requirement: req.Requirement, Language: req.Language},
		Mode:         req.Mode,
	})
	if err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolGenerateSummary, err)
		return response, nil
	}

	response.Summary = result.Summary
	response.Provider = result.Provider
	response.Saved = result.Saved
	response.Warning = result.Error
	return response, nil
}

// handleGetSummary handles the get_summary MCP tool call.
func (s *MCPDocumentToolServer) handleGetSummary(_ *server.Context, req tools.GetSummaryRequest) (tools.GetSummaryResponse, error) {
	response := tools.GetSummaryResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.callContext()
	defer cancel()

	summary, err := s.service.GetSummary(ctx, req.DocumentName)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolGetSummary, err)
		return response, nil
	}
	if summary == nil {
		return response, nil
	}

	response.Found = true
	response.Summary = summary.Summary
	response.Provider = summary.Provider
	response.UpdatedAt = summary.UpdatedAt.Format(time.RFC3339)
	return response, nil
}

// handleUpdateSummary handles the update_summary MCP tool call.
func (s *MCPDocumentToolServer) handleUpdateSummary(_ *server.Context, req tools.UpdateSummaryRequest) (tools.UpdateSummaryResponse, error) {
	s.logger.Info("Processing update_summary request", "document", req.DocumentName, "summary_length", len(req.Summary))

	response := tools.UpdateSummaryResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.callContext()
	defer cancel()

	if _, err := s.service.UpdateSummary(ctx, req.DocumentName, req.Summary); err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolUpdateSummary, err)
	}
	return response, nil
}

// handleDeleteDocument handles the delete_document MCP tool call.
func (s *MCPDocumentToolServer) handleDeleteDocument(_ *server.Context, req tools.DeleteDocumentRequest) (tools.DeleteDocumentResponse, error) {
	s.logger.Info("Processing delete_document request", "path", req.Path)

	response := tools.DeleteDocumentResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.callContext()
	defer cancel()

	if err := s.service.Delete(ctx, req.Path); err != nil {
		response.Status = tools.StatusError
		response.Error = s.fail(tools.ToolDeleteDocument, err)
	}
	return response, nil
}
