package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.HandleFunc("GET /api/metrics", handler.HandleMetrics)

	mux.HandleFunc("POST /api/documents/upload", handler.HandleUpload)
	mux.HandleFunc("GET /api/documents/list", handler.HandleList)
	mux.HandleFunc("POST /api/documents/delete", handler.HandleDelete)
	mux.HandleFunc("POST /api/documents/download", handler.HandleDownload)
	mux.HandleFunc("GET /api/documents/serve", handler.HandleServe)
	mux.HandleFunc("POST /api/documents/get-url", handler.HandleGetURL)
	mux.HandleFunc("POST /api/documents/extract-text", handler.HandleExtractText)

	mux.HandleFunc("POST /api/summary/generate", handler.HandleGenerateSummary)
	mux.HandleFunc("POST /api/summary/get", handler.HandleGetSummary)
	mux.HandleFunc("POST /api/summary/update", handler.HandleUpdateSummary)

	mux.HandleFunc("POST /api/summarize", handler.HandleSummarize)
}
