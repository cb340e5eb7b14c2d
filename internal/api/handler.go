package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/subtext/internal/analysis"
	"github.com/kalambet/subtext/internal/ingest"
	"github.com/kalambet/subtext/internal/storage"
)

const maxUploadSize = 20 << 20 // 20MB
const maxChatBodySize = 1 << 20

// DocumentIngestor abstracts chunk-embed-index for the API layer.
type DocumentIngestor interface {
	Ingest(ctx context.Context, doc ingest.Document) (int, error)
}

// RiskAgent abstracts document analysis and grounded chat.
type RiskAgent interface {
	AnalyzeDocument(ctx context.Context) analysis.Report
	Chat(ctx context.Context, query string, history []analysis.Turn) string
}

// ReportStore abstracts report persistence.
type ReportStore interface {
	SaveReport(r storage.ReportRecord) error
	GetReport(id string) (storage.ReportRecord, error)
	ListReports(limit int) ([]storage.ReportRecord, error)
}

type AppDeps struct {
	Ingestor   DocumentIngestor
	Agent      RiskAgent
	Reports    ReportStore
	HTTPClient *http.Client // used for URL ingestion; http.DefaultClient if nil
}

// NewAppHandler returns the HTTP handler for the analysis service.
func NewAppHandler(deps AppDeps) http.Handler {
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	r := chi.NewRouter()

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Post("/analyze", handleAnalyze(deps))
	r.Post("/analyze/url", handleAnalyzeURL(deps))
	r.Post("/chat", handleChat(deps))
	r.Get("/reports", handleListReports(deps))
	r.Get("/reports/{id}", handleGetReport(deps))

	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"subtext API is running"}`))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// AnalyzeResponse is the payload returned by the analyze endpoints.
type AnalyzeResponse struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Chunks int             `json:"chunks"`
	Report analysis.Report `json:"report"`
}

func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file is required: %v", err)
			return
		}
		defer file.Close()

		// The PDF reader needs a seekable file on disk.
		tmp, err := os.CreateTemp("", "subtext-*.pdf")
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to buffer upload: %v", err)
			return
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()

		if _, err := io.Copy(tmp, file); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to buffer upload: %v", err)
			return
		}

		doc, err := ingest.ParsePDF(tmp.Name())
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to parse PDF: %v", err)
			return
		}
		doc.Source = header.Filename

		analyzeDocument(r.Context(), w, deps, doc)
	}
}

// AnalyzeURLRequest asks for a web page (typically a terms-of-service
// page) to be fetched and analyzed.
type AnalyzeURLRequest struct {
	URL string `json:"url"`
}

func handleAnalyzeURL(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var req AnalyzeURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.URL == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "url is required")
			return
		}

		doc, err := ingest.FetchHTML(r.Context(), deps.HTTPClient, req.URL)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to fetch url: %v", err)
			return
		}

		analyzeDocument(r.Context(), w, deps, doc)
	}
}

// analyzeDocument runs the shared ingest-analyze-persist tail of both
// analyze endpoints.
func analyzeDocument(ctx context.Context, w http.ResponseWriter, deps AppDeps, doc ingest.Document) {
	chunks, err := deps.Ingestor.Ingest(ctx, doc)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to index document: %v", err)
		return
	}

	// A zero-chunk document (scanned or empty) still gets a report: the
	// index is empty, every category comes back without context, and the
	// analysis degrades to no findings.
	report := deps.Agent.AnalyzeDocument(ctx)

	rec := storage.ReportRecord{
		ID:           uuid.New().String(),
		Source:       doc.Source,
		Summary:      report.Summary,
		RiskScore:    report.OverallRiskScore,
		FindingCount: len(report.RedFlags),
		CreatedAt:    time.Now().UTC(),
	}
	if b, err := json.Marshal(report); err == nil {
		rec.ReportJSON = string(b)
	}
	if err := deps.Reports.SaveReport(rec); err != nil {
		// The analysis itself succeeded; persistence trouble shouldn't hide it.
		slog.Error("failed to save report", "id", rec.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		ID:     rec.ID,
		Source: doc.Source,
		Chunks: chunks,
		Report: report,
	})
}

// ChatRequest is a grounded question about the active document.
type ChatRequest struct {
	Query   string          `json:"query"`
	History []analysis.Turn `json:"history,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

func handleChat(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}

		answer := deps.Agent.Chat(r.Context(), req.Query, req.History)
		writeJSON(w, http.StatusOK, ChatResponse{Response: answer})
	}
}

func handleListReports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", v)
				return
			}
			limit = n
		}

		reports, err := deps.Reports.ListReports(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list reports: %v", err)
			return
		}
		if reports == nil {
			reports = []storage.ReportRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
	}
}

func handleGetReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := deps.Reports.GetReport(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "report %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load report: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":         rec.ID,
			"source":     rec.Source,
			"created_at": rec.CreatedAt.Format(time.RFC3339),
			"report":     json.RawMessage(rec.ReportJSON),
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
