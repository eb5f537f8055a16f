package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"ragbot/internal/rag"
	"ragbot/internal/storage"
	"ragbot/internal/validate"
)

const (
	msgNotInitialized = "Gemini AI not initialized. Check GEMINI_API_KEY configuration."
	msgNoCorpus       = "No corpus found. Please upload documents first."
	msgQueryFailed    = "Error processing query. Please try again."

	multipartMemory = 32 << 20
	maxQueryBody    = 64 << 10

	defaultCallLimit = 20
	maxCallLimit     = 200
)

type Server struct {
	intake  *rag.Intake
	gateway *rag.Gateway
	// maxBody caps an upload request body; zero disables the cap.
	maxBody int64
}

func NewServer(intake *rag.Intake, gateway *rag.Gateway, maxBody int64) *Server {
	return &Server{intake: intake, gateway: gateway, maxBody: maxBody}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/gemini/upload", s.handleUpload)
	mux.HandleFunc("/api/gemini/query", s.handleQuery)
	mux.HandleFunc("/api/gemini/corpus", s.handleCorpus)
	mux.HandleFunc("/api/gemini/calls", s.handleCalls)
	return withLogging(withRecovery(withCORS(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "ragBot-api"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if !s.gateway.Ready() {
		writeErr(w, http.StatusInternalServerError, rag.ErrProviderNotReady)
		return
	}
	if s.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			headers = append(headers, single)
		}
	}
	inputs := make([]rag.FileInput, 0, len(headers))
	for _, fh := range headers {
		inputs = append(inputs, fileInput(fh))
	}

	res, err := s.intake.Upload(r.Context(), inputs)
	switch {
	case errors.Is(err, rag.ErrNothingStored):
		apiErr := toAPIError(http.StatusBadRequest, err)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":    false,
			"error":      apiErr.Message,
			"code":       apiErr.Code,
			"errors":     res.Errors,
			"totalFiles": res.TotalFiles,
			"successful": 0,
			"failed":     res.Failed,
		})
		return
	case errors.Is(err, validate.ErrNoFiles), errors.Is(err, validate.ErrTooManyFiles):
		writeErr(w, http.StatusBadRequest, err)
		return
	case err != nil:
		logError("upload", err)
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    fmt.Sprintf("Uploaded %d of %d files", res.Successful, res.TotalFiles),
		"corpusId":   res.CorpusID,
		"files":      res.Files,
		"errors":     res.Errors,
		"totalFiles": res.TotalFiles,
		"successful": res.Successful,
		"failed":     res.Failed,
	})
}

type queryRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if !s.gateway.Ready() {
		writeErr(w, http.StatusInternalServerError, rag.ErrProviderNotReady)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxQueryBody)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	out, err := s.gateway.Query(r.Context(), req.Message)
	switch {
	case errors.Is(err, rag.ErrEmptyMessage), errors.Is(err, storage.ErrNoCorpus):
		writeErr(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": out})
}

func (s *Server) handleCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	corpus, files, err := s.intake.Catalog(r.Context())
	if errors.Is(err, storage.ErrNoCorpus) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		logError("corpus", err)
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "corpus": corpus, "files": files})
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	limit := defaultCallLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = min(n, maxCallLimit)
	}
	calls, enabled, err := s.gateway.RecentCalls(r.Context(), limit)
	if err != nil {
		logError("calls", err)
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if calls == nil {
		calls = []storage.CallRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "callLog": enabled, "calls": calls})
}

func fileInput(fh *multipart.FileHeader) rag.FileInput {
	return rag.FileInput{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}
