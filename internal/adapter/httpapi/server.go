package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kbsearch/internal/domain"
)

// maxBodyBytes bounds a search request body.
const maxBodyBytes = 1 << 20

// Retrieval is the set of operations served over HTTP.
type Retrieval interface {
	ListItems() ([]domain.CorpusItem, error)
	SemanticSearch(problemText string) (domain.SearchResult, error)
	GetCode(path string) (domain.CodeResult, error)
	Stats() domain.Stats
}

// API exposes the retrieval operations as JSON endpoints.
type API struct {
	svc Retrieval
	log *slog.Logger
}

func NewAPI(svc Retrieval, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{svc: svc, log: log}
}

// Handler returns the routed handler with request logging.
func (a *API) Handler() http.Handler {
	return a.logMiddleware(a.mux())
}

func (a *API) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /api/items", a.handleItems)
	mux.HandleFunc("POST /api/search", a.handleSearch)
	mux.HandleFunc("GET /api/code", a.handleCode)
	return mux
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// The first search may wait for the whole index build.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	nbytes int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.nbytes += n
	return n, err
}

func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		a.log.Info("http.req",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", rec.nbytes,
		)
	})
}

// Handlers

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Stats())
}

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.ListItems()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type searchRequest struct {
	ProblemText     string `json:"problem_text"`
	ProblemMarkdown string `json:"problem_markdown"`
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		a.writeError(w, domain.Validation("invalid json body"))
		return
	}
	text := req.ProblemText
	if strings.TrimSpace(text) == "" {
		text = req.ProblemMarkdown
	}

	res, err := a.svc.SemanticSearch(text)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if r.URL.Query().Get("verbose") == "1" {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{BestMatch: res.BestMatch, Score: res.Score})
}

type searchResponse struct {
	BestMatch string  `json:"best_match"`
	Score     float64 `json:"score"`
}

func (a *API) handleCode(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.GetCode(r.URL.Query().Get("path"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// StatusOf maps a classified error to its HTTP status.
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidPath, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindModelLoad:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	kind := string(domain.KindOf(err))
	msg := err.Error()
	if kind == "" {
		kind = "internal"
		a.log.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]apiError{
		"error": {Kind: kind, Message: msg, Path: domain.PathOf(err)},
	})
}
