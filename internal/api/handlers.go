package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cognicore/threadlens/pkg/threadlens"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/projection"
	"github.com/cognicore/threadlens/pkg/threadlens/report"
	"github.com/cognicore/threadlens/pkg/threadlens/store"
	"github.com/cognicore/threadlens/pkg/threadlens/topterms"
)

// MaxBodySize caps request bodies.
const MaxBodySize = 64 << 20

type Handler struct {
	Engine *threadlens.Engine
}

func NewHandler(engine *threadlens.Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HealthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/report", h.Report)
		r.Post("/projection", h.Projection)
		r.Post("/top-terms", h.TopTerms)
		r.Post("/timeseries", h.Timeseries)
		r.Post("/rows", h.Rows)

		r.Get("/snapshots", h.Snapshots)
		r.Get("/snapshots/{name}/runs", h.Runs)
		r.Get("/runs/{id}", h.Run)
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Corpus names the posts a request works on: inline posts, or a stored
// snapshot when Posts is empty.
type Corpus struct {
	Posts    []posts.Post `json:"posts"`
	Snapshot string       `json:"snapshot"`
}

type AnalysisRequest struct {
	Corpus
	threadlens.AnalyzeOptions
	Top int `json:"top"` // number of ranked scores to return; 0 returns all
}

type ReportResponse struct {
	*report.Report
	Run *store.Run `json:"run,omitempty"`
}

// Report analyzes a corpus. Snapshot analyses are recorded as runs.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !decode(w, r, &req) {
		return
	}

	var resp ReportResponse
	if len(req.Posts) == 0 && req.Snapshot != "" {
		rep, run, err := h.Engine.AnalyzeSnapshot(r.Context(), req.Snapshot, req.AnalyzeOptions)
		if err != nil {
			writeError(w, err)
			return
		}
		resp = ReportResponse{Report: rep, Run: &run}
	} else {
		rep, err := h.Engine.Analyze(req.Posts, req.AnalyzeOptions)
		if err != nil {
			writeError(w, err)
			return
		}
		resp = ReportResponse{Report: rep}
	}

	if req.Top > 0 && req.Top < len(resp.Scores) {
		trimmed := *resp.Report
		trimmed.Scores = trimmed.Scores[:req.Top]
		resp.Report = &trimmed
	}
	writeJSON(w, http.StatusOK, resp)
}

type ProjectionRequest struct {
	Corpus
	threadlens.AnalyzeOptions
	Kind       projection.Kind     `json:"kind"`
	Method     string              `json:"method"`
	Emphasis   projection.Emphasis `json:"emphasis"`
	Threshold  *float64            `json:"threshold"`
	Restrict   bool                `json:"restrict"`
	Perplexity float64             `json:"perplexity"`
}

// Projection analyzes a corpus and embeds its documents or terms.
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if !decode(w, r, &req) {
		return
	}

	opts := projection.Options{
		Kind:       req.Kind,
		Emphasis:   req.Emphasis,
		Threshold:  req.Threshold,
		Restrict:   req.Restrict,
		Perplexity: req.Perplexity,
	}
	if opts.Kind == "" {
		opts.Kind = projection.Documents
	}
	if req.Method != "" {
		m, err := projection.ParseMethod(req.Method)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Method = m
	}

	ps, ok := h.posts(w, r, req.Corpus)
	if !ok {
		return
	}
	rep, err := h.Engine.Analyze(ps, req.AnalyzeOptions)
	if err != nil {
		writeError(w, err)
		return
	}

	var labels []string
	if opts.Kind == projection.Documents {
		labels = posts.Titles(ps)
	}
	out, err := h.Engine.Project(rep, labels, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type TopTermsRequest struct {
	Scores json.RawMessage `json:"scores"`
	N      int             `json:"n"`
}

// TopTerms selects the best terms from scores in any accepted shape.
func (h *Handler) TopTerms(w http.ResponseWriter, r *http.Request) {
	var req TopTermsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.N == 0 {
		req.N = 5
	}

	ranked, err := topterms.FromJSON(req.Scores)
	if err != nil {
		writeError(w, err)
		return
	}
	terms, err := h.Engine.TopTerms(ranked, req.N)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"terms": terms})
}

type TimeseriesRequest struct {
	Corpus
	Terms           []string `json:"terms"`
	IncludeSelftext *bool    `json:"include_selftext"` // nil uses the engine default
}

// Timeseries counts terms per day.
func (h *Handler) Timeseries(w http.ResponseWriter, r *http.Request) {
	var req TimeseriesRequest
	if !decode(w, r, &req) {
		return
	}
	ps, ok := h.posts(w, r, req.Corpus)
	if !ok {
		return
	}
	series, err := h.Engine.Timeseries(ps, req.Terms, req.IncludeSelftext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// Rows returns the metadata rows of a corpus.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	var req Corpus
	if !decode(w, r, &req) {
		return
	}
	ps, ok := h.posts(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": posts.Rows(ps)})
}

func (h *Handler) Snapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Engine.Snapshots(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, "invalid snapshot name", http.StatusBadRequest)
		return
	}
	runs, err := h.Engine.Runs(r.Context(), name, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	run, err := h.Engine.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) posts(w http.ResponseWriter, r *http.Request, c Corpus) ([]posts.Post, bool) {
	if len(c.Posts) > 0 || c.Snapshot == "" {
		return c.Posts, true
	}
	ps, err := h.Engine.SnapshotPosts(r.Context(), c.Snapshot)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ps, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrUnsupportedInput),
		errors.Is(err, internalerr.ErrInvalidMethod):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalerr.ErrEmptyCorpus),
		errors.Is(err, internalerr.ErrEmptyVocabulary),
		errors.Is(err, internalerr.ErrInsufficientItems),
		errors.Is(err, internalerr.ErrPrecondition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
