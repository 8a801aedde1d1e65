package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cantai/cifra/pkg/buildinfo"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/preview"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

// =============================================================================
// Detect
// =============================================================================

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Format    string `json:"format"`
	Directive bool   `json:"directive,omitempty"`
	Ambiguous []int  `json:"ambiguous"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decode(w, r, s.bodyLimit(), &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateText(req.Text, s.opts.MaxBytes); err != nil {
		writeError(w, err)
		return
	}
	d := s.runner.Detect(r.Context(), req.Text)
	resp := detectResponse{Format: d.Format.String(), Directive: d.Directive, Ambiguous: d.Ambiguous}
	if resp.Ambiguous == nil {
		resp.Ambiguous = []int{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Render
// =============================================================================

type renderRequest struct {
	Text     string `json:"text"`
	Format   string `json:"format,omitempty"`
	Interval int    `json:"interval,omitempty"`
	ToKey    string `json:"to_key,omitempty"`
	Spelling string `json:"spelling,omitempty"`
	Output   string `json:"output,omitempty"`
}

type renderResponse struct {
	Format    string `json:"format"`
	Output    string `json:"output"`
	Interval  int    `json:"interval"`
	Body      string `json:"body"`
	Cached    bool   `json:"cached"`
	Ambiguous []int  `json:"ambiguous,omitempty"`
}

func (s *Server) options(req renderRequest) pipeline.Options {
	spelling := req.Spelling
	if spelling == "" {
		spelling = s.opts.Spelling
	}
	return pipeline.Options{
		Text:     req.Text,
		Format:   req.Format,
		Interval: req.Interval,
		ToKey:    req.ToKey,
		Spelling: spelling,
		Output:   req.Output,
		MaxBytes: s.opts.MaxBytes,
		Logger:   s.logger,
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decode(w, r, s.bodyLimit(), &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), s.options(req))
	if err != nil {
		s.logFailure(r, "render", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		Format:    res.Document.Format.String(),
		Output:    res.Output,
		Interval:  res.Interval,
		Body:      string(res.Body),
		Cached:    res.CacheInfo.ArtifactHit,
		Ambiguous: res.Detection.Ambiguous,
	})
}

// =============================================================================
// Previews
// =============================================================================

type createPreviewRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Key    string `json:"key,omitempty"`
}

type listPreviewsResponse struct {
	Previews []*preview.Record `json:"previews"`
}

func (s *Server) handleCreatePreview(w http.ResponseWriter, r *http.Request) {
	var req createPreviewRequest
	if err := decode(w, r, s.bodyLimit(), &req); err != nil {
		writeError(w, err)
		return
	}
	opts := s.options(renderRequest{Text: req.Text, Format: req.Format, Output: pipeline.OutputHTML})
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	rec := preview.NewRecord(req.Text, res)
	rec.Title = req.Title
	rec.Artist = req.Artist
	rec.Key = req.Key
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.logFailure(r, "store preview", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/previews/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListPreviews(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative number"))
			return
		}
		limit = n
	}
	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logFailure(r, "list previews", err)
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []*preview.Record{}
	}
	writeJSON(w, http.StatusOK, listPreviewsResponse{Previews: recs})
}

func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidatePreviewID(id); err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		if !preview.IsNotFound(err) {
			s.logFailure(r, "get preview", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeletePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidatePreviewID(id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.logFailure(r, "delete preview", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logFailure logs server-side failures. Client errors are not logged.
func (s *Server) logFailure(r *http.Request, op string, err error) {
	if errors.HTTPStatus(errors.GetCode(err)) < http.StatusInternalServerError {
		return
	}
	s.logger.Error(op+" failed", "path", r.URL.Path, "err", err)
}
