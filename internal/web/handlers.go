package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvloc/internal/codec"
	"github.com/JonMunkholm/csvloc/internal/core"
	"github.com/JonMunkholm/csvloc/internal/translation"
	"github.com/go-chi/chi/v5"
)

// ParseResponse is the body of POST /api/parse.
type ParseResponse struct {
	Path      string         `json:"path"`
	Separator string         `json:"separator"`
	Key       string         `json:"key,omitempty"`
	Columns   []codec.Column `json:"columns"`
	Records   []codec.Record `json:"records"`
	Cells     []codec.Cell   `json:"cells"`
}

// ExtractResponse is the body of POST /api/extract.
type ExtractResponse struct {
	Path      string                 `json:"path"`
	Count     int                    `json:"count"`
	Resources []translation.Resource `json:"resources"`
}

// MergeRequest is the body of POST /api/merge. Target and Source are file
// contents, both parsed as the file type of Path.
type MergeRequest struct {
	Path   string `json:"path"`
	Target string `json:"target"`
	Source string `json:"source"`
}

// MergeResponse is the body returned by POST /api/merge.
type MergeResponse struct {
	Text  string           `json:"text"`
	Stats codec.MergeStats `json:"stats"`
}

// FileTypeResponse describes one registered file type.
type FileTypeResponse struct {
	Glob           string         `json:"glob"`
	Separator      string         `json:"separator"`
	Key            string         `json:"key,omitempty"`
	Header         bool           `json:"header"`
	Columns        []codec.Column `json:"columns,omitempty"`
	NonLocalizable []string       `json:"nonLocalizable,omitempty"`
	Template       string         `json:"template"`
}

// JobsResponse is the body of GET /api/jobs.
type JobsResponse struct {
	Jobs    []core.Job         `json:"jobs"`
	Limiter core.LimiterStatus `json:"limiter"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.service.Limiter().Status(),
	})
}

func (s *Server) handleFileTypes(w http.ResponseWriter, r *http.Request) {
	types := s.service.Registry().All()
	resp := make([]FileTypeResponse, 0, len(types))
	for _, ft := range types {
		resp = append(resp, fileTypeResponse(ft))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetFileType returns the file type registered for the glob in the
// rest of the path, e.g. /api/file-types/**/*.csv.
func (s *Server) handleGetFileType(w http.ResponseWriter, r *http.Request) {
	glob := chi.URLParam(r, "*")
	ft, ok := s.service.Registry().Get(glob)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   fmt.Sprintf("no file type registered for %q", glob),
			Message: "File type not found",
			Action:  "List the registered globs with /api/file-types",
			Code:    "MAP002",
		})
		return
	}
	writeJSON(w, http.StatusOK, fileTypeResponse(ft))
}

func fileTypeResponse(ft core.FileType) FileTypeResponse {
	sep := ft.Options.ColumnSeparator
	if sep == 0 {
		sep = codec.DefaultColumnSeparator
	}
	return FileTypeResponse{
		Glob:           ft.Glob,
		Separator:      string(sep),
		Key:            ft.Options.Key,
		Header:         ft.Options.HasHeader,
		Columns:        ft.Options.Columns,
		NonLocalizable: ft.Options.NonLocalizable,
		Template:       ft.Template,
	}
}

// handleParse parses the request body as the file named by ?path= and
// returns its structure.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	path, text, err := s.readFileRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	f, err := s.service.ParseText(path, text)
	if err != nil {
		fail(w, r, err)
		return
	}

	records := f.Records()
	if records == nil {
		records = []codec.Record{}
	}
	cells := f.LocalizableCells(s.service.SourceLocale())
	if cells == nil {
		cells = []codec.Cell{}
	}
	writeJSON(w, http.StatusOK, ParseResponse{
		Path:      path,
		Separator: string(f.Separator()),
		Key:       f.Key(),
		Columns:   f.Columns(),
		Records:   records,
		Cells:     cells,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	path, text, err := s.readFileRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	rs, err := s.service.ExtractText(r.Context(), path, text)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Path: path, Count: len(rs), Resources: rs})
}

// handleLocalize returns the request body localized into {locale}, as the
// same delimited format it was sent in.
func (s *Server) handleLocalize(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")

	path, text, err := s.readFileRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	out, err := s.service.LocalizeText(ctx, path, text, locale)
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(path))
	w.Header().Set("Content-Language", locale)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		fail(w, r, core.ErrMissingPath)
		return
	}

	text, stats, err := s.service.MergeText(req.Path, req.Target, req.Source)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MergeResponse{Text: text, Stats: stats})
}

// handleListTranslations lists stored resources for ?locale=. Without a
// locale the untranslated source strings are listed.
func (s *Server) handleListTranslations(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")

	rs, err := s.service.Store().List(r.Context(), locale)
	if err != nil {
		fail(w, r, err)
		return
	}
	if rs == nil {
		rs = []translation.Resource{}
	}
	writeJSON(w, http.StatusOK, rs)
}

// handleSaveTranslations stores a JSON array of translated resources.
func (s *Server) handleSaveTranslations(w http.ResponseWriter, r *http.Request) {
	var rs []translation.Resource
	if err := s.decodeJSON(w, r, &rs); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if len(rs) == 0 {
		fail(w, r, core.ErrNoContent)
		return
	}

	if err := s.service.SaveTranslations(r.Context(), rs...); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(rs)})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, JobsResponse{
		Jobs:    s.service.Jobs(),
		Limiter: s.service.Limiter().Status(),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.service.Job(chi.URLParam(r, "jobID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "job not found",
			Message: "Job not found",
			Action:  "Jobs are kept for a limited time; list /api/jobs",
			Code:    "JOB004",
		})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// readFileRequest returns the ?path= parameter and the decoded body.
func (s *Server) readFileRequest(r *http.Request) (string, string, error) {
	path := r.URL.Query().Get("path")
	if path == "" {
		return "", "", core.ErrMissingPath
	}

	text, err := core.DecodeText(r.Body, s.cfg.Jobs.MaxFileSize)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", "", core.ErrNoContent
	}
	return path, text, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Jobs.MaxFileSize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func contentTypeFor(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return "text/tab-separated-values; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}
