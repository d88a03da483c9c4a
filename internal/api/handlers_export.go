package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
	"github.com/dgallion1/orgdoc/internal/pipeline"
)

// exportRequest is the body of the export and job endpoints. Document is
// the JSON document tree.
type exportRequest struct {
	Format   string           `json:"format,omitempty"`
	Filename string           `json:"filename,omitempty"`
	Document json.RawMessage  `json:"document"`
	Options  export.Overrides `json:"options"`
}

func (s *Server) decodeExportRequest(w http.ResponseWriter, r *http.Request) (*exportRequest, *orgtree.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, nil, false
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	if len(req.Document) == 0 {
		jsonError(w, "document is required", http.StatusBadRequest)
		return nil, nil, false
	}
	doc, err := orgtree.Decode(bytes.NewReader(req.Document))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	req.Filename = stem(sanitizeFilename(req.Filename))
	return &req, doc, true
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if _, err := export.Lookup(format); err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	req, doc, ok := s.decodeExportRequest(w, r)
	if !ok {
		return
	}

	out, err := s.orchestrator.Export(format, doc, req.Options)
	if err != nil {
		s.log.Error("export failed", "format", format, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeDocument(w, out.Data, out.ContentType, req.Filename+out.Extension)
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	req, doc, ok := s.decodeExportRequest(w, r)
	if !ok {
		return
	}
	format := req.Format
	if format == "" {
		format = s.cfg.DefaultFormat
	}
	if _, err := export.Lookup(format); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(format, req.Filename, doc, req.Options)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"format":   format,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	data, contentType, filename, ok := job.Result()
	if !ok {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}
	writeDocument(w, data, contentType, filename)
}

// writeDocument sends an exported file. Binary formats are sent as
// attachments.
func writeDocument(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", `"`+pipeline.ContentHashHex(data)[:16]+`"`)
	if !strings.HasPrefix(contentType, "text/") {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// stem drops the extension; exported files take the backend's.
func stem(name string) string {
	if s := strings.TrimSuffix(name, filepath.Ext(name)); s != "" {
		return s
	}
	return name
}
