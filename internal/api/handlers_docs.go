package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/interp"
	"github.com/dgallion1/orgdoc/internal/parser"
)

// handleFormats lists the registered export backends.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	var formats []map[string]string
	for _, name := range export.Formats() {
		b, err := export.Lookup(name)
		if err != nil {
			continue
		}
		formats = append(formats, map[string]string{
			"name":         b.Name(),
			"extension":    b.Extension(),
			"content_type": b.ContentType(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"formats": formats,
		"default": s.cfg.DefaultFormat,
	})
}

// handleImport converts an uploaded foreign document. The response is the
// outline markup by default, the JSON tree with as=json, or an export when
// the "to" field names a backend.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("import failed", "filename", filename, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if title := r.FormValue("title"); title != "" {
		delete(doc.Keywords, "TITLE")
		delete(doc.KeywordLists, "TITLE")
		doc.SetKeyword("TITLE", title)
	}

	switch to := r.FormValue("to"); {
	case to != "":
		out, err := s.orchestrator.Export(to, doc, export.Overrides{})
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeDocument(w, out.Data, out.ContentType, stem(filename)+out.Extension)
	case r.FormValue("as") == "json":
		writeJSON(w, http.StatusOK, doc)
	default:
		text := interp.Document(doc, interp.Options{PreserveTimestamps: true})
		w.Header().Set("Content-Type", "text/x-org; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text)
	}
}
