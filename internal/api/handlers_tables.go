package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/orgdoc/internal/tblfm"
)

type recalcRequest struct {
	Text string `json:"text"`
}

// handleRecalc reruns every #+TBLFM: line of a document. The body is either
// {"text": ...} or the raw document text.
func (s *Server) handleRecalc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	text := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req recalcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		text = req.Text
	}

	out, tables := tblfm.RecalcDocument(text)
	if tables == nil {
		tables = []tblfm.TableResult{}
	}
	changed := 0
	for _, t := range tables {
		changed += len(t.Updates)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":    out,
		"tables":  tables,
		"changed": changed,
	})
}
