package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/orgdoc/internal/config"
	_ "github.com/dgallion1/orgdoc/internal/export/htmlexp"
	_ "github.com/dgallion1/orgdoc/internal/export/mdexp"
	_ "github.com/dgallion1/orgdoc/internal/export/wordexp"
	"github.com/dgallion1/orgdoc/internal/pipeline"
)

const testKey = "test-key"

const treeJSON = `{"keywords":{"TITLE":"Notes"},"children":[
  {"type":"headline","properties":{"level":1,"rawValue":"Intro","title":[{"type":"plain-text","properties":{"value":"Intro"}}]},
   "section":{"type":"section","children":[{"type":"paragraph","children":[{"type":"plain-text","properties":{"value":"hello"}}]}]}}
]}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		DefaultFormat:  "html",
		StatsWindow:    time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func do(t *testing.T, s *Server, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func exportBody(extra string) io.Reader {
	return strings.NewReader(`{"filename":"notes.org",` + extra + `"document":` + treeJSON + `}`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong bearer", "Authorization", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "Authorization", "Bearer " + testKey, http.StatusOK},
		{"api key header", "X-API-Key", testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/formats", "", nil)
	var resp struct {
		Formats []map[string]string `json:"formats"`
		Default string              `json:"default"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	names := map[string]bool{}
	for _, f := range resp.Formats {
		names[f["name"]] = true
	}
	for _, want := range []string{"html", "md", "docx"} {
		if !names[want] {
			t.Errorf("expected format %q in %v", want, resp.Formats)
		}
	}
	if resp.Default != "html" {
		t.Errorf("expected default %q, got %q", "html", resp.Default)
	}
}

func TestExportSync(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/export/markdown", "application/json", exportBody(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "hello") {
		t.Errorf("expected body text, got %q", rec.Body.String())
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("expected an ETag")
	}

	rec = do(t, s, http.MethodPost, "/api/export/docx", "application/json", exportBody(""))
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="notes.docx"`) {
		t.Errorf("expected docx attachment, got %q", cd)
	}
}

func TestExportErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown format", "/api/export/rtf", `{"document":{}}`, http.StatusNotFound},
		{"bad json", "/api/export/html", `{`, http.StatusBadRequest},
		{"missing document", "/api/export/html", `{"filename":"x"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, "application/json", strings.NewReader(tt.body))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected json error, got %q", rec.Body.String())
			}
		})
	}
}

func TestJobLifecycle(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/jobs", "application/json", exportBody(`"format":"md",`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, _ := submitted["job_id"].(string)
	if id == "" {
		t.Fatal("expected a job id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = do(t, s, http.MethodGet, "/api/jobs/"+id, "", nil)
		var snap pipeline.JobSnapshot
		if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted {
			break
		}
		if snap.Status == pipeline.StatusFailed || time.Now().After(deadline) {
			t.Fatalf("job did not complete: %+v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id+"/result", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hello") {
		t.Errorf("unexpected result %d %q", rec.Code, rec.Body.String())
	}

	if rec := do(t, s, http.MethodGet, "/api/jobs/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}
}

func TestRecalc(t *testing.T) {
	s := newTestServer(t)
	text := "| a | b |\n|---+---|\n| 1 |   |\n#+TBLFM: $2=$1*2"

	for _, ct := range []string{"text/plain", "application/json"} {
		body := text
		if ct == "application/json" {
			b, _ := json.Marshal(map[string]string{"text": text})
			body = string(b)
		}
		rec := do(t, s, http.MethodPost, "/api/tables/recalc", ct, strings.NewReader(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", ct, rec.Code)
		}
		var resp struct {
			Text    string `json:"text"`
			Changed int    `json:"changed"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(resp.Text, "| 1 | 2 |") || resp.Changed != 1 {
			t.Errorf("%s: unexpected recalc %+v", ct, resp)
		}
	}
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = io.WriteString(fw, content)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestImport(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartUpload(t, "guide.md", "# Setup\n\nRun **make**.\n", nil)
	rec := do(t, s, http.MethodPost, "/api/import", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := rec.Body.String()
	for _, want := range []string{"#+TITLE: guide", "* Setup", "Run *make*."} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}

	body, ct = multipartUpload(t, "guide.md", "# Setup\n", map[string]string{"to": "html", "title": "Guide"})
	rec = do(t, s, http.MethodPost, "/api/import", ct, body)
	if !strings.Contains(rec.Body.String(), "<title>Guide</title>") {
		t.Errorf("expected html export with title, got %q", rec.Body.String())
	}

	body, ct = multipartUpload(t, "sheet.xls", "x", nil)
	if rec := do(t, s, http.MethodPost, "/api/import", ct, body); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}
}

func TestExportStats(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/export/md", "application/json", exportBody(""))

	rec := do(t, s, http.MethodGet, "/api/stats/export", "", nil)
	var resp struct {
		Stats map[string]pipeline.StatsSnapshot `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Stats["md"].Count != 1 {
		t.Errorf("expected one md sample, got %+v", resp.Stats)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.org", "report.org"},
		{"../../etc/passwd", "passwd"},
		{"", "unnamed"},
		{"a..b.md", "a_.b.md"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
