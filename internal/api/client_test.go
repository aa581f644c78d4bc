package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/moonfall/colonysim/pkg/core"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:5000", "secret123")

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected baseURL=http://localhost:5000, got %s", c.baseURL)
	}
	if c.apiKey != "secret123" {
		t.Errorf("expected apiKey=secret123, got %s", c.apiKey)
	}
	if c.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "")
	if err := c.Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	if err := c.Healthcheck(context.Background()); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "")
	if err := c.Healthcheck(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

type received struct {
	fields  map[string]string
	content []byte
}

func uploadServer(t *testing.T, status int, got *received) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/runs/add" {
			t.Errorf("expected path /api/v1/runs/add, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got.fields = map[string]string{}
		for _, k := range []string{"secret", "filename", "runName", "runDuration", "days", "tag"} {
			got.fields[k] = r.FormValue(k)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("failed to get file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		got.content, _ = io.ReadAll(file)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestUpload_Success(t *testing.T) {
	var got received
	server := uploadServer(t, http.StatusOK, &got)
	path := writeTestFile(t, "first_colony.json.zst", []byte("journal"))

	c := New(server.URL, "mysecret")
	meta := core.UploadMetadata{RunName: "first colony", RunDuration: 3600.5, Days: 7, Tag: "colony"}
	if err := c.Upload(context.Background(), path, meta); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	want := map[string]string{
		"secret":      "mysecret",
		"filename":    "first_colony.json.zst",
		"runName":     "first colony",
		"runDuration": "3600.500",
		"days":        "7",
		"tag":         "colony",
	}
	for k, v := range want {
		if got.fields[k] != v {
			t.Errorf("expected %s=%s, got %s", k, v, got.fields[k])
		}
	}
	if string(got.content) != "journal" {
		t.Errorf("expected file content 'journal', got %q", got.content)
	}
}

func TestUpload_FileNotFound(t *testing.T) {
	c := New("http://localhost:5000", "secret")
	err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.json"), core.UploadMetadata{})
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestUpload_ServerError(t *testing.T) {
	var got received
	server := uploadServer(t, http.StatusInternalServerError, &got)
	path := writeTestFile(t, "run.json", []byte("{}"))

	c := New(server.URL, "secret")
	if err := c.Upload(context.Background(), path, core.UploadMetadata{}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestUpload_Cancelled(t *testing.T) {
	var got received
	server := uploadServer(t, http.StatusOK, &got)
	path := writeTestFile(t, "run.json", []byte("{}"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(server.URL, "secret")
	if err := c.Upload(ctx, path, core.UploadMetadata{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

type fakeExporter struct {
	path string
	meta core.UploadMetadata
}

func (f fakeExporter) ExportedFilePath() string            { return f.path }
func (f fakeExporter) ExportMetadata() core.UploadMetadata { return f.meta }

func TestUploadRun_UsesExportAndTag(t *testing.T) {
	var got received
	server := uploadServer(t, http.StatusOK, &got)
	path := writeTestFile(t, "run.json", []byte("{}"))

	c := New(server.URL, "secret")
	e := fakeExporter{path: path, meta: core.UploadMetadata{RunName: "r", Days: 2, Tag: "backend"}}
	if err := c.UploadRun(context.Background(), e, "override"); err != nil {
		t.Fatalf("UploadRun failed: %v", err)
	}
	if got.fields["tag"] != "override" {
		t.Errorf("expected tag=override, got %s", got.fields["tag"])
	}
	if got.fields["days"] != "2" {
		t.Errorf("expected days=2, got %s", got.fields["days"])
	}
}

func TestUploadRun_NoExport(t *testing.T) {
	c := New("http://localhost:5000", "secret")
	if err := c.UploadRun(context.Background(), fakeExporter{}, ""); !errors.Is(err, ErrNoExport) {
		t.Errorf("expected ErrNoExport, got %v", err)
	}
}
