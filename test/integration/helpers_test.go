//go:build integration

package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/m4sc0/new/internal/logger"
	"github.com/m4sc0/new/internal/remote"
	"github.com/m4sc0/new/internal/store"
)

const uploadToken = "integration-token"

// testEnv holds paths to isolated test directories.
type testEnv struct {
	StoreDir    string // image store root
	TemplateDir string // source folders handed to build
	ProjectDir  string // where projects get created
	Registry    *fakeRegistry
}

// setupTestEnv creates isolated temp directories and a registry server.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		StoreDir:    filepath.Join(t.TempDir(), "images"),
		TemplateDir: t.TempDir(),
		ProjectDir:  t.TempDir(),
		Registry:    newFakeRegistry(t),
	}
	return env
}

func (e *testEnv) store(t *testing.T) *store.Store {
	t.Helper()
	return store.New(e.StoreDir, logger.Nop())
}

func (e *testEnv) client(t *testing.T, s *store.Store) *remote.Client {
	t.Helper()
	return remote.New(e.Registry.URL, s, remote.WithLogger(logger.Nop()))
}

// setupTemplates writes a few template source folders under dir.
func setupTemplates(t *testing.T, dir string) {
	t.Helper()

	// --- Python service ---
	writeFile(t, filepath.Join(dir, "fastapi", "template.json"), `{
  "name": "fastapi",
  "description": "FastAPI service skeleton",
  "placeholders": ["author", "project_name", "port"],
  "open": "{{project_name}}/main.py",
  "ignore": [".git"]
}
`)
	writeFile(t, filepath.Join(dir, "fastapi", "{{project_name}}", "main.py"), `"""{{project_title}} by {{author}}."""

from fastapi import FastAPI

app = FastAPI(title="{{project_title}}")
`)
	writeFile(t, filepath.Join(dir, "fastapi", "{{project_name}}", "__init__.py"), "")
	writeFile(t, filepath.Join(dir, "fastapi", "Dockerfile"), "EXPOSE {{port}}\n")
	writeFile(t, filepath.Join(dir, "fastapi", ".git", "HEAD"), "ref: refs/heads/main\n")
	writeBytes(t, filepath.Join(dir, "fastapi", "static", "favicon.ico"), []byte{0x00, 0x00, 0x01, 0x00, 0xff, 0xfe, '{', '{'})

	// --- Document ---
	writeFile(t, filepath.Join(dir, "letter", "template.json"), `{"name": "letter", "placeholders": ["recipient"]}`)
	writeFile(t, filepath.Join(dir, "letter", "letter.md"), "Dear {{recipient}},\n\n{{date}}\n")
}

// fakeRegistry serves the list/meta/get/upload endpoints from memory.
type fakeRegistry struct {
	URL string

	mu       sync.Mutex
	archives map[string][]byte
	meta     map[string]map[string]string
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	reg := &fakeRegistry{archives: map[string][]byte{}, meta: map[string]map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /list", reg.list)
	mux.HandleFunc("GET /get/{category}/{name}/{version}", reg.get)
	mux.HandleFunc("POST /upload", reg.upload)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	reg.URL = srv.URL
	return reg
}

func (r *fakeRegistry) list(w http.ResponseWriter, _ *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[string]map[string]string{}
	for id, m := range r.meta {
		result[id] = m
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func (r *fakeRegistry) get(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("category") + "/" + req.PathValue("name") + ":" + req.PathValue("version")
	r.mu.Lock()
	data, ok := r.archives[id]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(data)
}

func (r *fakeRegistry) upload(w http.ResponseWriter, req *http.Request) {
	if req.Header.Get("Authorization") != "Bearer "+uploadToken {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	f, _, err := req.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields := map[string]string{}
	for _, k := range []string{"category", "name", "version", "description"} {
		fields[k] = req.FormValue(k)
	}
	id := fields["category"] + "/" + fields["name"] + ":" + fields["version"]

	r.mu.Lock()
	r.archives[id] = data
	r.meta[id] = fields
	r.mu.Unlock()
	_, _ = io.WriteString(w, `{"ok": true}`)
}

func (r *fakeRegistry) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.archives[id]
	return ok
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	writeBytes(t, path, []byte(content))
}

func writeBytes(t *testing.T, path string, data []byte) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

// assertSameFile fails if the two files differ byte for byte.
func assertSameFile(t *testing.T, a, b string) {
	t.Helper()
	da, err := os.ReadFile(a)
	if err != nil {
		t.Fatalf("reading %s: %v", a, err)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		t.Fatalf("reading %s: %v", b, err)
	}
	if string(da) != string(db) {
		t.Errorf("%s and %s differ", a, b)
	}
}
