package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// stubRegistry is an in-memory registry speaking the registry protocol.
type stubRegistry struct {
	*httptest.Server

	token string

	mu       sync.Mutex
	archives map[string][]byte // "cat/name/version" -> zip
	meta     map[string][]byte
	uploads  []upload
}

type upload struct {
	fields map[string]string
	auth   string
}

func newStubRegistry(t *testing.T, token string) *stubRegistry {
	t.Helper()
	s := &stubRegistry{token: token, archives: map[string][]byte{}, meta: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /list", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		result := map[string]map[string]string{}
		for key := range s.archives {
			parts := strings.Split(key, "/")
			result[parts[0]+"/"+parts[1]+":"+parts[2]] = map[string]string{
				"category": parts[0], "name": parts[1], "version": parts[2],
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	})
	mux.HandleFunc("GET /get/{category}/{name}/{version}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		data, ok := s.archives[key(r)]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(data)
	})
	mux.HandleFunc("GET /meta/{category}/{name}/{version}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		data, ok := s.meta[key(r)]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		fields := map[string]string{}
		for _, f := range []string{"category", "name", "version", "description"} {
			fields[f] = r.FormValue(f)
		}
		k := fields["category"] + "/" + fields["name"] + "/" + fields["version"]

		s.mu.Lock()
		s.archives[k] = data
		s.uploads = append(s.uploads, upload{fields: fields, auth: r.Header.Get("Authorization")})
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func key(r *http.Request) string {
	return r.PathValue("category") + "/" + r.PathValue("name") + "/" + r.PathValue("version")
}

func (s *stubRegistry) Uploads() []upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upload(nil), s.uploads...)
}
