package ditesting

import (
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
)

// ObjectStore is an in-memory stand-in for the remote blob store. It accepts
// PUT uploads and answers GET/HEAD by path, recording every request.
type ObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	requests []Request
	// FailWrites makes every PUT answer 500.
	FailWrites bool
}

// Request captures one call against the store.
type Request struct {
	Method string
	Path   string
	Query  string
}

// NewObjectStore constructs an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: map[string][]byte{}}
}

func (s *ObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})

	switch r.Method {
	case http.MethodPut:
		if s.FailWrites {
			http.Error(w, "write rejected", http.StatusInternalServerError)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.objects[r.URL.Path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := s.objects[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Object returns the stored body for an object path such as
// "/templates/lv/index.json".
func (s *ObjectStore) Object(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	return slices.Clone(data), ok
}

// Put seeds an object directly.
func (s *ObjectStore) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects["/"+strings.TrimPrefix(path, "/")] = slices.Clone(data)
}

// Requests returns a copy of the recorded calls.
func (s *ObjectStore) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Serve starts an httptest server for the store, closed with the test.
func (s *ObjectStore) Serve(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

// RemoteConfig returns a configuration pointing remote mode at srv with
// retries disabled.
func RemoteConfig(srv *httptest.Server) runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Mode = runtimeconfig.ModeRemote
	cfg.Storage.Remote.BaseURL = srv.URL
	cfg.Storage.Remote.ReadRetries = 0
	cfg.Storage.Remote.RetryDelay = 0
	cfg.Logging.Level = "error"
	return cfg
}
