package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// AssetServer is an in-memory deployment serving files by path relative to
// its root. Unknown paths answer 404. Every request path is recorded.
type AssetServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	failures map[string][]int
	requests []string
	headers  []http.Header
}

// NewAssetServer starts a server that is closed when the test ends.
func NewAssetServer(t testing.TB) *AssetServer {
	t.Helper()

	s := &AssetServer{
		files:    make(map[string][]byte),
		failures: make(map[string][]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *AssetServer) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.Lock()
	s.requests = append(s.requests, path)
	s.headers = append(s.headers, r.Header.Clone())
	var status int
	if queue := s.failures[path]; len(queue) > 0 {
		status = queue[0]
		s.failures[path] = queue[1:]
	}
	body, ok := s.files[path]
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(body)
}

// BaseURL returns the server root with a trailing slash.
func (s *AssetServer) BaseURL() string {
	return s.URL + "/"
}

// Put serves body at path.
func (s *AssetServer) Put(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[strings.TrimPrefix(path, "/")] = body
}

// PutJSON serves the JSON encoding of value at path.
func (s *AssetServer) PutJSON(t testing.TB, path string, value any) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	s.Put(path, data)
}

// FailNext makes the next len(statuses) requests for path answer with the
// given statuses before normal serving resumes.
func (s *AssetServer) FailNext(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimPrefix(path, "/")
	s.failures[key] = append(s.failures[key], statuses...)
}

// Requests returns a copy of the recorded request paths in arrival order.
func (s *AssetServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestCount returns the number of requests served so far.
func (s *AssetServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastHeader returns the headers of the most recent request.
func (s *AssetServer) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

// ResetRequests clears the request log.
func (s *AssetServer) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.headers = nil
}
