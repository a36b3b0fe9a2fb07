// Package testutil provides testing utilities for the photo fetcher.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// ListPath is the listing endpoint served by MockPicsum.
const ListPath = "/v2/list"

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPicsum is a configurable mock of the Picsum listing API.
// By default it pages through a catalogue of Total generated photos.
type MockPicsum struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	total    int

	requestCount      int
	lastQuery         url.Values
	lastRequestHeader http.Header
}

// NewMockPicsum starts a mock server holding total photos.
func NewMockPicsum(total int) *MockPicsum {
	mock := &MockPicsum{
		handlers: make(map[string]http.HandlerFunc),
		total:    total,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastQuery = r.URL.Query()
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.listHandler(w, r)
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockPicsum) URL() string {
	return m.server.URL
}

// Client returns an HTTP client wired to the mock server.
func (m *MockPicsum) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockPicsum) Close() {
	m.server.Close()
}

// Reset clears tracking counters.
func (m *MockPicsum) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastQuery = nil
	m.lastRequestHeader = nil
}

// SetTotal changes the size of the generated catalogue.
func (m *MockPicsum) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetHandler overrides the handler for a path.
func (m *MockPicsum) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockPicsum) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests served.
func (m *MockPicsum) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastQuery returns the query string of the most recent request.
func (m *MockPicsum) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPicsum) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

func (m *MockPicsum) listHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != ListPath {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 30
	}

	m.mu.RLock()
	total := m.total
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Photos((page-1)*limit, min(limit, max(total-(page-1)*limit, 0))))
}

// Photos generates count photos with sequential ids starting at first.
func Photos(first, count int) []photo.Photo {
	photos := make([]photo.Photo, 0, count)
	for i := first; i < first+count; i++ {
		photos = append(photos, Photo(i))
	}
	return photos
}

// Photo generates a deterministic photo for id.
func Photo(id int) photo.Photo {
	return photo.Photo{
		ID:          strconv.Itoa(id),
		Author:      fmt.Sprintf("Author %d", id),
		URL:         fmt.Sprintf("https://unsplash.com/photos/%d", id),
		DownloadURL: fmt.Sprintf("https://picsum.photos/id/%d/5000/3333", id),
	}
}

// PhotosJSON encodes photos in the listing wire format.
func PhotosJSON(photos []photo.Photo) string {
	data, err := json.Marshal(photos)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// NewPageResponse creates a 200 OK response carrying photos.
func NewPageResponse(photos []photo.Photo) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       PhotosJSON(photos),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewStatusResponse creates an error response with the given status.
func NewStatusResponse(status int) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error": %q}`, http.StatusText(status)),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewBlockingHandler returns a handler that signals on started and waits
// for release before serving photos.
func NewBlockingHandler(photos []photo.Photo, started chan<- struct{}, release <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(PhotosJSON(photos)))
	}
}
