// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock CMS endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCMS is a configurable mock headless-CMS server for testing.
type MockCMS struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastRequestQuery  url.Values
}

// NewMockCMS creates a new mock CMS server.
func NewMockCMS() *MockCMS {
	mock := &MockCMS{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequestQuery = r.URL.Query()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCMS) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCMS) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCMS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastRequestQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCMS) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCMS) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetResponseSequence serves one response per request in order, repeating
// the last one once the sequence is exhausted. Useful for fail-then-succeed
// retry scenarios.
func (m *MockCMS) SetResponseSequence(path string, responses []MockResponse) {
	var mu sync.Mutex
	index := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[index]
		if index < len(responses)-1 {
			index++
		}
		mu.Unlock()

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCMS) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler answers any unconfigured path with an empty envelope.
func (m *MockCMS) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data": []}`))
}

// Envelope builds a {data, meta} response body from any data value.
func Envelope(data any, meta map[string]int) string {
	body := map[string]any{"data": data}
	if meta != nil {
		body["meta"] = meta
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal envelope: %v", err))
	}
	return string(encoded)
}

// NewEnvelopeResponse creates a 200 OK envelope response.
func NewEnvelopeResponse(data any, meta map[string]int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       Envelope(data, meta),
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors": [{"message": "Internal server error"}]}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errors": [{"message": "Rate limit exceeded"}]}`,
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"errors": [{"message": "Item not found"}]}`,
	}
}

// ShowItem is the wire shape of a category_show row for mock listings.
func ShowItem(id, title string, rating float64) map[string]any {
	return map[string]any{
		"sort": 1,
		"show_id": map[string]any{
			"id":            id,
			"title":         title,
			"thumbnail_src": "https://img.example/" + id + ".jpg",
			"tmdb_rating":   rating,
			"release_date":  "2024-01-01",
		},
	}
}

// CategoryItem is the wire shape of a category_collection_category row.
func CategoryItem(sort int, id, title, description string) map[string]any {
	return map[string]any{
		"sort": sort,
		"category_id": map[string]any{
			"id":          id,
			"title":       title,
			"description": description,
		},
	}
}
