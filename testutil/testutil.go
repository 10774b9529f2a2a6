// Package testutil provides in-memory mocks of the IMS token endpoint and the
// Firefly generation endpoint for testing code built on this module.
//
// Both mocks answer through plain http.RoundTripper implementations, so tests
// never open sockets. They record every request they receive, which makes
// call-count assertions (cache hits, zero-call guarantees) straightforward.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// StaticJSONResponse returns a RoundTripper that always responds with the provided JSON body.
func StaticJSONResponse(body string) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// MockIMSServer simulates the IMS token endpoint. It records the form body of
// every token request and serves a configurable JSON response.
type MockIMSServer struct {
	// Status and Response configure the served response. Defaults: 200 and
	// a token body with a one-hour lifetime.
	Status   int
	Response string

	mu       sync.Mutex
	requests []url.Values
}

// NewMockIMSServer builds a mock IMS token endpoint with a default successful
// token response.
func NewMockIMSServer(tb testing.TB) *MockIMSServer {
	tb.Helper()

	return &MockIMSServer{
		Status: http.StatusOK,
		Response: `{
			"access_token": "mock-access-token",
			"token_type": "bearer",
			"expires_in": 3600
		}`,
	}
}

// Client returns an HTTP client that answers token requests in memory.
func (m *MockIMSServer) Client() *http.Client {
	return &http.Client{Transport: RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.requests = append(m.requests, form)
		status := m.Status
		response := m.Response
		m.mu.Unlock()

		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(response)),
			Request:    req,
		}, nil
	})}
}

// CallCount returns how many token requests were received.
func (m *MockIMSServer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded form bodies.
func (m *MockIMSServer) Requests() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]url.Values, len(m.requests))
	copy(out, m.requests)
	return out
}

// GenerationRequest is one recorded call to a MockFireflyServer.
type GenerationRequest struct {
	Header http.Header
	Body   map[string]any
}

// MockFireflyServer simulates the Firefly generation endpoint. It records the
// headers and decoded JSON body of every request and serves a configurable
// response.
type MockFireflyServer struct {
	// Status and Response configure the served response. Defaults: 200 and
	// a single-output body with a placeholder image URL.
	Status   int
	Response string

	// Err, when set, makes the transport fail outright to simulate a
	// network error.
	Err error

	mu       sync.Mutex
	requests []GenerationRequest
}

// NewMockFireflyServer builds a mock generation endpoint with a default
// successful response.
func NewMockFireflyServer(tb testing.TB) *MockFireflyServer {
	tb.Helper()

	return &MockFireflyServer{
		Status:   http.StatusOK,
		Response: `{"outputs":[{"image":{"url":"https://images.example.com/generated.png"}}]}`,
	}
}

// Client returns an HTTP client that answers generation requests in memory.
func (m *MockFireflyServer) Client() *http.Client {
	return &http.Client{Transport: RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		m.mu.Lock()
		failure := m.Err
		status := m.Status
		response := m.Response
		m.mu.Unlock()

		if failure != nil {
			return nil, failure
		}

		recorded := GenerationRequest{Header: req.Header.Clone()}
		if req.Body != nil {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			// Non-JSON bodies are recorded with a nil Body.
			_ = json.Unmarshal(raw, &recorded.Body)
		}

		m.mu.Lock()
		m.requests = append(m.requests, recorded)
		m.mu.Unlock()

		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(response)),
			Request:    req,
		}, nil
	})}
}

// CallCount returns how many generation requests were received.
func (m *MockFireflyServer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded generation requests.
func (m *MockFireflyServer) Requests() []GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerationRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
