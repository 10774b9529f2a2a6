package testutil

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// NewLocalHTTPServer starts an HTTP server bound to IPv4 loopback only.
// The sandbox blocks IPv6 listeners, so force tcp4 to keep tests runnable.
func NewLocalHTTPServer(tb testing.TB, handler http.Handler) *httptest.Server {
	tb.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to create IPv4 listener: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	return server
}

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

// MockIMSServer simulates the IMS token endpoint without real sockets.
// It records every form-encoded token request and serves a configurable
// response through an in-memory RoundTripper.
type MockIMSServer struct {
	// Status and Response configure the served response. Defaults: 200 and
	// a token body with a one-hour lifetime.
	Status   int
	Response string

	mu       sync.Mutex
	requests []url.Values
}

// NewMockIMSServer builds a mock IMS token endpoint.
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

// Client returns an HTTP client whose transport records and answers token
// requests in memory.
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
