package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Reply is one scripted response of an APIServer route.
type Reply struct {
	Status int
	Body   string
	Header map[string]string
}

// APIServer is a scripted JSON API for service client tests. Routes are
// keyed as "METHOD /path"; unscripted paths get a 404 with a standard error
// envelope. Every request is recorded for assertions.
type APIServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	replies  map[string][]Reply
	handlers map[string]http.HandlerFunc
	received []ReceivedRequest
}

// ReceivedRequest is one request the server handled.
type ReceivedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewAPIServer starts an API server that shuts down when the test finishes.
func NewAPIServer(t testing.TB) *APIServer {
	t.Helper()
	a := &APIServer{
		replies:  make(map[string][]Reply),
		handlers: make(map[string]http.HandlerFunc),
	}
	a.srv = httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(a.srv.Close)
	return a
}

// URL returns the server's base URL.
func (a *APIServer) URL() string { return a.srv.URL }

// Handle scripts a single response that repeats for every matching request.
func (a *APIServer) Handle(route string, status int, body string) {
	a.HandleSeries(route, Reply{Status: status, Body: body})
}

// HandleSeries scripts a sequence of responses consumed in order; the last
// one repeats once the sequence is exhausted.
func (a *APIServer) HandleSeries(route string, series ...Reply) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[route] = series
}

// HandleFunc installs a raw handler for a route.
func (a *APIServer) HandleFunc(route string, fn http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[route] = fn
}

// Received returns all recorded requests.
func (a *APIServer) Received() []ReceivedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ReceivedRequest(nil), a.received...)
}

// Last returns the most recent request, or nil when none arrived.
func (a *APIServer) Last() *ReceivedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.received) == 0 {
		return nil
	}
	last := a.received[len(a.received)-1]
	return &last
}

// Requests returns how many requests the server has received.
func (a *APIServer) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.received)
}

func (a *APIServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	route := r.Method + " " + r.URL.Path

	a.mu.Lock()
	a.received = append(a.received, ReceivedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	handler := a.handlers[route]
	var reply *Reply
	if series, ok := a.replies[route]; ok && len(series) > 0 {
		reply = &series[0]
		if len(series) > 1 {
			a.replies[route] = series[1:]
		}
	}
	a.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}
	if reply == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":{"code":"NOT_FOUND","message":"no route for %s"}}`, route)
		return
	}

	for k, v := range reply.Header {
		w.Header().Set(k, v)
	}
	if reply.Body != "" && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(reply.Status)
	if reply.Body != "" {
		_, _ = fmt.Fprint(w, reply.Body)
	}
}
