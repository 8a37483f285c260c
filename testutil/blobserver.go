package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// BlobServer serves a fixed payload over HTTP with Range support. Drops can
// be scripted per request to simulate connections failing mid-body. Open
// ranges (bytes=N-) receive a 206 with the remainder, bounded ranges
// (bytes=N-M) just the requested slice.
type BlobServer struct {
	payload []byte
	srv     *httptest.Server

	mu           sync.Mutex
	drops        []int
	rejectRanges bool
	ranges       []string
}

// NewBlobServer starts a blob server for payload. The server shuts down
// when the test finishes.
func NewBlobServer(t testing.TB, payload []byte) *BlobServer {
	t.Helper()
	b := &BlobServer{payload: payload}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

// URL returns the server's base URL.
func (b *BlobServer) URL() string { return b.srv.URL }

// Len returns the payload length.
func (b *BlobServer) Len() int { return len(b.payload) }

// DropAfter schedules connection cuts: the Nth upcoming response is aborted
// after writing offsets[N] bytes of its body.
func (b *BlobServer) DropAfter(offsets ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drops = append(b.drops, offsets...)
}

// RejectRanges makes the server answer every Range request with 416.
func (b *BlobServer) RejectRanges() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectRanges = true
}

// Ranges returns the Range header of every request seen so far, empty
// strings for requests without one.
func (b *BlobServer) Ranges() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ranges...)
}

// Requests returns how many requests the server has received.
func (b *BlobServer) Requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ranges)
}

func (b *BlobServer) nextDrop() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.drops) == 0 {
		return -1
	}
	cut := b.drops[0]
	b.drops = b.drops[1:]
	return cut
}

func (b *BlobServer) serve(w http.ResponseWriter, r *http.Request) {
	rng := r.Header.Get("Range")
	b.mu.Lock()
	b.ranges = append(b.ranges, rng)
	reject := b.rejectRanges
	b.mu.Unlock()

	start, end := 0, len(b.payload)-1
	if rng != "" {
		if reject || !parseRange(rng, len(b.payload), &start, &end) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", start, end, len(b.payload)))
		w.Header().Set("Content-Length", strconv.Itoa(end-start+1))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.Header().Set("Content-Length", strconv.Itoa(len(b.payload)))
		w.WriteHeader(http.StatusOK)
	}

	rest := b.payload[start : end+1]
	if cut := b.nextDrop(); cut >= 0 && cut < len(rest) {
		_, _ = w.Write(rest[:cut])
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}
	_, _ = w.Write(rest)
}

// parseRange understands bytes=N- and bytes=N-M range headers. Ends past the
// payload are clamped.
func parseRange(rng string, size int, start, end *int) bool {
	if n, _ := fmt.Sscanf(rng, "bytes=%d-%d", start, end); n == 2 {
		if *start < 0 || *start >= size || *end < *start {
			return false
		}
		if *end >= size {
			*end = size - 1
		}
		return true
	}
	if n, _ := fmt.Sscanf(rng, "bytes=%d-", start); n == 1 && *start >= 0 && *start < size {
		*end = size - 1
		return true
	}
	return false
}

// Payload generates n deterministic bytes for download assertions.
func Payload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}
