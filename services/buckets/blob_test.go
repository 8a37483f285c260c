package buckets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/resilience"
	"github.com/veldtcloud/veldt-sdk-go/testutil"
	"github.com/veldtcloud/veldt-sdk-go/transport"
)

// flakyRunner fails its first n calls before anything reaches the wire,
// standing in for a client whose connection attempts are refused.
type flakyRunner struct {
	next  transport.Runner
	fails int

	mu    sync.Mutex
	calls int
}

func (f *flakyRunner) Run(ctx context.Context, req *transport.Request, opts ...transport.CallOption) (*transport.Response, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.fails
	f.mu.Unlock()
	if fail {
		return nil, errs.NewServiceRequestError(errors.New("connection refused"))
	}
	return f.next.Run(ctx, req, opts...)
}

func (f *flakyRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, Jitter: 0}
}

func TestClient_UploadBlob(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("PUT /containers/media/blobs/app.log", http.StatusCreated,
		`{"name":"app.log","size":11,"etag":"v1"}`)
	c := newClient(t, a.URL())

	info, err := c.UploadBlob(context.Background(), "media", "app.log",
		[]byte("hello world"), WithContentType("text/plain"))
	if err != nil {
		t.Fatalf("UploadBlob() error = %v", err)
	}
	if info.Name != "app.log" || info.Size != 11 || info.Etag != "v1" {
		t.Errorf("UploadBlob() = %+v", info)
	}

	last := a.Last()
	if ct := last.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if string(last.Body) != "hello world" {
		t.Errorf("body = %q", last.Body)
	}
}

func TestClient_UploadBlob_Form(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("PUT /containers/media/blobs/report.pdf", http.StatusCreated,
		`{"name":"report.pdf","size":4}`)
	c := newClient(t, a.URL())

	_, err := c.UploadBlob(context.Background(), "media", "report.pdf",
		[]byte("%PDF"), AsForm(map[string]string{"ttl": "3600"}))
	if err != nil {
		t.Fatalf("UploadBlob() error = %v", err)
	}

	last := a.Last()
	mediaType, params, err := mime.ParseMediaType(last.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("ParseMediaType() error = %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("media type = %q, want multipart/form-data", mediaType)
	}

	fields := map[string]string{}
	var fileName, fileCT string
	var fileBody []byte
	mr := multipart.NewReader(bytes.NewReader(last.Body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		if part.FileName() != "" {
			fileName = part.FileName()
			fileCT = part.Header.Get("Content-Type")
			fileBody = data
			continue
		}
		fields[part.FormName()] = string(data)
	}

	if fields["ttl"] != "3600" {
		t.Errorf("ttl field = %q, want 3600", fields["ttl"])
	}
	if fileName != "report.pdf" || fileCT != "application/octet-stream" {
		t.Errorf("file part = %q (%s)", fileName, fileCT)
	}
	if string(fileBody) != "%PDF" {
		t.Errorf("file body = %q", fileBody)
	}
}

func TestClient_UploadBlob_ValidatesName(t *testing.T) {
	a := testutil.NewAPIServer(t)
	c := newClient(t, a.URL())

	if _, err := c.UploadBlob(context.Background(), "media", "", []byte("x")); err == nil {
		t.Error("UploadBlob() error = nil, want validation error")
	}
	if a.Requests() != 0 {
		t.Errorf("server saw %d requests, want 0", a.Requests())
	}
}

func TestClient_UploadBlob_RetriesUndeliveredRequest(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("PUT /containers/media/blobs/app.log", http.StatusCreated,
		`{"name":"app.log","size":5}`)

	flaky := &flakyRunner{next: newRunner(t), fails: 2}
	c, err := New(a.URL(), flaky, WithUploadRetry(fastRetry(3)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	info, err := c.UploadBlob(context.Background(), "media", "app.log", []byte("hello"))
	if err != nil {
		t.Fatalf("UploadBlob() error = %v", err)
	}
	if info.Size != 5 {
		t.Errorf("Size = %d, want 5", info.Size)
	}
	if flaky.Calls() != 3 {
		t.Errorf("runner calls = %d, want 3", flaky.Calls())
	}
	if a.Requests() != 1 {
		t.Errorf("server saw %d requests, want 1", a.Requests())
	}
}

func TestClient_UploadBlob_FormRebuiltPerAttempt(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("PUT /containers/media/blobs/report.pdf", http.StatusCreated, `{"name":"report.pdf"}`)

	flaky := &flakyRunner{next: newRunner(t), fails: 1}
	c, err := New(a.URL(), flaky, WithUploadRetry(fastRetry(2)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.UploadBlob(context.Background(), "media", "report.pdf",
		[]byte("%PDF"), AsForm(map[string]string{"ttl": "60"})); err != nil {
		t.Fatalf("UploadBlob() error = %v", err)
	}

	// The delivered attempt must carry a complete, parseable form.
	last := a.Last()
	_, params, err := mime.ParseMediaType(last.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("ParseMediaType() error = %v", err)
	}
	form, err := multipart.NewReader(bytes.NewReader(last.Body), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm() error = %v", err)
	}
	defer func() { _ = form.RemoveAll() }()
	if got := form.Value["ttl"]; len(got) != 1 || got[0] != "60" {
		t.Errorf("ttl = %v, want [60]", got)
	}
	if len(form.File["file"]) != 1 {
		t.Fatalf("file parts = %d, want 1", len(form.File["file"]))
	}
}

func TestClient_UploadBlob_NoRetryOnErrorResponse(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.HandleSeries("PUT /containers/media/blobs/app.log",
		testutil.Reply{Status: http.StatusServiceUnavailable,
			Body: `{"error":{"code":"UNAVAILABLE","message":"come back later"}}`},
		testutil.Reply{Status: http.StatusCreated, Body: `{"name":"app.log"}`},
	)
	c := newClient(t, a.URL(), WithUploadRetry(fastRetry(4)))

	_, err := c.UploadBlob(context.Background(), "media", "app.log", []byte("hello"))
	apiErr, ok := errs.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("UploadBlob() error = %v, want 503 APIError", err)
	}
	// The 503 reached us, so the service saw the request. One delivery only.
	if a.Requests() != 1 {
		t.Errorf("server saw %d requests, want 1", a.Requests())
	}
}

func TestClient_DownloadBlob_ResumesMidBody(t *testing.T) {
	payload := testutil.Payload(100_000)
	blob := testutil.NewBlobServer(t, payload)
	blob.DropAfter(30_000)
	c := newClient(t, blob.URL())

	dl, err := c.DownloadBlob(context.Background(), "media", "big.bin",
		WithBlockSize(8192), WithRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("DownloadBlob() error = %v", err)
	}
	defer func() { _ = dl.Close() }()

	got, err := io.ReadAll(dl.Reader(context.Background()))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("downloaded %d bytes, want %d intact", len(got), len(payload))
	}

	ranges := blob.Ranges()
	if len(ranges) != 2 || ranges[1] != "bytes=30000-" {
		t.Errorf("ranges = %q, want resume from byte 30000", ranges)
	}
}

func TestClient_DownloadBlob_NotFound(t *testing.T) {
	a := testutil.NewAPIServer(t)
	c := newClient(t, a.URL())

	_, err := c.DownloadBlob(context.Background(), "media", "missing.bin")
	if !errs.IsNotFound(err) {
		t.Errorf("DownloadBlob() error = %v, want not found", err)
	}
}

func TestClient_DownloadBlobParallel(t *testing.T) {
	payload := testutil.Payload(10_000)
	blob := testutil.NewBlobServer(t, payload)
	c := newClient(t, blob.URL())

	got, err := c.DownloadBlobParallel(context.Background(), "media", "big.bin",
		WithPartSize(1024), WithConcurrency(3))
	if err != nil {
		t.Fatalf("DownloadBlobParallel() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("reassembled %d bytes, want %d intact", len(got), len(payload))
	}

	ranges := blob.Ranges()
	if len(ranges) != 10 {
		t.Fatalf("requests = %d, want 10", len(ranges))
	}
	if ranges[0] != "bytes=0-1023" {
		t.Errorf("probe range = %q, want bytes=0-1023", ranges[0])
	}
	// Workers run concurrently, so only membership is ordered.
	seen := map[string]bool{}
	for _, r := range ranges[1:] {
		seen[r] = true
	}
	if !seen["bytes=1024-2047"] || !seen["bytes=9216-9999"] {
		t.Errorf("ranges = %q, missing expected parts", ranges)
	}
}

func TestClient_DownloadBlobParallel_SmallBlob(t *testing.T) {
	payload := testutil.Payload(500)
	blob := testutil.NewBlobServer(t, payload)
	c := newClient(t, blob.URL())

	got, err := c.DownloadBlobParallel(context.Background(), "media", "small.bin")
	if err != nil {
		t.Fatalf("DownloadBlobParallel() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("reassembled %d bytes, want %d", len(got), len(payload))
	}
	if blob.Requests() != 1 {
		t.Errorf("requests = %d, want the probe alone", blob.Requests())
	}
}

func TestClient_DownloadBlobParallel_ServerIgnoresRanges(t *testing.T) {
	payload := testutil.Payload(5_000)
	a := testutil.NewAPIServer(t)
	a.HandleFunc("GET /containers/media/blobs/big.bin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	})
	c := newClient(t, a.URL())

	got, err := c.DownloadBlobParallel(context.Background(), "media", "big.bin", WithPartSize(1024))
	if err != nil {
		t.Fatalf("DownloadBlobParallel() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("downloaded %d bytes, want %d", len(got), len(payload))
	}
	if a.Requests() != 1 {
		t.Errorf("requests = %d, want 1 full download", a.Requests())
	}
}

func TestClient_DownloadBlobParallel_RangeRejected(t *testing.T) {
	blob := testutil.NewBlobServer(t, testutil.Payload(1_000))
	blob.RejectRanges()
	c := newClient(t, blob.URL())

	_, err := c.DownloadBlobParallel(context.Background(), "media", "big.bin", WithPartSize(100))
	apiErr, ok := errs.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("DownloadBlobParallel() error = %v, want 416 APIError", err)
	}
}
