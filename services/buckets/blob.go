package buckets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/observability"
	"github.com/veldtcloud/veldt-sdk-go/resilience"
	"github.com/veldtcloud/veldt-sdk-go/transport"
)

const (
	defaultPartSize    = int64(4 << 20)
	defaultConcurrency = 4
)

// UploadOption tunes an upload.
type UploadOption func(*uploadSettings)

type uploadSettings struct {
	contentType string
	asForm      bool
	fields      map[string]string
}

// WithContentType sets the blob's content type. Defaults to
// application/octet-stream.
func WithContentType(ct string) UploadOption {
	return func(us *uploadSettings) { us.contentType = ct }
}

// AsForm sends the upload as a multipart form. The content travels in the
// form's "file" part, fields as plain form fields.
func AsForm(fields map[string]string) UploadOption {
	return func(us *uploadSettings) {
		us.asForm = true
		us.fields = fields
	}
}

// UploadBlob stores content as a blob and returns the service's description
// of it. The whole request is re-sent with backoff when it never reached
// the service; an error response is returned as-is, since the service may
// already have acted on the request.
func (c *Client) UploadBlob(ctx context.Context, container, name string, content []byte, opts ...UploadOption) (BlobInfo, error) {
	if err := validContainer(container); err != nil {
		return BlobInfo{}, err
	}
	if err := validBlobName(name); err != nil {
		return BlobInfo{}, err
	}
	us := uploadSettings{contentType: "application/octet-stream"}
	for _, opt := range opts {
		opt(&us)
	}

	ctx, op := observability.StartOperation(ctx, serviceName, "upload_blob", c.metrics)
	info, err := c.uploadBlob(ctx, container, name, content, us)
	op.End(ctx, err)
	return info, err
}

func (c *Client) uploadBlob(ctx context.Context, container, name string, content []byte, us uploadSettings) (BlobInfo, error) {
	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.WithError(err).Warn("upload not delivered, retrying", logger.Fields(
			"container", container,
			"blob", name,
			"attempt", attempt,
			"backoff_ms", backoff.Milliseconds(),
		))
	}

	return resilience.Retry(ctx, cfg, func() (BlobInfo, error) {
		// The request is rebuilt per attempt so a consumed form body can
		// never be replayed half-read.
		req := transport.NewRequest(http.MethodPut, blobPath(container, name))
		if us.asForm {
			form := transport.NewFormData()
			for k, v := range us.fields {
				form.AddField(k, v)
			}
			form.AddFile("file", name, us.contentType, bytes.NewReader(content))
			req.Form = form
		} else {
			req.Body = content
			req.SetHeader("Content-Type", us.contentType)
		}

		resp, err := c.pl.Run(ctx, req)
		if err != nil {
			return BlobInfo{}, err
		}
		raw, err := resp.Body()
		if err != nil {
			return BlobInfo{}, err
		}
		if !resp.IsSuccess() {
			return BlobInfo{}, errs.FromStatus(resp.StatusCode, raw).WithRequestID(resp.Header(transport.HeaderRequestID))
		}
		var info BlobInfo
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &info); err != nil {
				return BlobInfo{}, fmt.Errorf("buckets: decode upload response: %w", err)
			}
		}
		return info, nil
	})
}

// DownloadOption tunes a download.
type DownloadOption func(*downloadSettings)

type downloadSettings struct {
	blockSize   int64
	maxRetries  int
	retryDelay  time.Duration
	partSize    int64
	concurrency int
}

// WithBlockSize sets the block size a streamed download yields.
func WithBlockSize(n int64) DownloadOption {
	return func(ds *downloadSettings) { ds.blockSize = n }
}

// WithStreamRetries caps the ranged re-requests of a streamed download.
func WithStreamRetries(n int) DownloadOption {
	return func(ds *downloadSettings) { ds.maxRetries = n }
}

// WithRetryDelay sets the wait before each ranged re-request of a streamed
// download.
func WithRetryDelay(d time.Duration) DownloadOption {
	return func(ds *downloadSettings) { ds.retryDelay = d }
}

// WithPartSize sets the range size of a parallel download.
func WithPartSize(n int64) DownloadOption {
	return func(ds *downloadSettings) { ds.partSize = n }
}

// WithConcurrency caps the in-flight range requests of a parallel download.
func WithConcurrency(n int) DownloadOption {
	return func(ds *downloadSettings) { ds.concurrency = n }
}

// DownloadBlob starts a streamed download. The returned Downloader survives
// mid-body connection failures by re-requesting the remainder through the
// client's pipeline, so credentials are re-applied on every resume. Close
// it when done.
func (c *Client) DownloadBlob(ctx context.Context, container, name string, opts ...DownloadOption) (*transport.Downloader, error) {
	if err := validContainer(container); err != nil {
		return nil, err
	}
	if err := validBlobName(name); err != nil {
		return nil, err
	}
	var ds downloadSettings
	for _, opt := range opts {
		opt(&ds)
	}

	resp, err := c.pl.Run(ctx, transport.NewRequest(http.MethodGet, blobPath(container, name)))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		raw, rerr := resp.Body()
		if rerr != nil {
			return nil, rerr
		}
		return nil, errs.FromStatus(resp.StatusCode, raw).WithRequestID(resp.Header(transport.HeaderRequestID))
	}
	return resp.StreamDownload(c.pl, transport.StreamOptions{
		MaxRetries: ds.maxRetries,
		RetryDelay: ds.retryDelay,
		BlockSize:  ds.blockSize,
	}), nil
}

// DownloadBlobParallel fetches a blob with bounded parallel range requests
// and reassembles it in memory. The first ranged request doubles as the
// size probe; a service that ignores Range headers degrades to one full
// download.
func (c *Client) DownloadBlobParallel(ctx context.Context, container, name string, opts ...DownloadOption) ([]byte, error) {
	if err := validContainer(container); err != nil {
		return nil, err
	}
	if err := validBlobName(name); err != nil {
		return nil, err
	}
	ds := downloadSettings{partSize: defaultPartSize, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&ds)
	}
	if ds.partSize <= 0 {
		ds.partSize = defaultPartSize
	}
	if ds.concurrency <= 0 {
		ds.concurrency = defaultConcurrency
	}

	ctx, op := observability.StartOperation(ctx, serviceName, "download_blob_parallel", c.metrics)
	data, err := c.downloadParallel(ctx, blobPath(container, name), ds)
	op.End(ctx, err)
	return data, err
}

func (c *Client) downloadParallel(ctx context.Context, path string, ds downloadSettings) ([]byte, error) {
	probe := transport.NewRequest(http.MethodGet, path)
	probe.SetHeader("Range", fmt.Sprintf("bytes=0-%d", ds.partSize-1))
	resp, err := c.pl.Run(ctx, probe)
	if err != nil {
		return nil, err
	}
	head, err := resp.Body()
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		// The service ignored the range and sent the whole blob.
		return head, nil
	default:
		return nil, errs.FromStatus(resp.StatusCode, head).WithRequestID(resp.Header(transport.HeaderRequestID))
	}

	total, err := totalFromContentRange(resp.Header("Content-Range"))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, total)
	copy(buf, head)
	if int64(len(head)) >= total {
		return buf, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ds.concurrency)
	for start := int64(len(head)); start < total; start += ds.partSize {
		end := min(start+ds.partSize-1, total-1)
		g.Go(func() error {
			return c.downloadRange(gctx, path, buf, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.log.Debug("parallel download complete", logger.Fields(
		"url", path,
		"bytes", total,
	))
	return buf, nil
}

// downloadRange fills buf[start:end+1] with one ranged request.
func (c *Client) downloadRange(ctx context.Context, path string, buf []byte, start, end int64) error {
	req := transport.NewRequest(http.MethodGet, path)
	req.SetHeader("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	resp, err := c.pl.Run(ctx, req)
	if err != nil {
		return err
	}
	part, err := resp.Body()
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusPartialContent {
		return errs.FromStatus(resp.StatusCode, part).WithRequestID(resp.Header(transport.HeaderRequestID))
	}
	if int64(len(part)) != end-start+1 {
		return errs.NewServiceResponseError(fmt.Errorf("range %d-%d returned %d bytes", start, end, len(part)))
	}
	copy(buf[start:], part)
	return nil
}

// totalFromContentRange pulls the total size out of a Content-Range header
// shaped like "bytes 0-99/1234".
func totalFromContentRange(cr string) (int64, error) {
	idx := strings.LastIndexByte(cr, '/')
	if idx < 0 || idx == len(cr)-1 {
		return 0, errs.NewServiceResponseError(fmt.Errorf("malformed Content-Range %q", cr))
	}
	total, err := strconv.ParseInt(cr[idx+1:], 10, 64)
	if err != nil || total <= 0 {
		return 0, errs.NewServiceResponseError(fmt.Errorf("malformed Content-Range %q", cr))
	}
	return total, nil
}
