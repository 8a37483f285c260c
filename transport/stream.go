package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/logger"
)

const (
	defaultStreamRetries = 3
	defaultRetryDelay    = time.Second
)

// SleepFunc waits for d or until ctx is done. Downloads call it between a
// mid-body failure and the ranged re-request, so a cooperative scheduler can
// substitute a wait that yields instead of blocking the thread.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc. It blocks the calling goroutine.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StreamOptions tune a streamed download.
type StreamOptions struct {
	// MaxRetries is the number of ranged re-requests allowed across the whole
	// download. Defaults to 3.
	MaxRetries int
	// RetryDelay is the wait before each re-request. Defaults to one second.
	RetryDelay time.Duration
	// BlockSize overrides the connection's block size for this download.
	BlockSize int64
	// Sleep implements the retry wait. Defaults to SleepContext.
	Sleep SleepFunc
}

func (o *StreamOptions) applyDefaults(blockSize int64) {
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultStreamRetries
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.BlockSize <= 0 {
		o.BlockSize = blockSize
	}
	if o.Sleep == nil {
		o.Sleep = SleepContext
	}
}

// StreamDownload turns the live response body into a block iterator that
// survives mid-body connection failures. After a transient read error the
// downloader waits, re-requests the remainder with a Range header through
// runner, and continues from the first byte it has not yet delivered.
//
// The returned Downloader owns the response body; use either StreamDownload
// or Body on a response, not both.
func (r *Response) StreamDownload(runner Runner, opts StreamOptions) *Downloader {
	opts.applyDefaults(r.blockSize)
	var length int64
	if r.ContentLength > 0 {
		length = r.ContentLength
	}
	return &Downloader{
		resp:        r,
		runner:      runner,
		opts:        opts,
		length:      length,
		retriesLeft: opts.MaxRetries,
		buf:         make([]byte, opts.BlockSize),
		stats:       r.stats,
		host:        r.host,
		log:         r.log,
	}
}

// Downloader iterates over a response body in blocks, reissuing ranged
// requests when the connection drops mid-body. It is not safe for concurrent
// use.
type Downloader struct {
	resp   *Response
	runner Runner
	opts   StreamOptions

	length      int64
	downloaded  int64
	retriesLeft int

	buf    []byte
	done   bool
	err    error
	closed bool

	stats Stats
	host  string
	log   *logger.Logger
}

// Len returns the Content-Length advertised by the initial response, zero
// when the server sent none.
func (d *Downloader) Len() int64 { return d.length }

// Downloaded returns the number of payload bytes delivered so far.
func (d *Downloader) Downloaded() int64 { return d.downloaded }

// Next returns the next block of the payload. It returns ok=false with a nil
// error when the download is complete. Blocks are freshly allocated; the
// caller may keep them.
func (d *Downloader) Next(ctx context.Context) ([]byte, bool, error) {
	if d.err != nil {
		return nil, false, d.err
	}
	if d.done {
		return nil, false, nil
	}

	for {
		n, err := d.fillBlock(ctx)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, d.buf[:n])
			d.downloaded += int64(n)
			if d.stats != nil {
				d.stats.AddBytesDownloaded(d.host, int64(n))
			}
			if err != nil && stderrors.Is(err, io.EOF) {
				d.finish()
			}
			return chunk, true, nil
		}
		if err == nil {
			continue
		}
		if stderrors.Is(err, io.EOF) {
			d.finish()
			return nil, false, nil
		}
		if retryErr := d.recover(ctx, err); retryErr != nil {
			return nil, false, retryErr
		}
	}
}

// fillBlock reads from the live body until the block is full or the stream
// errors. A partial block with io.EOF is a normal final block, not a failure.
func (d *Downloader) fillBlock(ctx context.Context) (int, error) {
	n := 0
	for n < len(d.buf) {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		m, err := d.resp.raw.Body.Read(d.buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// recover handles a mid-body failure: transient errors consume retry budget
// and resume with a ranged re-request, everything else ends the download.
func (d *Downloader) recover(ctx context.Context, cause error) error {
	if stderrors.Is(cause, http.ErrBodyReadAfterClose) {
		// The body was consumed or closed elsewhere. Nothing to resume.
		d.fail(cause)
		return d.err
	}
	if !isTransientStreamError(cause) {
		d.logWarn(cause)
		d.fail(classifyExchangeError(cause))
		return d.err
	}

	if d.retriesLeft <= 0 {
		d.logWarn(cause)
		d.fail(errs.NewServiceResponseError(cause))
		return d.err
	}
	d.retriesLeft--

	if err := d.opts.Sleep(ctx, d.opts.RetryDelay); err != nil {
		d.fail(classifyExchangeError(err))
		return d.err
	}

	ranged := d.resp.Request.Clone()
	ranged.SetHeader("Range", fmt.Sprintf("bytes=%d-", d.downloaded))
	resp, err := d.runner.Run(ctx, ranged)
	if err != nil {
		d.fail(err)
		return d.err
	}
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		_ = resp.Close()
		d.logWarn(cause)
		d.fail(errs.NewServiceResponseError(cause))
		return d.err
	}

	if d.stats != nil {
		d.stats.ObserveStreamRetry(d.host)
	}
	if d.log != nil {
		d.log.Debug("download resumed", logger.Fields(
			logger.FieldURL, ranged.URL,
			logger.FieldOffset, d.downloaded,
		))
	}

	_ = d.resp.Close()
	d.resp = resp
	return nil
}

func (d *Downloader) logWarn(err error) {
	if d.log == nil {
		return
	}
	d.log.WithError(err).Warn("unable to stream download", logger.Fields(
		logger.FieldURL, d.resp.Request.URL,
		logger.FieldOffset, d.downloaded,
	))
}

func (d *Downloader) finish() {
	d.done = true
	_ = d.resp.Close()
}

func (d *Downloader) fail(err error) {
	d.err = err
	_ = d.resp.Close()
}

// Close releases the underlying response. Further Next calls report a
// completed download.
func (d *Downloader) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.done = true
	return d.resp.Close()
}

// Reader adapts the downloader to io.Reader. Reads pull blocks through Next
// with ctx.
func (d *Downloader) Reader(ctx context.Context) io.Reader {
	return &downloadReader{d: d, ctx: ctx}
}

type downloadReader struct {
	d   *Downloader
	ctx context.Context
	rem []byte
	err error
}

func (r *downloadReader) Read(p []byte) (int, error) {
	for len(r.rem) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		chunk, ok, err := r.d.Next(r.ctx)
		if err != nil {
			r.err = err
			return 0, err
		}
		if !ok {
			r.err = io.EOF
			return 0, io.EOF
		}
		r.rem = chunk
	}
	n := copy(p, r.rem)
	r.rem = r.rem[n:]
	return n, nil
}
