// Package async makes transport exchanges awaitable by running them on a
// dispatcher. The transport's request building, connection management, and
// error classification are reused unchanged; each adapter contributes only
// its scheduling.
//
//	tr, _ := transport.New(transport.ConnConfig{})
//	at := async.NewPool(tr, dispatch.PoolConfig{Workers: 8, MaxConcurrent: 4})
//	defer at.Close()
//
//	fut := at.Send(ctx, transport.NewRequest(http.MethodGet, url))
//	resp, err := fut.Await(ctx)
package async

import (
	"context"
	"time"

	"github.com/veldtcloud/veldt-sdk-go/dispatch"
	"github.com/veldtcloud/veldt-sdk-go/transport"
)

// Transport runs a blocking transport's exchanges on a dispatcher. Results
// come back as futures; a future abandoned mid-flight closes its response
// when the exchange eventually finishes, so connections never leak.
type Transport struct {
	tr      *transport.Transport
	d       dispatch.Dispatcher
	ownDisp bool
}

// New wraps tr with an externally managed dispatcher. The dispatcher is not
// closed by Close.
func New(tr *transport.Transport, d dispatch.Dispatcher) *Transport {
	return &Transport{tr: tr, d: d}
}

// NewLoop wraps tr with a dedicated single-queue Loop dispatcher.
func NewLoop(tr *transport.Transport, cfg dispatch.LoopConfig) *Transport {
	return &Transport{tr: tr, d: dispatch.NewLoop(cfg), ownDisp: true}
}

// NewPool wraps tr with a dedicated worker Pool dispatcher.
func NewPool(tr *transport.Transport, cfg dispatch.PoolConfig) *Transport {
	return &Transport{tr: tr, d: dispatch.NewPool(cfg), ownDisp: true}
}

// Send schedules the exchange and returns a future for its response.
func (t *Transport) Send(ctx context.Context, req *transport.Request, opts ...transport.CallOption) *dispatch.Future[*transport.Response] {
	return dispatch.Submit(ctx, t.d,
		func() (*transport.Response, error) {
			return t.tr.Do(ctx, req, opts...)
		},
		func(resp *transport.Response) {
			_ = resp.Close()
		},
	)
}

// Run sends the request and awaits the result. It satisfies
// transport.Runner. Do not call it from inside a dispatched job on a bounded
// pool; the nested dispatch can starve itself.
func (t *Transport) Run(ctx context.Context, req *transport.Request, opts ...transport.CallOption) (*transport.Response, error) {
	return t.Send(ctx, req, opts...).Await(ctx)
}

// Sleep suspends the caller without occupying a dispatch slot.
func (t *Transport) Sleep(ctx context.Context, d time.Duration) error {
	return t.d.Sleep(ctx, d)
}

// Open readies the underlying transport's connection pool.
func (t *Transport) Open() error {
	return t.tr.Open()
}

// Close closes the underlying transport, and the dispatcher too when this
// adapter created it.
func (t *Transport) Close() error {
	err := t.tr.Close()
	if t.ownDisp {
		if derr := t.d.Close(); err == nil {
			err = derr
		}
	}
	return err
}

// StreamDownload adapts a response into a downloader whose chunk pulls run
// on the dispatcher. Retry waits and ranged re-requests execute inside the
// offloaded pull, on the worker already running it; re-entering the
// dispatcher there could exhaust a bounded pool against itself.
func (t *Transport) StreamDownload(resp *transport.Response, opts transport.StreamOptions) *Downloader {
	if opts.Sleep == nil {
		opts.Sleep = t.d.Sleep
	}
	return &Downloader{
		inner: resp.StreamDownload(transport.RunnerFunc(t.tr.Do), opts),
		d:     t.d,
	}
}

type pulled struct {
	data []byte
	ok   bool
}

// Downloader pulls blocks of a streamed download on a dispatcher. It is
// meant for a single consumer; an abandoned pull closes the download.
type Downloader struct {
	inner *transport.Downloader
	d     dispatch.Dispatcher
}

// Next schedules one chunk pull and awaits it. Semantics match
// transport.Downloader.Next.
func (d *Downloader) Next(ctx context.Context) ([]byte, bool, error) {
	fut := dispatch.Submit(ctx, d.d,
		func() (pulled, error) {
			data, ok, err := d.inner.Next(ctx)
			return pulled{data: data, ok: ok}, err
		},
		func(pulled) {
			// The consumer is gone and the chunk cannot be delivered in
			// order, so the stream is unusable past this point.
			_ = d.inner.Close()
		},
	)
	p, err := fut.Await(ctx)
	return p.data, p.ok, err
}

// Len reports the Content-Length advertised by the initial response.
func (d *Downloader) Len() int64 { return d.inner.Len() }

// Downloaded reports the number of payload bytes delivered so far.
func (d *Downloader) Downloaded() int64 { return d.inner.Downloaded() }

// Close releases the underlying download.
func (d *Downloader) Close() error { return d.inner.Close() }
