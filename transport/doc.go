// Package transport implements the HTTP transport layer of the Veldt SDK:
// a pooled connection owner that performs single request/response exchanges
// and classifies failures into the SDK's two-kind error taxonomy.
//
// The transport never follows redirects, never retries the initial send, and
// never inspects status codes; those concerns belong to the layers above it.
// Responses keep their body open so large payloads can be streamed through a
// Downloader, which transparently resumes interrupted bodies with ranged
// re-requests.
//
// # Basic Usage
//
//	tr, err := transport.New(transport.ConnConfig{
//	    Timeout: 30 * time.Second,
//	})
//	defer tr.Close()
//
//	req := transport.NewRequest(http.MethodGet, "https://buckets.veldt.cloud/logs/app.log")
//	resp, err := tr.Do(ctx, req)
//
// # Streaming
//
//	dl := resp.StreamDownload(transport.RunnerFunc(tr.Do), transport.StreamOptions{})
//	defer dl.Close()
//	for {
//	    chunk, ok, err := dl.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    // consume chunk
//	}
package transport
