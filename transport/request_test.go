package transport

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestRequest_SetHeader_SetQuery(t *testing.T) {
	req := NewRequest(http.MethodGet, "https://api.example.com/items")
	req.SetHeader("Accept", "application/json").SetQuery("limit", "10")

	if got := req.Headers["Accept"]; got != "application/json" {
		t.Errorf("Headers[Accept] = %q, want application/json", got)
	}
	if got := req.Query["limit"]; got != "10" {
		t.Errorf("Query[limit] = %q, want 10", got)
	}
}

func TestRequest_Clone_Independent(t *testing.T) {
	req := NewRequest(http.MethodGet, "https://api.example.com/blob")
	req.SetHeader("Accept", "application/octet-stream")
	req.SetQuery("version", "1")

	clone := req.Clone()
	clone.SetHeader("Range", "bytes=100-")
	clone.SetQuery("version", "2")

	if _, ok := req.Headers["Range"]; ok {
		t.Error("mutating the clone's headers changed the original")
	}
	if req.Query["version"] != "1" {
		t.Errorf("original Query[version] = %q, want 1", req.Query["version"])
	}
	if clone.Method != req.Method || clone.URL != req.URL {
		t.Error("clone lost method or URL")
	}
}

func TestRequest_ResolveBody_Precedence(t *testing.T) {
	form := NewFormData().AddField("k", "v")
	stream := strings.NewReader("stream-data")

	tests := []struct {
		name     string
		req      *Request
		wantType string
	}{
		{
			name:     "form wins over body and stream",
			req:      &Request{Form: form, Body: []byte("raw"), BodyStream: stream},
			wantType: "multipart",
		},
		{
			name:     "body wins over stream",
			req:      &Request{Body: []byte("raw"), BodyStream: stream},
			wantType: "bytes",
		},
		{
			name:     "stream alone",
			req:      &Request{BodyStream: stream},
			wantType: "stream",
		},
		{
			name:     "no body",
			req:      &Request{},
			wantType: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct, length, err := tt.req.resolveBody()
			if err != nil {
				t.Fatalf("resolveBody() error = %v", err)
			}
			switch tt.wantType {
			case "multipart":
				if !strings.HasPrefix(ct, "multipart/form-data") {
					t.Errorf("content type = %q, want multipart/form-data prefix", ct)
				}
			case "bytes":
				data, _ := io.ReadAll(body)
				if !bytes.Equal(data, []byte("raw")) {
					t.Errorf("body = %q, want raw", data)
				}
				if length != 3 {
					t.Errorf("length = %d, want 3", length)
				}
			case "stream":
				data, _ := io.ReadAll(body)
				if string(data) != "stream-data" {
					t.Errorf("body = %q, want stream-data", data)
				}
				if length != int64(len("stream-data")) {
					t.Errorf("length = %d, want %d", length, len("stream-data"))
				}
			case "none":
				if body != nil {
					t.Error("body reader should be nil when no payload is set")
				}
			}
		})
	}
}

func TestRequest_ResolveBody_RewindsStream(t *testing.T) {
	stream := strings.NewReader("abcdef")
	if _, err := stream.Seek(3, io.SeekStart); err != nil {
		t.Fatal(err)
	}

	req := &Request{BodyStream: stream}
	body, _, length, err := req.resolveBody()
	if err != nil {
		t.Fatalf("resolveBody() error = %v", err)
	}
	if length != 6 {
		t.Errorf("length = %d, want 6", length)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "abcdef" {
		t.Errorf("body = %q, want abcdef (stream should rewind)", data)
	}
}
