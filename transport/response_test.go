package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
)

func doGet(t *testing.T, tr *Transport, url string) *Response {
	t.Helper()
	resp, err := tr.Do(context.Background(), NewRequest(http.MethodGet, url))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	t.Cleanup(func() { _ = resp.Close() })
	return resp
}

func TestResponse_Body_Memoized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp := doGet(t, tr, srv.URL)

	first, err := resp.Body()
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	second, err := resp.Body()
	if err != nil {
		t.Fatalf("second Body() error = %v", err)
	}
	if string(first) != "payload" || string(second) != "payload" {
		t.Errorf("bodies = %q, %q, want payload twice", first, second)
	}
}

func TestResponse_Body_AfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp := doGet(t, tr, srv.URL)
	_ = resp.Close()

	if _, err := resp.Body(); err != http.ErrBodyReadAfterClose {
		t.Errorf("Body() after Close error = %v, want http.ErrBodyReadAfterClose", err)
	}
}

func TestResponse_Body_SurvivesClose_WhenAlreadyRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp := doGet(t, tr, srv.URL)

	if _, err := resp.Body(); err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	_ = resp.Close()
	body, err := resp.Body()
	if err != nil {
		t.Fatalf("Body() after read and close error = %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("body = %q, want payload", body)
	}
}

func TestResponse_Body_Truncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("only this"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp := doGet(t, tr, srv.URL)

	_, err := resp.Body()
	if err == nil {
		t.Fatal("Body() expected error for truncated payload")
	}
	if !errs.IsServiceResponseError(err) {
		t.Errorf("error = %v, want ServiceResponseError", err)
	}
}

func TestResponse_Text_Charset(t *testing.T) {
	// "héllo" in ISO-8859-1: é is a single 0xE9 byte.
	latin1 := []byte{0x68, 0xE9, 0x6C, 0x6C, 0x6F}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latin1":
			w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
			_, _ = w.Write(latin1)
		case "/utf8":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("héllo"))
		default:
			_, _ = w.Write([]byte("plain"))
		}
	}))
	defer srv.Close()

	tr := newTestTransport(t)

	t.Run("charset from content type", func(t *testing.T) {
		resp := doGet(t, tr, srv.URL+"/latin1")
		text, err := resp.Text("")
		if err != nil {
			t.Fatalf("Text() error = %v", err)
		}
		if text != "héllo" {
			t.Errorf("Text() = %q, want héllo", text)
		}
	})

	t.Run("explicit encoding wins", func(t *testing.T) {
		resp := doGet(t, tr, srv.URL+"/utf8")
		text, err := resp.Text("utf-8")
		if err != nil {
			t.Fatalf("Text() error = %v", err)
		}
		if text != "héllo" {
			t.Errorf("Text() = %q, want héllo", text)
		}
	})

	t.Run("no charset falls back to raw", func(t *testing.T) {
		resp := doGet(t, tr, srv.URL+"/plain")
		text, err := resp.Text("")
		if err != nil {
			t.Fatalf("Text() error = %v", err)
		}
		if text != "plain" {
			t.Errorf("Text() = %q, want plain", text)
		}
	})

	t.Run("unknown encoding", func(t *testing.T) {
		resp := doGet(t, tr, srv.URL+"/plain")
		if _, err := resp.Text("klingon-8"); err == nil {
			t.Error("Text() expected error for unknown encoding")
		}
	})
}

func TestResponse_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"veldt","count":3}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp := doGet(t, tr, srv.URL)

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := resp.JSON(&out); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if out.Name != "veldt" || out.Count != 3 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestResponse_ContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4")
		_, _ = w.Write([]byte("abcd"))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp := doGet(t, tr, srv.URL)

	if resp.ContentLength != 4 {
		t.Errorf("ContentLength = %d, want 4", resp.ContentLength)
	}
}
