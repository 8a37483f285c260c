package lockbox

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/testutil"
	"github.com/veldtcloud/veldt-sdk-go/transport"
)

func newClient(t *testing.T, a *testutil.APIServer) *Client {
	t.Helper()
	tr, err := transport.New(transport.ConnConfig{})
	if err != nil {
		t.Fatalf("transport.New() error = %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	c, err := New(a.URL(), transport.RunnerFunc(tr.Do))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_SecretRoundTrip(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("PUT /secrets/db-password", http.StatusOK,
		`{"name":"db-password","value":"hunter2","version":"v1"}`)
	a.Handle("GET /secrets/db-password", http.StatusOK,
		`{"name":"db-password","value":"hunter2","version":"v1","content_type":"text/plain"}`)
	c := newClient(t, a)

	stored, err := c.SetSecret(context.Background(), "db-password", "hunter2",
		WithContentType("text/plain"),
		WithTags(map[string]string{"env": "prod"}),
	)
	if err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}
	if stored.Version != "v1" {
		t.Errorf("Version = %q, want v1", stored.Version)
	}

	var sent Secret
	if err := json.Unmarshal(a.Last().Body, &sent); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if sent.Value != "hunter2" || sent.ContentType == nil || *sent.ContentType != "text/plain" {
		t.Errorf("request body = %+v", sent)
	}
	if sent.Tags["env"] != "prod" {
		t.Errorf("request tags = %v", sent.Tags)
	}

	got, err := c.GetSecret(context.Background(), "db-password")
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if got.Value != "hunter2" {
		t.Errorf("Value = %q", got.Value)
	}
}

func TestClient_GetSecret_SpecificVersion(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("GET /secrets/db-password/v3", http.StatusOK,
		`{"name":"db-password","value":"older","version":"v3"}`)
	c := newClient(t, a)

	got, err := c.GetSecret(context.Background(), "db-password", WithVersion("v3"))
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if got.Version != "v3" || got.Value != "older" {
		t.Errorf("GetSecret() = %+v", got)
	}
}

func TestClient_NameValidation(t *testing.T) {
	a := testutil.NewAPIServer(t)
	c := newClient(t, a)
	ctx := context.Background()

	for _, tt := range []struct {
		name string
		call func() error
	}{
		{name: "empty secret name", call: func() error {
			_, err := c.GetSecret(ctx, "")
			return err
		}},
		{name: "secret name with slash", call: func() error {
			_, err := c.SetSecret(ctx, "a/b", "v")
			return err
		}},
		{name: "secret name with space", call: func() error {
			return c.DeleteSecret(ctx, "a b")
		}},
		{name: "key name with dot", call: func() error {
			_, err := c.GetKey(ctx, "a.b")
			return err
		}},
		{name: "unknown key type", call: func() error {
			_, err := c.CreateKey(ctx, "signing", "dsa")
			return err
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err == nil {
				t.Error("error = nil, want validation error")
			}
		})
	}
	if a.Requests() != 0 {
		t.Errorf("server saw %d requests, want 0", a.Requests())
	}
}

func TestClient_DeleteSecret_NotFound(t *testing.T) {
	a := testutil.NewAPIServer(t)
	c := newClient(t, a)

	err := c.DeleteSecret(context.Background(), "missing")
	if !errs.IsNotFound(err) {
		t.Errorf("DeleteSecret() error = %v, want not found", err)
	}
}

func TestClient_ListSecrets_TokenContinuation(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.HandleSeries("GET /secrets",
		testutil.Reply{Status: http.StatusOK, Body: `{
			"items":[{"name":"alpha","version":"v2"},{"name":"beta","version":"v1"}],
			"continuation_token":"page-2"}`},
		testutil.Reply{Status: http.StatusOK, Body: `{
			"items":[{"name":"gamma","version":"v5"}]}`},
	)
	c := newClient(t, a)

	p := c.ListSecrets()
	var names []string
	err := p.Items().ForEach(context.Background(), func(sp SecretProperties) error {
		names = append(names, sp.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error = %v", err)
	}
	if len(names) != 3 || names[2] != "gamma" {
		t.Errorf("names = %v", names)
	}

	received := a.Received()
	if len(received) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(received))
	}
	if tok := received[0].Query.Get("token"); tok != "" {
		t.Errorf("first request token = %q, want none", tok)
	}
	if tok := received[1].Query.Get("token"); tok != "page-2" {
		t.Errorf("second request token = %q, want page-2", tok)
	}
}

func TestClient_CreateKey(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("POST /keys/signing", http.StatusCreated,
		`{"name":"signing","type":"rsa","size":2048,"version":"v1"}`)
	c := newClient(t, a)

	key, err := c.CreateKey(context.Background(), "signing", KeyTypeRSA, WithKeySize(2048))
	if err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}
	if key.Type != KeyTypeRSA || key.Size == nil || *key.Size != 2048 {
		t.Errorf("CreateKey() = %+v", key)
	}

	var sent createKeyRequest
	if err := json.Unmarshal(a.Last().Body, &sent); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if sent.Type != "rsa" || sent.Size == nil || *sent.Size != 2048 {
		t.Errorf("request body = %+v", sent)
	}
}

func TestClient_GetKey(t *testing.T) {
	a := testutil.NewAPIServer(t)
	a.Handle("GET /keys/signing", http.StatusOK, `{"name":"signing","type":"ec","version":"v4"}`)
	c := newClient(t, a)

	key, err := c.GetKey(context.Background(), "signing")
	if err != nil {
		t.Fatalf("GetKey() error = %v", err)
	}
	if key.Type != KeyTypeEC || key.Version != "v4" {
		t.Errorf("GetKey() = %+v", key)
	}
}
