package security

import (
	"crypto/tls"
	"testing"

	"github.com/veldtcloud/veldt-sdk-go/security/tlstest"
)

func TestTLSConfig_Build_Defaults(t *testing.T) {
	var nilCfg *TLSConfig
	if got, err := nilCfg.Build(); err != nil || got != nil {
		t.Fatalf("nil config Build() = (%v, %v), want (nil, nil)", got, err)
	}

	zero := &TLSConfig{}
	if got, err := zero.Build(); err != nil || got != nil {
		t.Fatalf("zero config Build() = (%v, %v), want (nil, nil) to keep stock verification", got, err)
	}
}

func TestTLSConfig_Build_SkipVerify(t *testing.T) {
	cfg := &TLSConfig{SkipVerify: true}
	got, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got == nil {
		t.Fatal("Build() = nil, want a tls.Config")
	}
	if !got.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = false, want true")
	}
	if got.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %d, want TLS 1.2 default", got.MinVersion)
	}
}

func TestTLSConfig_Build_ServerName(t *testing.T) {
	cfg := &TLSConfig{SkipVerify: true, ServerName: "buckets.veldt.cloud"}
	got, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got.ServerName != "buckets.veldt.cloud" {
		t.Errorf("ServerName = %q, want buckets.veldt.cloud", got.ServerName)
	}
}

func TestTLSConfig_Build_MinVersionOnly(t *testing.T) {
	cfg := &TLSConfig{MinVersion: tls.VersionTLS13}
	got, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got == nil {
		t.Fatal("Build() = nil, a floor on the TLS version must be honored")
	}
	if got.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %d, want TLS 1.3", got.MinVersion)
	}
}

func TestTLSConfig_Build_MissingFiles(t *testing.T) {
	if _, err := (&TLSConfig{CAFile: "/nonexistent/ca.pem"}).Build(); err == nil {
		t.Error("Build() with missing CA file expected error")
	}
	cfg := &TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}
	if _, err := cfg.Build(); err == nil {
		t.Error("Build() with missing client cert expected error")
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	var nilCfg *TLSConfig
	if err := nilCfg.Validate(); err != nil {
		t.Fatalf("nil config Validate() error = %v", err)
	}
	pair := &TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}
	if err := pair.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := (&TLSConfig{CertFile: "cert.pem"}).Validate(); err == nil {
		t.Error("Validate() with cert but no key expected error")
	}
	if err := (&TLSConfig{KeyFile: "key.pem"}).Validate(); err == nil {
		t.Error("Validate() with key but no cert expected error")
	}
}

func TestTLSConfig_IsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		enabled bool
	}{
		{"nil", nil, false},
		{"zero", &TLSConfig{}, false},
		{"skip_verify", &TLSConfig{SkipVerify: true}, true},
		{"ca_file", &TLSConfig{CAFile: "ca.pem"}, true},
		{"cert_file", &TLSConfig{CertFile: "cert.pem"}, true},
		{"server_name", &TLSConfig{ServerName: "kv.veldt.cloud"}, true},
		{"min_version", &TLSConfig{MinVersion: tls.VersionTLS13}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsEnabled(); got != tt.enabled {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.enabled)
			}
		})
	}
}

func TestTLSConfig_Build_GeneratedCerts(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)

	t.Run("CA only", func(t *testing.T) {
		got, err := (&TLSConfig{CAFile: certs.CAFile}).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got == nil || got.RootCAs == nil {
			t.Fatal("Build() did not install the CA pool")
		}
	})

	t.Run("client cert", func(t *testing.T) {
		got, err := (&TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if len(got.Certificates) != 1 {
			t.Errorf("Certificates = %d, want 1", len(got.Certificates))
		}
	})

	t.Run("full", func(t *testing.T) {
		cfg := &TLSConfig{
			CAFile:     certs.CAFile,
			CertFile:   certs.CertFile,
			KeyFile:    certs.KeyFile,
			ServerName: "localhost",
			MinVersion: tls.VersionTLS13,
		}
		got, err := cfg.Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got.RootCAs == nil || len(got.Certificates) != 1 {
			t.Error("Build() dropped the CA pool or the client certificate")
		}
		if got.ServerName != "localhost" || got.MinVersion != tls.VersionTLS13 {
			t.Errorf("ServerName/MinVersion = %q/%d, want localhost/TLS 1.3", got.ServerName, got.MinVersion)
		}
	})
}

func TestTLSConfig_Build_InvalidCAContent(t *testing.T) {
	caFile := tlstest.WriteInvalidPEM(t, "bad-ca.pem")
	if _, err := (&TLSConfig{CAFile: caFile}).Build(); err == nil {
		t.Fatal("Build() expected error for unparseable CA PEM")
	}
}
