package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestSettings_ServiceEndpoint(t *testing.T) {
	s := Settings{
		Endpoint: "https://api.veldt.cloud",
		Services: map[string]string{"lockbox": "https://lockbox.veldt.cloud"},
	}

	if got := s.ServiceEndpoint("lockbox"); got != "https://lockbox.veldt.cloud" {
		t.Errorf("ServiceEndpoint(lockbox) = %q, want override", got)
	}
	if got := s.ServiceEndpoint("tables"); got != "https://api.veldt.cloud" {
		t.Errorf("ServiceEndpoint(tables) = %q, want account endpoint", got)
	}

	var empty Settings
	if got := empty.ServiceEndpoint("lockbox"); got != "" {
		t.Errorf("ServiceEndpoint on empty settings = %q, want empty", got)
	}
}

func TestSettings_Validate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults valid", func(*Settings) {}, false},
		{"endpoint set", func(s *Settings) { s.Endpoint = "https://api.veldt.cloud" }, false},
		{"bad endpoint", func(s *Settings) { s.Endpoint = "not a url" }, true},
		{"bad service override", func(s *Settings) {
			s.Services = map[string]string{"tables": "::::"}
		}, true},
		{"bad log level", func(s *Settings) { s.Logging.Level = "loud" }, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := Settings{}
			s.ApplyDefaults()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_LogMasksAPIKey(t *testing.T) {
	s := Settings{
		Endpoint: "https://api.veldt.cloud",
		APIKey:   "vk-live-0123456789abcdef",
	}

	var buf bytes.Buffer
	zerolog.New(&buf).Info().Object("settings", &s).Msg("loaded")

	out := buf.String()
	if strings.Contains(out, "0123456789abcdef") {
		t.Errorf("log output leaks the API key: %s", out)
	}
	if !strings.Contains(out, "vk-l***") {
		t.Errorf("log output missing masked key, got: %s", out)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "veldt.yml", `
endpoint: https://api.veldt.cloud
api_key: vk-test-1234
services:
  lockbox: https://lockbox.veldt.cloud
connection:
  timeout: 45s
  block_size: 4MB
  max_idle_conns: 50
logging:
  level: debug
`)

	var s Settings
	if err := Load("veldt", &s, WithConfigFile(path)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Endpoint != "https://api.veldt.cloud" {
		t.Errorf("Endpoint = %q", s.Endpoint)
	}
	if s.Services["lockbox"] != "https://lockbox.veldt.cloud" {
		t.Errorf("Services[lockbox] = %q", s.Services["lockbox"])
	}
	if s.Connection.Timeout != 45*time.Second {
		t.Errorf("Connection.Timeout = %v, want 45s", s.Connection.Timeout)
	}
	if s.Connection.BlockSize != 4<<20 {
		t.Errorf("Connection.BlockSize = %d, want %d", s.Connection.BlockSize, 4<<20)
	}
	if s.Connection.MaxIdleConns != 50 {
		t.Errorf("Connection.MaxIdleConns = %d, want 50", s.Connection.MaxIdleConns)
	}
	if s.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", s.Logging.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "veldt.yml", `
endpoint: https://file.veldt.cloud
connection:
  max_idle_conns: 50
`)

	t.Setenv("VELDT_ENDPOINT", "https://env.veldt.cloud")
	t.Setenv("VELDT_CONNECTION_MAX_IDLE_CONNS", "7")

	var s Settings
	if err := Load("veldt", &s, WithConfigFile(path)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Endpoint != "https://env.veldt.cloud" {
		t.Errorf("Endpoint = %q, want env value", s.Endpoint)
	}
	if s.Connection.MaxIdleConns != 7 {
		t.Errorf("Connection.MaxIdleConns = %d, want 7", s.Connection.MaxIdleConns)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "VELDT_API_KEY=vk-dotenv-5678\n")

	// godotenv only sets variables that are absent, and it mutates the real
	// environment. Setenv registers the restore, Unsetenv clears the way.
	t.Setenv("VELDT_API_KEY", "placeholder")
	_ = os.Unsetenv("VELDT_API_KEY")

	var s Settings
	if err := Load("veldt", &s, WithEnvFile(envPath)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.APIKey != "vk-dotenv-5678" {
		t.Errorf("APIKey = %q, want value from .env", s.APIKey)
	}
}

func TestLoad_MissingSourcesAreFine(t *testing.T) {
	fs := &mockFS{files: map[string]bool{}}
	var s Settings
	if err := Load("veldt", &s, WithFileSystem(fs)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Endpoint != "" {
		t.Errorf("Endpoint = %q, want zero value", s.Endpoint)
	}
}

func TestLoad_BadSizeValue(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "veldt.yml", `
connection:
  block_size: plenty
`)

	var s Settings
	if err := Load("veldt", &s, WithConfigFile(path)); err == nil {
		t.Fatal("Load() error = nil, want size parse error")
	}
}

func TestLoadSettings_AppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "veldt.yml", `
endpoint: https://api.veldt.cloud
`)

	s, err := LoadSettings(WithConfigFile(path))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Connection.Timeout != 30*time.Second {
		t.Errorf("Connection.Timeout = %v, want default 30s", s.Connection.Timeout)
	}
	if s.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", s.Logging.Level)
	}
}

func TestLoadSettings_RejectsBadEndpoint(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "veldt.yml", "endpoint: not a url\n")

	_, err := LoadSettings(WithConfigFile(path))
	if err == nil {
		t.Fatal("LoadSettings() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("LoadSettings() error = %v, want mention of endpoint", err)
	}
}

type mockFS struct {
	files  map[string]bool
	home   string
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func (m *mockFS) UserHomeDir() (string, error) { return m.home, nil }

func TestFindConfigFile(t *testing.T) {
	for _, tt := range []struct {
		name  string
		files map[string]bool
		home  string
		want  string
	}{
		{"cwd wins", map[string]bool{"./veldt.yml": true, "./config/veldt.yml": true}, "", "./veldt.yml"},
		{"yaml extension", map[string]bool{"./veldt.yaml": true}, "", "./veldt.yaml"},
		{"config dir", map[string]bool{"./config/veldt.yml": true}, "", "./config/veldt.yml"},
		{"home fallback", map[string]bool{"/home/u/.veldt/veldt.yml": true}, "/home/u", "/home/u/.veldt/veldt.yml"},
		{"nothing found", map[string]bool{}, "/home/u", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			fs := &mockFS{files: tt.files, home: tt.home}
			if got := findConfigFile(fs, "veldt"); got != tt.want {
				t.Errorf("findConfigFile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindEnvFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{".env.veldt": true, ".env": true}}
	if got := findEnvFile(fs, "veldt"); got != ".env.veldt" {
		t.Errorf("findEnvFile() = %q, want .env.veldt", got)
	}

	fs = &mockFS{files: map[string]bool{".env": true}}
	if got := findEnvFile(fs, "veldt"); got != ".env" {
		t.Errorf("findEnvFile() = %q, want .env", got)
	}
}

func TestKeyVariants(t *testing.T) {
	got := keyVariants("CONNECTION_MAX_IDLE_CONNS")
	found := false
	for _, v := range got {
		if v == "connection.max_idle_conns" {
			found = true
		}
	}
	if !found {
		t.Errorf("keyVariants() = %v, want member connection.max_idle_conns", got)
	}

	if got := keyVariants("ENDPOINT"); len(got) != 1 || got[0] != "endpoint" {
		t.Errorf("keyVariants(ENDPOINT) = %v, want [endpoint]", got)
	}
}

func TestLoad_CallerDefinedStruct(t *testing.T) {
	type cacheCfg struct {
		TTL time.Duration `mapstructure:"ttl"`
	}
	type toolCfg struct {
		Workers int      `mapstructure:"workers"`
		Cache   cacheCfg `mapstructure:"cache"`
	}

	t.Setenv("VELDT_WORKERS", "6")
	t.Setenv("VELDT_CACHE_TTL", "90s")

	var cfg toolCfg
	if err := Load("tool", &cfg, WithFileSystem(&mockFS{files: map[string]bool{}})); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want 6", cfg.Workers)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
}
