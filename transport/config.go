package transport

import (
	"fmt"
	"time"

	"github.com/veldtcloud/veldt-sdk-go/validation"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultBlockSize      = 32 * 1024
	defaultIdleConns      = 100
	defaultIdleTimeout    = 90 * time.Second
)

// ConnConfig configures the pooled HTTP connection a Transport owns. It is
// fixed for the lifetime of the Transport; per-call options on Do can
// override the timeout and TLS settings for a single exchange.
type ConnConfig struct {
	// Timeout bounds how long the transport waits for the response headers
	// after the request has been written. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout" validate:"gt=0"`

	// ConnectTimeout bounds dialing and the TLS handshake. Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout" json:"connect_timeout" validate:"gt=0"`

	// TLS configures server verification and the client certificate.
	// Nil means stock verification against the system roots.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls" json:"tls"`

	// BlockSize is the chunk size in bytes used by streamed downloads.
	// Defaults to 32 KiB.
	BlockSize int64 `yaml:"block_size" mapstructure:"block_size" json:"block_size" validate:"gt=0"`

	// ProxyFromEnv honors HTTP_PROXY/HTTPS_PROXY/NO_PROXY when true.
	// When false the transport dials origins directly.
	ProxyFromEnv bool `yaml:"proxy_from_env" mapstructure:"proxy_from_env"`

	// Headers are default headers applied to every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Connection pool tuning.
	MaxIdleConns        int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *ConnConfig) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.BlockSize <= 0 {
		c.BlockSize = defaultBlockSize
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaultIdleConns / 10
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = defaultIdleTimeout
	}
}

// Validate checks the configuration against its constraints. Call it after
// ApplyDefaults; a zero config does not validate.
func (c *ConnConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
