package transport

import "github.com/veldtcloud/veldt-sdk-go/security"

// TLSConfig is an alias for the shared security TLS configuration.
// See security.TLSConfig for full documentation.
type TLSConfig = security.TLSConfig
