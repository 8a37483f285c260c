// Package security holds the TLS configuration shared by the SDK's
// transport layer. A TLSConfig declares how a service endpoint is verified
// and which client certificate, if any, is presented; transport.ConnConfig
// carries one for the connection pool, and per-call options can substitute
// another for a single exchange.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/etc/veldt/ca.pem",
//	    CertFile: "/etc/veldt/client.pem",
//	    KeyFile:  "/etc/veldt/client.key",
//	}
//	tlsConfig, err := cfg.Build()
//
// The tlstest subpackage generates throwaway certificates for tests.
package security
