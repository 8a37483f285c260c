// Package version identifies the SDK release and builds the default
// User-Agent value stamped on outgoing requests.
package version
