// Package appconfig is the client for the Veldt configuration service. It
// manages key-value settings, optionally scoped by label, and pages through
// listings by following the service's next links.
package appconfig
