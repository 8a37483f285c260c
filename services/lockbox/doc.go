// Package lockbox is the client for the Veldt key-management service. It
// stores named secrets and cryptographic keys; secret values travel in
// request and response bodies, key material never leaves the service.
package lockbox
