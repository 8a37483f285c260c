// Package buckets is the client for the Veldt storage service. Containers
// hold blobs; uploads re-send automatically when the request never reached
// the service, and downloads either stream with ranged resume or fan out
// over bounded parallel range requests.
package buckets
