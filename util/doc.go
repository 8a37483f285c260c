// Package util provides small helpers shared across the SDK.
//
// Ptr and Deref make optional model fields ergonomic, Coalesce picks the
// first configured value in a fallback chain, and ParseSize reads human
// readable byte sizes from configuration.
package util
