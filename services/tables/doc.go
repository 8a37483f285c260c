// Package tables is the client for the Veldt database service. Items are
// schemaless property bags addressed by table, partition, and id; queries
// page through a partition with continuation tokens.
package tables
