// Package resources is the client for the Veldt resource-management
// service. Groups collect deployed resources under a name and location;
// deployments record rollouts into a group.
package resources
