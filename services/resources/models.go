package resources

import "time"

// Group is a named collection of resources in one location.
type Group struct {
	Name     string            `json:"name"`
	Location string            `json:"location"`
	Tags     map[string]string `json:"tags,omitempty"`
	// Status is the provisioning state the service reports, such as
	// "succeeded" or "deleting".
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Deployment is one rollout of resources into a group.
type Deployment struct {
	Name       string     `json:"name"`
	Group      string     `json:"group"`
	Status     string     `json:"status,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// groupsPage is one page of a group listing.
type groupsPage struct {
	Items             []Group `json:"items"`
	ContinuationToken string  `json:"continuation_token,omitempty"`
}

// deploymentsPage is one page of a deployment listing.
type deploymentsPage struct {
	Items             []Deployment `json:"items"`
	ContinuationToken string       `json:"continuation_token,omitempty"`
}
