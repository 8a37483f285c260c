package appconfig

import "time"

// Setting is one key-value configuration entry. Key and Label together
// identify it; a nil label addresses the unlabeled entry.
type Setting struct {
	Key          string            `json:"key"`
	Label        *string           `json:"label,omitempty"`
	Value        string            `json:"value"`
	ContentType  *string           `json:"content_type,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	ReadOnly     bool              `json:"read_only,omitempty"`
	Etag         string            `json:"etag,omitempty"`
	LastModified *time.Time        `json:"last_modified,omitempty"`
}

// settingsPage is one page of a settings listing. A non-empty next link
// points at the page that follows.
type settingsPage struct {
	Items    []Setting `json:"items"`
	NextLink string    `json:"next_link,omitempty"`
}
