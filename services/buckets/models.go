package buckets

import "time"

// Container is a named blob namespace.
type Container struct {
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// BlobItem is one entry of a blob listing.
type BlobItem struct {
	Name        string     `json:"name"`
	Size        int64      `json:"size"`
	ContentType *string    `json:"content_type,omitempty"`
	Etag        string     `json:"etag,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// BlobInfo describes a stored blob, as returned by an upload.
type BlobInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Etag string `json:"etag,omitempty"`
}

// blobsPage is one page of a blob listing.
type blobsPage struct {
	Items             []BlobItem `json:"items"`
	ContinuationToken string     `json:"continuation_token,omitempty"`
}
