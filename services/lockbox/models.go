package lockbox

import "time"

// Secret is a named secret value with its metadata. The service assigns
// Version on every write.
type Secret struct {
	Name        string            `json:"name"`
	Value       string            `json:"value,omitempty"`
	Version     string            `json:"version,omitempty"`
	ContentType *string           `json:"content_type,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
}

// SecretProperties is the metadata subset listings return. Values are
// never included; fetch them with GetSecret.
type SecretProperties struct {
	Name      string     `json:"name"`
	Version   string     `json:"version,omitempty"`
	Enabled   *bool      `json:"enabled,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Key describes a cryptographic key held by the service.
type Key struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Size      *int       `json:"size,omitempty"`
	Version   string     `json:"version,omitempty"`
	Enabled   *bool      `json:"enabled,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Key types accepted by CreateKey.
const (
	KeyTypeRSA = "rsa"
	KeyTypeEC  = "ec"
	KeyTypeOct = "oct"
)

// secretsPage is one page of a secrets listing.
type secretsPage struct {
	Items             []SecretProperties `json:"items"`
	ContinuationToken string             `json:"continuation_token,omitempty"`
}

// createKeyRequest is the body of a key creation call.
type createKeyRequest struct {
	Type string `json:"type"`
	Size *int   `json:"size,omitempty"`
}
