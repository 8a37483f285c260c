package config

import (
	"github.com/rs/zerolog"

	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/transport"
	"github.com/veldtcloud/veldt-sdk-go/util"
	"github.com/veldtcloud/veldt-sdk-go/validation"
)

// Settings carries everything needed to construct service clients: the
// account endpoint, the credential, and the tuning shared by every client
// built from it. Load it once with LoadSettings and hand it to each
// service's FromSettings constructor.
type Settings struct {
	// Endpoint is the base URL used for any service without an override
	// in Services.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint" validate:"omitempty,url"`

	// APIKey authenticates requests when set.
	APIKey string `yaml:"api_key" mapstructure:"api_key" json:"api_key"`

	// Services maps a service name such as "lockbox" to an endpoint that
	// overrides Endpoint for that service's clients.
	Services map[string]string `yaml:"services" mapstructure:"services" json:"services" validate:"omitempty,dive,url"`

	// Connection tunes the transport shared by clients built from these
	// settings.
	Connection transport.ConnConfig `yaml:"connection" mapstructure:"connection" json:"connection"`

	// Logging configures the SDK logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging" json:"logging"`
}

// ApplyDefaults fills zero values on the nested configurations.
func (s *Settings) ApplyDefaults() {
	s.Connection.ApplyDefaults()
	s.Logging.ApplyDefaults()
}

// Validate checks the settings and every nested configuration. Call it
// after ApplyDefaults; a zero connection config does not validate.
func (s *Settings) Validate() error {
	if err := validation.Validate(s); err != nil {
		return err
	}
	if err := s.Connection.Validate(); err != nil {
		return err
	}
	return s.Logging.Validate()
}

// ServiceEndpoint returns the endpoint for the named service: the override
// in Services when present, otherwise the account Endpoint. It returns an
// empty string when neither is configured.
func (s *Settings) ServiceEndpoint(name string) string {
	return util.Coalesce(s.Services[name], s.Endpoint)
}

// MarshalZerologObject writes the settings to a log event with the API key
// masked.
func (s *Settings) MarshalZerologObject(e *zerolog.Event) {
	e.Str("endpoint", s.Endpoint)
	if s.APIKey != "" {
		e.Str("api_key", util.MaskSecret(s.APIKey, 4))
	}
	if len(s.Services) > 0 {
		d := zerolog.Dict()
		for name, endpoint := range s.Services {
			d.Str(name, endpoint)
		}
		e.Dict("services", d)
	}
}
