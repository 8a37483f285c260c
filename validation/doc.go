// Package validation checks client configuration and resource names before
// a request leaves the process.
//
// Struct tag validation covers configuration types. Failures surface as an
// *Error carrying one FieldError per violated constraint:
//
//	type Settings struct {
//	    Endpoint string `json:"endpoint" validate:"required,url"`
//	}
//	err := validation.Validate(settings)
//
// The chained Validator covers ad hoc checks such as service resource
// names:
//
//	err := validation.New().
//	    Required("name", name).
//	    Matches("name", name, secretNameRE).
//	    Err()
package validation
