package errors

import "encoding/json"

// ErrorResponse is the JSON error envelope returned by Veldt services.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent by the service.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an APIError to an ErrorResponse for JSON serialization.
// Test servers use it to speak the same envelope the real services do.
func (e *APIError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    e.Code,
			Message: e.Message,
		},
	}
}

func parseErrorBody(body []byte) (ErrorBody, bool) {
	if len(body) == 0 {
		return ErrorBody{}, false
	}
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ErrorBody{}, false
	}
	if resp.Error.Code == "" && resp.Error.Message == "" {
		return ErrorBody{}, false
	}
	return resp.Error, true
}
