package dto

import "time"

// ErrorResponse is the standard error payload for API failures.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid request"`
	ErrorDetails string    `json:"error,omitempty" example:"limit must be a positive integer"`
	Timestamp    time.Time `json:"timestamp" example:"2025-08-25T06:00:00Z"`
}

// NewErrorResponse builds an ErrorResponse, capturing the inner error's
// message when present.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails != "" {
		return e.Message + ": " + e.ErrorDetails
	}
	return e.Message
}
