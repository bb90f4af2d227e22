package dto

import "time"

// ErrorResponse is the single failure envelope returned by every endpoint.
//
// Configuration, upstream and data-shape failures all collapse into this
// shape; clients only see a readable message and the underlying detail.
type ErrorResponse struct {
	Message      string    `json:"message" example:"Failed to fetch asteroid data"`
	ErrorDetails string    `json:"error,omitempty" example:"upstream error (status 503): Service Unavailable"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements the error interface so an ErrorResponse can travel through
// gin's error list.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
// err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
