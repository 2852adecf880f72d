package utils

import "net/http"

// Response is the envelope every endpoint answers with. Success mirrors the
// status class; Code is the machine-readable failure kind clients branch on
// and is omitted on success.
type Response struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// NewResponse derives Success from status.
func NewResponse(status int, message string, data interface{}) Response {
	return Response{
		Status:  status,
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	}
}

func NewSuccessResponse(message string, data interface{}) Response {
	return NewResponse(http.StatusOK, message, data)
}

func NewErrorResponse(status int, message string) Response {
	return NewResponse(status, message, nil)
}

// NewCodedErrorResponse is a failure tagged with code, optionally carrying
// details in data.
func NewCodedErrorResponse(status int, code, message string, data interface{}) Response {
	resp := NewResponse(status, message, data)
	resp.Code = code
	return resp
}
