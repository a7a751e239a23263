package apiclient

import (
	"encoding/json"
	"fmt"
)

const (
	CodeNetwork = "NETWORK_ERROR"
	CodeAPI     = "API_ERROR"
	CodeUnknown = "UNKNOWN_ERROR"
)

// Error is the single shape every failed call is normalized into.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports whether the call may be attempted again: no response at
// all, or a 5xx from the server.
func (e *Error) Retryable() bool {
	if e.Code == CodeNetwork {
		return true
	}
	return e.Status >= 500 && e.Status < 600
}

// responseError builds the error for a response with a failing status code.
// The body's message and code win when present.
func responseError(status int, body []byte) *Error {
	e := &Error{Message: "An error occurred", Status: status, Code: CodeAPI}
	if len(body) == 0 {
		return e
	}
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Details = string(body)
		return e
	}
	if payload.Message != "" {
		e.Message = payload.Message
	}
	if payload.Code != "" {
		e.Code = payload.Code
	}
	e.Details = json.RawMessage(append([]byte(nil), body...))
	return e
}

func networkError(err error) *Error {
	return &Error{Message: "Network error - please check your connection", Code: CodeNetwork, Details: errString(err)}
}

func unknownError(err error) *Error {
	msg := "An unexpected error occurred"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Message: msg, Code: CodeUnknown}
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
