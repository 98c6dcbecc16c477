package restbase

import (
	"encoding/json"
	"fmt"
)

// RemoteError is a non-success HTTP status returned by a CRUD endpoint.
// Message carries the backend-supplied message when one could be parsed,
// the raw status text otherwise.
type RemoteError struct {
	Table      string
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, e.Message)
}

// AuthError is a non-success HTTP status returned by an auth endpoint.
type AuthError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %s", e.Endpoint, e.Message)
}

// remoteMessage extracts a human-readable message from a CRUD error body,
// falling back to the HTTP status text.
func remoteMessage(body []byte, status string) string {
	var payload struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Msg != "":
			return payload.Msg
		case payload.Error != "":
			return payload.Error
		}
	}
	return status
}

// authMessage is remoteMessage for auth endpoints: the auth server reports
// failures in error_description before the generic message fields.
func authMessage(body []byte, status string) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.ErrorDescription != "":
			return payload.ErrorDescription
		case payload.Msg != "":
			return payload.Msg
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	return status
}
