package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GenericNetworkMessage is shown when the service could not be reached.
const GenericNetworkMessage = "Network error: could not reach the analysis service"

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Message())
}

// Message is the user-facing text: the service's detail verbatim when it
// sent one, otherwise a generic status line.
func (e *StatusError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// TransportError means no response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a 2xx response body did not match the contract.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func errMissingField(name string) error {
	return fmt.Errorf("missing %q field", name)
}

// Message maps any client error to the single string shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message()
	}
	var te *TransportError
	if errors.As(err, &te) {
		return GenericNetworkMessage
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return "Invalid response from analysis service"
	}
	return err.Error()
}

// newStatusError reads a failure body of the form {"detail": ...}. FastAPI
// style validation errors carry a list of {"msg": ...}; those messages are
// joined. "error" and "message" keys are accepted as fallbacks.
func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return se
	}

	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return se
	}

	se.Detail = detailText(body.Detail)
	if se.Detail == "" {
		se.Detail = body.Error
	}
	if se.Detail == "" {
		se.Detail = body.Message
	}
	return se
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
