package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DefaultErrorMessage is used when a failed response carries nothing readable.
const DefaultErrorMessage = "Request failed"

// RemoteError is the single error raised for a non-2xx response. Error()
// returns only the server message; Status is kept alongside for callers that
// need to tell causes apart.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not remote.
func StatusOf(err error) int {
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		return rerr.Status
	}
	return 0
}

func newRemoteError(resp *http.Response) *RemoteError {
	return &RemoteError{Status: resp.StatusCode, Message: extractMessage(resp)}
}

// extractMessage prefers a JSON "error" field, then "message", then the raw
// text, then DefaultErrorMessage.
func extractMessage(resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return DefaultErrorMessage
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return DefaultErrorMessage
		}
		if msg := messageField(fields); msg != "" {
			return msg
		}
		return DefaultErrorMessage
	}

	text := string(data)
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		if msg := messageField(fields); msg != "" {
			return msg
		}
	}
	if text != "" {
		return text
	}
	return DefaultErrorMessage
}

func messageField(fields map[string]any) string {
	for _, key := range []string{"error", "message"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
