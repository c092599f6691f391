package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// errStopStream terminates the SSE read loop on message_stop without
// surfacing an error to callers.
var errStopStream = errors.New("anthropic: message stop")

// HTTPError is a non-2xx upstream response. Message carries the upstream
// error message when the payload had one.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("anthropic http error: status=%d message=%s", e.StatusCode, msg)
}

func parseHTTPError(status int, raw []byte) error {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error.Message) != "" {
		return &HTTPError{StatusCode: status, Message: strings.TrimSpace(env.Error.Message), Body: string(raw)}
	}
	return &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(raw))}
}
