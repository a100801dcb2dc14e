package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Error reports a response outside the 2xx range. The body is not parsed.
type Error struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Status)
}

// StatusCode returns the HTTP status carried by err when it is (or wraps) an *Error.
func StatusCode(err error) (int, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	got, ok := StatusCode(err)
	return ok && got == code
}

// statusText extracts the reason phrase from a status line such as "404 Not Found".
func statusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(status), strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}
