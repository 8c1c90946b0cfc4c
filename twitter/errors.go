package twitter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// maxErrorBody bounds how much of an upstream response body is kept on an error.
const maxErrorBody = 512

// RateLimitError is returned when the API answers 429 Too Many Requests.
type RateLimitError struct {
	// ResetAt is when the window resets, zero if the API did not say.
	ResetAt time.Time
	Body    string
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "timeline API returned 429: too many requests"
	}
	return fmt.Sprintf("timeline API returned 429: too many requests, resets at %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// UpstreamError is any other unsuccessful answer from the API, including a 200 whose body
// could not be decoded or carried only errors.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("timeline API returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("timeline API returned %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// APIError is one entry of the errors array the API attaches to partial failures.
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (e APIError) Error() string {
	if e.Detail != "" {
		return e.Title + ": " + e.Detail
	}
	return e.Title
}

func rateLimitFrom(resp *http.Response, body []byte) *RateLimitError {
	rl := &RateLimitError{Body: truncate(body)}
	if v := resp.Header.Get("x-rate-limit-reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			rl.ResetAt = time.Unix(secs, 0)
		}
	}
	return rl
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
