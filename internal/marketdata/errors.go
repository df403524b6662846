package marketdata

import "fmt"

// ApiError represents an upstream failure: a non-2xx response, or a
// malformed top-level body (StatusCode 0). 4xx responses and malformed
// bodies are returned at once; 5xx responses are retried and, once the
// attempts run out, returned wrapped.
type ApiError struct {
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("polymarket api error: status %d: %s", e.StatusCode, e.Body)
}

// IsTerminal reports whether the given HTTP status code should fail
// immediately rather than be retried.
func IsTerminal(statusCode int) bool {
	return statusCode >= 400 && statusCode < 500
}
