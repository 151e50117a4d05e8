package llmextract

import (
	"context"
	"errors"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// classifyError maps a go-openai/network-level error to the closed
// ErrorKind taxonomy (spec §4.5 step 3). Unrecognized errors fall back to
// http_5xx, treating "unknown" the same as "the upstream is unwell"
// rather than silently swallowing it under empty_response.
func classifyError(err error) (ErrorKind, string) {
	msg := err.Error()

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode >= 500:
			return ErrorHTTP5xx, msg
		case apiErr.HTTPStatusCode >= 400:
			return ErrorHTTP4xx, msg
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetworkTimeout, msg
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorNetworkTimeout, msg
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return ErrorNetworkRefused, msg
	}

	return ErrorHTTP5xx, msg
}
