package grok

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// FormatAPIError renders a provider error for display to the user. API errors
// include the status code and error type when present; anything else falls
// back to the plain error text.
func FormatAPIError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	var b strings.Builder
	msg := strings.TrimSpace(apiErr.Message)
	if msg == "" {
		msg = "unknown error"
	}
	b.WriteString(msg)
	if apiErr.HTTPStatusCode != 0 {
		fmt.Fprintf(&b, "\nStatus: %d", apiErr.HTTPStatusCode)
	}
	if apiErr.Type != "" {
		fmt.Fprintf(&b, "\nError type: %s", apiErr.Type)
	}
	return b.String()
}
