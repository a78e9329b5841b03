package emprendyup

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"emprendyup-catalog/internal/adapters/emprendyup/dto"
)

type httpStatusError struct {
	statusCode int
	status     string
	body       string
}

func (e *httpStatusError) Error() string {
	if strings.TrimSpace(e.body) == "" {
		return fmt.Sprintf("emprendyup request failed: %s", e.status)
	}
	return fmt.Sprintf("emprendyup request failed: %s: %s", e.status, e.body)
}

func newHTTPStatusError(statusCode int, status string, body []byte) error {
	return &httpStatusError{
		statusCode: statusCode,
		status:     status,
		body:       strings.TrimSpace(string(body)),
	}
}

// StatusCode returns the HTTP status of a failed request, or 0.
func StatusCode(err error) int {
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return httpErr.statusCode
	}
	return 0
}

// GraphQLError reports errors returned in a GraphQL response body.
type GraphQLError struct {
	Operation string
	Errors    []dto.GraphQLError
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("emprendyup graphql errors (%s): %s", e.Operation, formatGraphQLErrors(e.Errors))
}

// isRetryableHTTPError reports whether a failed request may be sent again.
// Mutations are only retried when the server refused them with 429.
func isRetryableHTTPError(err error, mutation bool) bool {
	switch StatusCode(err) {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return !mutation
	}
	return false
}

func isThrottleGraphQLError(errs []dto.GraphQLError) bool {
	for _, e := range errs {
		msg := strings.ToLower(e.Message)
		if strings.Contains(msg, "throttled") || strings.Contains(msg, "too many requests") {
			return true
		}
		if code, ok := e.Extensions["code"].(string); ok && (strings.EqualFold(code, "THROTTLED") || strings.EqualFold(code, "TOO_MANY_REQUESTS")) {
			return true
		}
	}
	return false
}

func formatGraphQLErrors(errs []dto.GraphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}
