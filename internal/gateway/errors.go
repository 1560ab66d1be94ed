package gateway

import (
	"errors"
	"strconv"
	"strings"
)

// GatewayError wraps a gateway API error with classification metadata.
type GatewayError struct {
	// Gateway is the name of the gateway that returned the error.
	Gateway string
	// StatusCode is the HTTP status code, or 0 for SDK errors.
	StatusCode int
	// Message is the error description returned by the gateway.
	Message string
	// Permanent indicates the error will not succeed on retry.
	Permanent bool
}

func (e *GatewayError) Error() string {
	return e.Gateway + ": " + e.Message
}

// IsPermanent reports whether err is a gateway failure that retrying will
// not fix.
func IsPermanent(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Permanent
	}
	return false
}

// IsTransient reports whether err may succeed on retry. Unclassified
// errors (timeouts, connection resets) are transient.
func IsTransient(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return !ge.Permanent
	}
	return true
}

// ClassifyHTTPError builds a GatewayError from an HTTP status code and
// response body. It returns nil for 2xx statuses.
func ClassifyHTTPError(gatewayName string, statusCode int, body string) *GatewayError {
	ge := &GatewayError{
		Gateway:    gatewayName,
		StatusCode: statusCode,
		Message:    body,
	}
	if ge.Message == "" {
		ge.Message = "unexpected status " + strconv.Itoa(statusCode)
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 400 || statusCode == 422:
		ge.Permanent = containsAny(body, rejectPatterns)
	case statusCode == 401, statusCode == 403, statusCode == 404:
		ge.Permanent = true
	case statusCode == 408, statusCode == 429:
		ge.Permanent = false
	case statusCode >= 500:
		ge.Permanent = containsAny(body, accountPatterns)
	default:
		ge.Permanent = statusCode >= 400 && statusCode < 500
	}
	return ge
}

var rejectPatterns = []string{
	"invalid recipient",
	"invalid email",
	"invalid from",
	"does not exist",
	"recipient rejected",
	"bad request",
	"validation error",
	"invalid address",
	"no recipients",
}

var accountPatterns = []string{
	"invalid api key",
	"invalidserverapikey",
	"authentication failed",
	"account suspended",
	"server suspended",
	"unauthorized",
}

func containsAny(body string, patterns []string) bool {
	lower := strings.ToLower(body)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
