package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFatalAPI marks provider errors that retrying cannot fix: bad credentials,
// exhausted quota, billing problems. Callers surface these directly instead
// of suggesting a retry.
var ErrFatalAPI = errors.New("fatal API error")

// ErrNoImage is returned by CompleteImage when the provider responded
// without an inline image payload. It is an expected degrade path, the
// caller substitutes a placeholder.
var ErrNoImage = errors.New("no image in response")

// fatalPatterns are substrings that identify unrecoverable provider errors.
var fatalPatterns = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
	"api key not valid",
	"permission denied",
}

// isFatalAPIError reports whether err describes an auth/quota/billing
// failure. Matching is substring-based over the whole error chain since
// providers encode these conditions in free-form messages.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError wraps fatal provider errors with ErrFatalAPI so callers
// can errors.Is them. Non-fatal errors pass through unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %v", ErrFatalAPI, err)
	}
	return err
}
