package store

import (
	"errors"
	"fmt"
	"strings"
)

// apiKeyKey matches the original web client's localStorage key.
const apiKeyKey = "medilex_api_key"

// MinAPIKeyLength is the only client-side validation applied to a
// credential. Anything longer is accepted and rejected, if at all, by the
// provider on first use.
const MinAPIKeyLength = 10

// ErrMissingCredential signals that no API key is stored yet; callers run
// the blocking key-entry flow before anything else.
var ErrMissingCredential = errors.New("no API key configured")

// ErrKeyTooShort rejects obviously truncated keys at entry time.
var ErrKeyTooShort = fmt.Errorf("API key must be at least %d characters", MinAPIKeyLength)

// APIKey returns the stored credential, or ErrMissingCredential.
func (s *KV) APIKey() (string, error) {
	key, ok, err := s.Get(apiKeyKey)
	if err != nil {
		return "", err
	}
	if !ok || key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}

// SetAPIKey validates and persists the credential.
func (s *KV) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if len(key) < MinAPIKeyLength {
		return ErrKeyTooShort
	}
	return s.Set(apiKeyKey, key)
}

// ClearAPIKey removes the credential, forcing the entry flow on next use.
func (s *KV) ClearAPIKey() error {
	return s.Delete(apiKeyKey)
}
