package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultTokenPath is used when the config names no token file.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".plx_token.json"
	}
	return filepath.Join(home, ".plx", "token.json")
}

// SaveToken persists an oauth2 token to disk with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// LoadToken reads a previously saved oauth2 token. A missing file surfaces as
// [shared.ErrNotAuthenticated].
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: no saved token at %s", shared.ErrNotAuthenticated, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed token file %s", shared.ErrInvalidCredentials, path)
	}
	// An expired token with no refresh token cannot be renewed, so treat it
	// like a missing one and ask for a fresh login.
	if token.RefreshToken == "" && !token.Expiry.IsZero() && token.Expiry.Before(time.Now()) {
		return nil, fmt.Errorf("%w: saved token for %s", shared.ErrTokenExpired, path)
	}
	return &token, nil
}
