package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token for a request. Implementations
// must re-read their backing store on every call so a token refreshed
// mid-session takes effect on the very next request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed in-memory token, mostly for tests.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// FileTokenSource keeps the access token in a file, the CLI analog of the
// browser's accessToken cookie.
type FileTokenSource struct {
	Path string
}

// Token reads the token from disk. A missing file means not logged in and
// returns an empty token without error.
func (f *FileTokenSource) Token() (string, error) {
	b, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Save persists a freshly issued token.
func (f *FileTokenSource) Save(token string) error {
	if dir := filepath.Dir(f.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear forgets the stored token.
func (f *FileTokenSource) Clear() error {
	err := os.Remove(f.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Expired reports whether the token carries an exp claim in the past. The
// signature is not verified; validation belongs to the backend. A token
// without a readable exp claim is not treated as expired.
func Expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
