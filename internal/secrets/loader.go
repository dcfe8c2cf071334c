package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Placeholder is the value shipped in sample configurations. It counts as unset.
const Placeholder = "PASTE_YOUR_GEMINI_API_KEY_HERE"

// ErrNotConfigured is returned when a source holds no usable secret.
var ErrNotConfigured = errors.New("not configured")

// Source describes where an API key may come from.
type Source struct {
	// Name appears in error messages.
	Name string
	// Value is an inline secret from configuration or the environment.
	Value string
	// File holds the secret on disk and wins over Value.
	File string
}

// Load resolves the secret of src. A blank or placeholder secret yields an
// error wrapping ErrNotConfigured; an unreadable file is reported as is.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	secret, origin, err := src.read()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}

	if secret == "" || secret == Placeholder {
		return "", fmt.Errorf("%s (%s) is %w", name, origin, ErrNotConfigured)
	}

	return secret, nil
}

func (s Source) read() (secret, origin string, err error) {
	path := strings.TrimSpace(s.File)
	if path == "" {
		return strings.TrimSpace(s.Value), "inline value", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(string(data)), fmt.Sprintf("file %q", path), nil
}

// Mask hides all but the last four characters of secret.
func Mask(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
