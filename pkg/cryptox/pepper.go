package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PepperSize is the length in bytes of a generated pepper.
const PepperSize = 32

var ErrEmptyPepper = errors.New("cryptox: pepper file is empty")

// LoadOrCreatePepper reads the base64url pepper stored at path, creating the
// file with a fresh random pepper on first start. The directory is created if
// needed.
func LoadOrCreatePepper(path string) ([]byte, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create pepper dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		pepper := make([]byte, PepperSize)
		if _, err := rand.Read(pepper); err != nil {
			return nil, fmt.Errorf("generate pepper: %w", err)
		}

		encoded := base64.RawURLEncoding.EncodeToString(pepper)
		if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
			return nil, fmt.Errorf("write pepper: %w", err)
		}
		return pepper, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pepper: %w", err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, ErrEmptyPepper
	}

	pepper, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		// Operators sometimes drop in a plain passphrase; use it verbatim.
		return []byte(trimmed), nil
	}
	return pepper, nil
}
